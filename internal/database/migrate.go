package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// migration is one named, idempotently-tracked schema step. Steps run in
// list order and are recorded in the migrations table so reruns skip them.
type migration struct {
	name string
	sql  string
}

var migrations = []migration{
	{
		name: "001_vector_extension",
		sql:  `CREATE EXTENSION IF NOT EXISTS vector`,
	},
	{
		name: "002_recipes_table",
		sql: `CREATE TABLE IF NOT EXISTS recipes (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
			deleted_at TIMESTAMP WITH TIME ZONE,
			title TEXT NOT NULL,
			description TEXT,
			ingredients JSONB NOT NULL DEFAULT '[]',
			instructions JSONB NOT NULL DEFAULT '[]',
			tags JSONB NOT NULL DEFAULT '[]',
			source TEXT,
			embedding vector(1536)
		)`,
	},
	{
		name: "003_recipes_deleted_at_index",
		sql:  `CREATE INDEX IF NOT EXISTS idx_recipes_deleted_at ON recipes (deleted_at)`,
	},
	{
		// ivfflat needs rows to build useful lists; created up front it
		// still works, just unoptimized until the table fills.
		name: "004_recipes_embedding_index",
		sql: `CREATE INDEX IF NOT EXISTS idx_recipes_embedding ON recipes
			USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)`,
	},
	{
		// Backs the jsonb containment filter on tag-restricted searches.
		name: "005_recipes_tags_index",
		sql:  `CREATE INDEX IF NOT EXISTS idx_recipes_tags ON recipes USING GIN (tags jsonb_path_ops)`,
	},
}

// RunMigrations applies all pending schema migrations.
func RunMigrations(db *gorm.DB, logger *zap.Logger) error {
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			id SERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL UNIQUE,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, m := range migrations {
		var count int64
		if err := db.Table("migrations").Where("name = ?", m.name).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if count > 0 {
			logger.Debug("skipping applied migration", zap.String("migration", m.name))
			continue
		}

		if err := db.Exec(m.sql).Error; err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", m.name, err)
		}
		if err := db.Exec("INSERT INTO migrations (name) VALUES (?)", m.name).Error; err != nil {
			return fmt.Errorf("failed to record migration %s: %w", m.name, err)
		}
		logger.Info("applied migration", zap.String("migration", m.name))
	}
	return nil
}
