package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fridgechef/backend/config"
	"github.com/fridgechef/backend/internal/model"
)

// PgVectorIndex answers nearest-neighbor queries against the recipes table
// using the pgvector cosine operator. It passes results through in
// index-native order and never re-sorts.
type PgVectorIndex struct {
	db     *gorm.DB
	cfg    config.RetrievalConfig
	dims   int
	logger *zap.Logger
}

// NewPgVectorIndex creates a new PgVectorIndex instance
func NewPgVectorIndex(db *gorm.DB, cfg config.RetrievalConfig, dims int, logger *zap.Logger) *PgVectorIndex {
	return &PgVectorIndex{db: db, cfg: cfg, dims: dims, logger: logger}
}

// KFor returns how many candidates to overfetch for a requested result count.
// The ranking engine needs headroom because overlap penalties reorder and
// drop candidates after retrieval.
func (s *PgVectorIndex) KFor(n int) int {
	k := n * s.cfg.OverfetchFactor
	if k < s.cfg.MinK {
		k = s.cfg.MinK
	}
	return k
}

// QueryTopK returns the k nearest recipe vectors by cosine similarity,
// descending. A non-empty tags list keeps only recipes tagged with all of
// them. A dimension mismatch or database failure is fatal for the request.
func (s *PgVectorIndex) QueryTopK(ctx context.Context, vector []float32, k int, tags []string) ([]IndexMatch, error) {
	if len(vector) != s.dims {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, index expects %d", ErrRetrieval, len(vector), s.dims)
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: non-positive k %d", ErrRetrieval, k)
	}

	query := s.db.WithContext(ctx).
		Model(&model.Recipe{}).
		Select("id, embedding <=> ? AS distance", pgvector.NewVector(vector)).
		Where("embedding IS NOT NULL")
	if len(tags) > 0 {
		query = query.Where("tags @> ?", model.JSONBStringArray(tags))
	}

	var rows []struct {
		ID       uuid.UUID
		Distance float64
	}
	err := query.
		Order("distance ASC").
		Limit(k).
		Scan(&rows).Error
	if err != nil {
		s.logger.Error("vector index query failed",
			zap.String("stage", "retrieval"),
			zap.Int("k", k),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrRetrieval, err)
	}

	matches := make([]IndexMatch, 0, len(rows))
	for _, row := range rows {
		// Cosine distance is in [0,2]; clamp the derived similarity to [0,1].
		sim := 1 - row.Distance
		if sim < 0 {
			sim = 0
		}
		matches = append(matches, IndexMatch{RecipeID: row.ID, Similarity: sim})
	}
	return matches, nil
}

// Upsert writes a recipe's embedding. Used by ingestion only.
func (s *PgVectorIndex) Upsert(ctx context.Context, id uuid.UUID, vector []float32) error {
	if len(vector) != s.dims {
		return fmt.Errorf("%w: vector has %d dimensions, index expects %d", ErrRetrieval, len(vector), s.dims)
	}
	err := s.db.WithContext(ctx).
		Model(&model.Recipe{}).
		Where("id = ?", id).
		Update("embedding", pgvector.NewVector(vector)).Error
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRetrieval, err)
	}
	return nil
}
