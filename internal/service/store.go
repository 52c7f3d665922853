package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fridgechef/backend/internal/model"
)

// RecipeStoreService resolves recipe identifiers to full records. The vector
// index and the store are only eventually consistent, so partial misses on a
// batch fetch are expected and silently tolerated.
type RecipeStoreService struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewRecipeStoreService creates a new RecipeStoreService instance
func NewRecipeStoreService(db *gorm.DB, logger *zap.Logger) *RecipeStoreService {
	return &RecipeStoreService{db: db, logger: logger}
}

// FetchByIDs returns the records that still exist for the given ids. Only a
// total store failure is an error; stale ids are dropped.
func (s *RecipeStoreService) FetchByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Recipe, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]*model.Recipe{}, nil
	}

	var recipes []model.Recipe
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&recipes).Error; err != nil {
		s.logger.Error("batch recipe fetch failed",
			zap.String("stage", "store"),
			zap.Int("ids", len(ids)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	result := make(map[uuid.UUID]*model.Recipe, len(recipes))
	for i := range recipes {
		result[recipes[i].ID] = &recipes[i]
	}
	if missed := len(ids) - len(result); missed > 0 {
		s.logger.Debug("stale index entries skipped", zap.Int("missed", missed))
	}
	return result, nil
}

// GetRecipe retrieves a recipe by ID
func (s *RecipeStoreService) GetRecipe(ctx context.Context, id uuid.UUID) (*model.Recipe, error) {
	var recipe model.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return &recipe, nil
}

// CreateRecipe creates a new recipe record. Ingestion-side only.
func (s *RecipeStoreService) CreateRecipe(ctx context.Context, recipe *model.Recipe) error {
	if err := s.db.WithContext(ctx).Create(recipe).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
