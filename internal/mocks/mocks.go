// Package mocks provides hand-rolled fakes for the service boundaries, used
// by handler and server tests.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fridgechef/backend/internal/model"
	"github.com/fridgechef/backend/internal/service"
)

// MockSuggester returns canned suggestions or a canned error.
type MockSuggester struct {
	Suggestions []model.Suggestion
	Err         error

	GotIngredients []string
	GotTags        []string
	GotCount       int
	Calls          int
}

func (m *MockSuggester) Suggest(ctx context.Context, ingredients, tags []string, count int) ([]model.Suggestion, error) {
	m.Calls++
	m.GotIngredients = ingredients
	m.GotTags = tags
	m.GotCount = count
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Suggestions, nil
}

// MockRecipeStore keeps recipes in a map.
type MockRecipeStore struct {
	Recipes   map[uuid.UUID]*model.Recipe
	FetchErr  error
	CreateErr error
}

func NewMockRecipeStore() *MockRecipeStore {
	return &MockRecipeStore{Recipes: make(map[uuid.UUID]*model.Recipe)}
}

func (m *MockRecipeStore) FetchByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Recipe, error) {
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	found := make(map[uuid.UUID]*model.Recipe)
	for _, id := range ids {
		if r, ok := m.Recipes[id]; ok {
			found[id] = r
		}
	}
	return found, nil
}

func (m *MockRecipeStore) GetRecipe(ctx context.Context, id uuid.UUID) (*model.Recipe, error) {
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	if r, ok := m.Recipes[id]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockRecipeStore) CreateRecipe(ctx context.Context, recipe *model.Recipe) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	if recipe.ID == uuid.Nil {
		recipe.ID = uuid.New()
	}
	m.Recipes[recipe.ID] = recipe
	return nil
}

// MockEmbedder returns a fixed vector for every input.
type MockEmbedder struct {
	Vector []float32
	Err    error

	GotTexts []string
}

func (m *MockEmbedder) EmbedQuery(ctx context.Context, tokens []string) ([]float32, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Vector, nil
}

func (m *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.GotTexts = append(m.GotTexts, texts...)
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = m.Vector
	}
	return out, nil
}

// MockVectorIndex records upserts and returns canned matches.
type MockVectorIndex struct {
	Matches  []service.IndexMatch
	QueryErr error

	Upserted map[uuid.UUID][]float32
}

func NewMockVectorIndex() *MockVectorIndex {
	return &MockVectorIndex{Upserted: make(map[uuid.UUID][]float32)}
}

func (m *MockVectorIndex) QueryTopK(ctx context.Context, vector []float32, k int, tags []string) ([]service.IndexMatch, error) {
	if m.QueryErr != nil {
		return nil, m.QueryErr
	}
	if len(m.Matches) > k {
		return m.Matches[:k], nil
	}
	return m.Matches, nil
}

func (m *MockVectorIndex) Upsert(ctx context.Context, id uuid.UUID, vector []float32) error {
	m.Upserted[id] = vector
	return nil
}

func (m *MockVectorIndex) KFor(n int) int {
	k := n * 3
	if k < 10 {
		k = 10
	}
	return k
}
