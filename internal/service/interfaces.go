package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/fridgechef/backend/internal/model"
)

// Embedder turns text into fixed-dimension dense vectors.
type Embedder interface {
	EmbedQuery(ctx context.Context, tokens []string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// IndexMatch is one vector index hit, in index-native order.
type IndexMatch struct {
	RecipeID   uuid.UUID
	Similarity float64
}

// VectorIndex answers top-K nearest-neighbor queries over recipe vectors.
// A non-empty tags list restricts matches to recipes carrying every one of
// them. KFor translates a requested result count into the index fetch size,
// overfetching so that downstream filtering still fills the request.
type VectorIndex interface {
	QueryTopK(ctx context.Context, vector []float32, k int, tags []string) ([]IndexMatch, error)
	Upsert(ctx context.Context, id uuid.UUID, vector []float32) error
	KFor(n int) int
}

// RecipeStore resolves index identifiers to full recipe records. FetchByIDs
// may return fewer records than requested; stale index entries are expected.
type RecipeStore interface {
	FetchByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Recipe, error)
	GetRecipe(ctx context.Context, id uuid.UUID) (*model.Recipe, error)
	CreateRecipe(ctx context.Context, recipe *model.Recipe) error
}

// Generator fans candidate recipes out to the generation provider and
// returns one suggestion per surviving candidate, in candidate order.
type Generator interface {
	Generate(ctx context.Context, queryTokens []string, candidates []model.Candidate) ([]model.Suggestion, error)
}

// Completer is the text-generation provider boundary.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
}

// Suggester is the single operation exposed to the presentation layer.
type Suggester interface {
	Suggest(ctx context.Context, ingredients, tags []string, count int) ([]model.Suggestion, error)
}
