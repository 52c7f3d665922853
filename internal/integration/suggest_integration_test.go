package integration

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fridgechef/backend/config"
	"github.com/fridgechef/backend/internal/model"
	"github.com/fridgechef/backend/internal/service"
	"github.com/fridgechef/backend/internal/testhelpers"
)

const dims = 1536

// unitVector returns a 1536-dim unit vector along the given axis.
func unitVector(axis int) []float32 {
	v := make([]float32, dims)
	v[axis] = 1
	return v
}

type staticEmbedder struct {
	vector []float32
}

func (s *staticEmbedder) EmbedQuery(ctx context.Context, tokens []string) ([]float32, error) {
	return s.vector, nil
}

func (s *staticEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = s.vector
	}
	return out, nil
}

func TestSuggestPipelineAgainstPostgres(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	ctx := context.Background()
	logger := zap.NewNop()

	retrieval := config.RetrievalConfig{OverfetchFactor: 3, MinK: 10, MinSimilarity: 0.4}
	store := service.NewRecipeStoreService(db, logger)
	index := service.NewPgVectorIndex(db, retrieval, dims, logger)

	pancakes := &model.Recipe{
		Title:       "Pancakes",
		Ingredients: model.JSONBStringArray{"flour", "milk", "eggs", "sugar", "butter"},
		Tags:        model.JSONBStringArray{"breakfast", "quick"},
		Embedding:   pgvector.NewVector(unitVector(0)),
	}
	salad := &model.Recipe{
		Title:       "Salad",
		Ingredients: model.JSONBStringArray{"lettuce", "tomato", "cucumber"},
		Tags:        model.JSONBStringArray{"lunch"},
		Embedding:   pgvector.NewVector(unitVector(1)),
	}
	require.NoError(t, store.CreateRecipe(ctx, pancakes))
	require.NoError(t, store.CreateRecipe(ctx, salad))

	t.Run("index orders matches by cosine distance", func(t *testing.T) {
		matches, err := index.QueryTopK(ctx, unitVector(0), 10, nil)
		require.NoError(t, err)
		require.Len(t, matches, 2)
		assert.Equal(t, pancakes.ID, matches[0].RecipeID)
		assert.InDelta(t, 1.0, matches[0].Similarity, 0.01)
		assert.InDelta(t, 0.0, matches[1].Similarity, 0.01)
	})

	t.Run("tag filter keeps only recipes carrying every tag", func(t *testing.T) {
		matches, err := index.QueryTopK(ctx, unitVector(1), 10, []string{"breakfast", "quick"})
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, pancakes.ID, matches[0].RecipeID)

		matches, err = index.QueryTopK(ctx, unitVector(1), 10, []string{"breakfast", "lunch"})
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("store resolves ids and ignores stale ones", func(t *testing.T) {
		found, err := store.FetchByIDs(ctx, []uuid.UUID{pancakes.ID, salad.ID, uuid.New()})
		require.NoError(t, err)
		assert.Len(t, found, 2)
		assert.Equal(t, "Pancakes", found[pancakes.ID].Title)
	})

	t.Run("full pipeline returns the overlapping recipe only", func(t *testing.T) {
		normalizer := service.NewNormalizer()
		ranker := service.NewRankingEngine(normalizer, config.RankingConfig{
			SimilarityWeight: 0.5,
			OverlapWeight:    0.4,
			MissingPenalty:   0.1,
		})
		suggester := service.NewSuggestService(
			normalizer,
			&staticEmbedder{vector: unitVector(0)},
			index, store, ranker, nil,
			retrieval, 0, logger,
		)

		suggestions, err := suggester.Suggest(ctx, []string{"eggs", "milk", "flour"}, nil, 3)
		require.NoError(t, err)
		require.Len(t, suggestions, 1)
		assert.Equal(t, "Pancakes", suggestions[0].Title)
		assert.ElementsMatch(t, []string{"sugar", "butter"}, suggestions[0].Missing)
	})

	t.Run("upsert replaces a recipe vector", func(t *testing.T) {
		require.NoError(t, index.Upsert(ctx, salad.ID, unitVector(0)))

		matches, err := index.QueryTopK(ctx, unitVector(0), 10, nil)
		require.NoError(t, err)
		require.Len(t, matches, 2)
		assert.InDelta(t, 1.0, matches[1].Similarity, 0.01)
	})
}
