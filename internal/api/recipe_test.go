package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fridgechef/backend/internal/mocks"
	"github.com/fridgechef/backend/internal/model"
	"github.com/fridgechef/backend/internal/service"
)

func recipeRouter(store *mocks.MockRecipeStore, embedder *mocks.MockEmbedder) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewRecipeHandler(store, embedder, zap.NewNop())
	// Auth is covered by the middleware tests; pass requests through here.
	passthrough := func(c *gin.Context) { c.Next() }
	handler.RegisterRoutes(router.Group("/api/v1"), passthrough)
	return router
}

func TestRecipeHandler_GetRecipe(t *testing.T) {
	t.Run("returns a stored recipe without its embedding", func(t *testing.T) {
		store := mocks.NewMockRecipeStore()
		recipe := &model.Recipe{
			ID:          uuid.New(),
			Title:       "Omelette",
			Ingredients: model.JSONBStringArray{"eggs", "butter"},
		}
		store.Recipes[recipe.ID] = recipe

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/recipes/"+recipe.ID.String(), nil)
		recipeRouter(store, &mocks.MockEmbedder{}).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp RecipeResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Omelette", resp.Title)
		assert.NotContains(t, w.Body.String(), "embedding")
	})

	t.Run("unknown id is a 404", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/recipes/"+uuid.New().String(), nil)
		recipeRouter(mocks.NewMockRecipeStore(), &mocks.MockEmbedder{}).ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed id is a 400", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/recipes/not-a-uuid", nil)
		recipeRouter(mocks.NewMockRecipeStore(), &mocks.MockEmbedder{}).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRecipeHandler_CreateRecipe(t *testing.T) {
	postRecipe := func(t *testing.T, router *gin.Engine, body interface{}) *httptest.ResponseRecorder {
		t.Helper()
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/recipes", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("persists the recipe with its embedding", func(t *testing.T) {
		store := mocks.NewMockRecipeStore()
		embedder := &mocks.MockEmbedder{Vector: []float32{0.1, 0.2}}

		w := postRecipe(t, recipeRouter(store, embedder), CreateRecipeRequest{
			Title:        "Pancakes",
			Ingredients:  []string{"flour", "milk", "eggs"},
			Instructions: []string{"Mix.", "Fry."},
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		require.Len(t, store.Recipes, 1)
		for _, r := range store.Recipes {
			assert.Equal(t, "Pancakes", r.Title)
			assert.Equal(t, []float32{0.1, 0.2}, r.Embedding.Slice())
		}
		// The embedded document text includes title and ingredients.
		require.Len(t, embedder.GotTexts, 1)
		assert.Contains(t, embedder.GotTexts[0], "Pancakes")
		assert.Contains(t, embedder.GotTexts[0], "flour, milk, eggs")
	})

	t.Run("rejects a recipe without ingredients", func(t *testing.T) {
		store := mocks.NewMockRecipeStore()
		w := postRecipe(t, recipeRouter(store, &mocks.MockEmbedder{}), map[string]interface{}{
			"title": "Mystery dish",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, store.Recipes)
	})

	t.Run("embedding failure aborts ingestion", func(t *testing.T) {
		store := mocks.NewMockRecipeStore()
		embedder := &mocks.MockEmbedder{Err: fmt.Errorf("%w: provider down", service.ErrEmbeddingService)}

		w := postRecipe(t, recipeRouter(store, embedder), CreateRecipeRequest{
			Title:       "Pancakes",
			Ingredients: []string{"flour"},
		})

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Empty(t, store.Recipes)
	})
}
