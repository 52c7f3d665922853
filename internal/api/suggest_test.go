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

func suggestRouter(suggester service.Suggester) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewSuggestHandler(suggester, zap.NewNop())
	handler.RegisterRoutes(router.Group("/api/v1"))
	return router
}

func postSuggest(t *testing.T, router *gin.Engine, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/recipes/suggest", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestSuggestHandler_Suggest(t *testing.T) {
	t.Run("returns suggestions", func(t *testing.T) {
		suggester := &mocks.MockSuggester{
			Suggestions: []model.Suggestion{
				{RecipeID: uuid.New(), Title: "Pancakes", Ingredients: []string{"flour"}, Missing: []string{"sugar"}, Generated: true},
			},
		}
		w := postSuggest(t, suggestRouter(suggester), SuggestRequest{
			Ingredients: []string{"eggs", "milk", "flour"},
			Tags:        []string{"breakfast"},
			Count:       3,
		})

		assert.Equal(t, http.StatusOK, w.Code)
		var resp SuggestResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Suggestions, 1)
		assert.Equal(t, "Pancakes", resp.Suggestions[0].Title)
		assert.Equal(t, []string{"eggs", "milk", "flour"}, suggester.GotIngredients)
		assert.Equal(t, []string{"breakfast"}, suggester.GotTags)
		assert.Equal(t, 3, suggester.GotCount)
	})

	t.Run("defaults the count when omitted", func(t *testing.T) {
		suggester := &mocks.MockSuggester{Suggestions: []model.Suggestion{}}
		w := postSuggest(t, suggestRouter(suggester), SuggestRequest{Ingredients: []string{"eggs"}})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, DefaultSuggestCount, suggester.GotCount)
	})

	t.Run("rejects a missing ingredients field", func(t *testing.T) {
		suggester := &mocks.MockSuggester{}
		w := postSuggest(t, suggestRouter(suggester), map[string]interface{}{"count": 3})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Zero(t, suggester.Calls)
	})

	t.Run("rejects a negative count", func(t *testing.T) {
		suggester := &mocks.MockSuggester{}
		w := postSuggest(t, suggestRouter(suggester), SuggestRequest{Ingredients: []string{"eggs"}, Count: -1})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Zero(t, suggester.Calls)
	})

	t.Run("maps pipeline errors to status and kind", func(t *testing.T) {
		cases := []struct {
			name       string
			err        error
			wantStatus int
			wantKind   string
		}{
			{"invalid input", service.ErrInvalidInput, http.StatusBadRequest, KindInvalidInput},
			{"embedding down", fmt.Errorf("%w: provider 503", service.ErrEmbeddingService), http.StatusBadGateway, KindEmbeddingUnavailable},
			{"retrieval failed", fmt.Errorf("%w: bad conn", service.ErrRetrieval), http.StatusBadGateway, KindRetrievalFailed},
			{"store down", fmt.Errorf("%w: bad conn", service.ErrStoreUnavailable), http.StatusServiceUnavailable, KindStoreUnavailable},
			{"generation failed", fmt.Errorf("%w: all failed", service.ErrGeneration), http.StatusBadGateway, KindGenerationFailed},
			{"timeout", fmt.Errorf("%w: budget exceeded", service.ErrTimeout), http.StatusGatewayTimeout, KindTimeout},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				suggester := &mocks.MockSuggester{Err: tc.err}
				w := postSuggest(t, suggestRouter(suggester), SuggestRequest{Ingredients: []string{"eggs"}, Count: 3})

				assert.Equal(t, tc.wantStatus, w.Code)
				var resp ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, tc.wantKind, resp.Kind)
				// Provider internals must never leak to the client.
				assert.NotContains(t, resp.Error, "503")
				assert.NotContains(t, resp.Error, "bad conn")
			})
		}
	})
}
