package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fridgechef/backend/internal/service"
)

// DefaultSuggestCount applies when the request omits count.
const DefaultSuggestCount = 5

// SuggestHandler serves ingredient-based recipe suggestions.
type SuggestHandler struct {
	suggester service.Suggester
	logger    *zap.Logger
}

// NewSuggestHandler creates a new SuggestHandler instance
func NewSuggestHandler(suggester service.Suggester, logger *zap.Logger) *SuggestHandler {
	return &SuggestHandler{suggester: suggester, logger: logger}
}

// RegisterRoutes registers the suggest endpoint on the given group.
func (h *SuggestHandler) RegisterRoutes(router *gin.RouterGroup, middlewares ...gin.HandlerFunc) {
	handlers := append(middlewares, h.Suggest)
	router.POST("/recipes/suggest", handlers...)
}

// Suggest handles POST /recipes/suggest.
func (h *SuggestHandler) Suggest(c *gin.Context) {
	var req SuggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Kind: KindInvalidInput})
		return
	}

	count := req.Count
	if count == 0 {
		count = DefaultSuggestCount
	}
	if count < 0 {
		writeServiceError(c, h.logger, fmt.Errorf("%w: count must be positive", service.ErrInvalidInput))
		return
	}

	suggestions, err := h.suggester.Suggest(c.Request.Context(), req.Ingredients, req.Tags, count)
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, SuggestResponse{Suggestions: suggestions})
}
