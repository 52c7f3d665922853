package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fridgechef/backend/internal/model"
	"github.com/fridgechef/backend/internal/service"
)

// RecipeHandler serves recipe detail lookups and single-recipe ingestion.
type RecipeHandler struct {
	store    service.RecipeStore
	embedder service.Embedder
	logger   *zap.Logger
}

// NewRecipeHandler creates a new RecipeHandler instance
func NewRecipeHandler(store service.RecipeStore, embedder service.Embedder, logger *zap.Logger) *RecipeHandler {
	return &RecipeHandler{store: store, embedder: embedder, logger: logger}
}

// RegisterRoutes registers recipe routes. authMiddleware guards ingestion.
func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	recipes := router.Group("/recipes")
	{
		recipes.GET("/:id", h.GetRecipe)
		recipes.POST("", authMiddleware, h.CreateRecipe)
	}
}

// GetRecipe handles GET /recipes/:id.
func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid recipe id", Kind: KindInvalidInput})
		return
	}

	recipe, err := h.store.GetRecipe(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "recipe not found", Kind: KindInvalidInput})
			return
		}
		writeServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, recipeResponse(recipe))
}

// CreateRecipe handles POST /recipes: it persists the record with its
// embedding so the new recipe is immediately searchable.
func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req CreateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Kind: KindInvalidInput})
		return
	}
	if len(req.Ingredients) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "ingredients are required", Kind: KindInvalidInput})
		return
	}

	recipe := &model.Recipe{
		Title:        req.Title,
		Description:  req.Description,
		Ingredients:  model.JSONBStringArray(req.Ingredients),
		Instructions: model.JSONBStringArray(req.Instructions),
		Tags:         model.JSONBStringArray(req.Tags),
		Source:       req.Source,
	}

	vectors, err := h.embedder.EmbedBatch(c.Request.Context(), []string{service.RecipeText(recipe)})
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}
	recipe.Embedding = pgvector.NewVector(vectors[0])

	if err := h.store.CreateRecipe(c.Request.Context(), recipe); err != nil {
		writeServiceError(c, h.logger, err)
		return
	}

	h.logger.Info("recipe ingested",
		zap.String("recipe_id", recipe.ID.String()),
		zap.String("title", recipe.Title),
	)
	c.JSON(http.StatusCreated, recipeResponse(recipe))
}
