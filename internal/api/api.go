package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fridgechef/backend/internal/middleware"
	"github.com/fridgechef/backend/internal/service"
)

// Dependencies bundles everything the API surface needs. RateLimiter may be
// nil when Redis is not configured; the suggest endpoint then runs
// unthrottled.
type Dependencies struct {
	Suggester   service.Suggester
	Store       service.RecipeStore
	Embedder    service.Embedder
	Validator   middleware.TokenValidator
	RateLimiter *middleware.RateLimiter
	Logger      *zap.Logger
}

// SetupAPI registers all v1 routes on the router.
func SetupAPI(router *gin.Engine, deps Dependencies) {
	v1 := router.Group("/api/v1")
	{
		suggestHandler := NewSuggestHandler(deps.Suggester, deps.Logger)
		if deps.RateLimiter != nil {
			suggestHandler.RegisterRoutes(v1, deps.RateLimiter.RateLimitMiddleware())
		} else {
			suggestHandler.RegisterRoutes(v1)
		}

		recipeHandler := NewRecipeHandler(deps.Store, deps.Embedder, deps.Logger)
		recipeHandler.RegisterRoutes(v1, middleware.AuthMiddleware(deps.Validator))
	}
}
