// Package server wires configuration, storage, and services into the HTTP
// server.
package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fridgechef/backend/config"
	"github.com/fridgechef/backend/internal/api"
	"github.com/fridgechef/backend/internal/database"
	"github.com/fridgechef/backend/internal/middleware"
	"github.com/fridgechef/backend/internal/service"
)

// Server is the HTTP server with all services wired in.
type Server struct {
	cfg    *config.Config
	router *gin.Engine
	http   *http.Server
	db     *gorm.DB
	redis  *redis.Client
	logger *zap.Logger
}

// New builds the service graph and registers all routes. redisClient may be
// nil; the server then runs without the embedding cache and rate limiting.
func New(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, logger *zap.Logger) *Server {
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	normalizer := service.NewNormalizer()
	embedder := service.NewEmbeddingService(cfg.Embedding, redisClient, logger)
	index := service.NewPgVectorIndex(db, cfg.Retrieval, cfg.Embedding.Dimensions, logger)
	store := service.NewRecipeStoreService(db, logger)
	ranker := service.NewRankingEngine(normalizer, cfg.Ranking)
	completer := service.NewLLMService(cfg.LLM, logger)
	orchestrator := service.NewGenerationOrchestrator(completer, cfg.Generate, logger)
	suggester := service.NewSuggestService(
		normalizer, embedder, index, store, ranker, orchestrator,
		cfg.Retrieval, cfg.Server.RequestTimeout, logger,
	)

	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled && redisClient != nil {
		rateLimiter = middleware.NewRateLimiter(redisClient, middleware.RateLimitConfig{
			Window: cfg.RateLimit.Window,
			Limit:  cfg.RateLimit.Limit,
		}, logger)
	}

	api.SetupAPI(router, api.Dependencies{
		Suggester:   suggester,
		Store:       store,
		Embedder:    embedder,
		Validator:   middleware.NewJWTValidator(cfg.Auth.JWTSecret),
		RateLimiter: rateLimiter,
		Logger:      logger,
	})

	s := &Server{
		cfg:    cfg,
		router: router,
		db:     db,
		redis:  redisClient,
		logger: logger,
	}
	router.GET("/health", s.health)
	return s
}

// Start begins serving and blocks until the listener stops.
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:         s.cfg.Server.Host + ":" + s.cfg.Server.Port,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	s.logger.Info("starting server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server, letting in-flight requests finish.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// Router exposes the configured handler, used by tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// health reports liveness plus dependency reachability.
func (s *Server) health(c *gin.Context) {
	status := http.StatusOK
	checks := gin.H{}

	if err := database.HealthCheck(c.Request.Context(), s.db); err != nil {
		checks["database"] = "unreachable"
		status = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	if s.redis != nil {
		if err := s.redis.Ping(c.Request.Context()).Err(); err != nil {
			checks["redis"] = "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			checks["redis"] = "ok"
		}
	}

	c.JSON(status, gin.H{"status": http.StatusText(status), "checks": checks})
}
