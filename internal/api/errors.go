package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fridgechef/backend/internal/service"
)

// Machine-readable error kinds surfaced to clients.
const (
	KindInvalidInput         = "invalid_input"
	KindEmbeddingUnavailable = "embedding_unavailable"
	KindRetrievalFailed      = "retrieval_failed"
	KindStoreUnavailable     = "store_unavailable"
	KindGenerationFailed     = "generation_failed"
	KindTimeout              = "timeout"
	KindInternal             = "internal"
)

// writeServiceError maps a pipeline error onto an HTTP status and kind.
// Clients only ever see the kind and a generic message; the cause stays in
// the logs.
func writeServiceError(c *gin.Context, logger *zap.Logger, err error) {
	status, kind, message := http.StatusInternalServerError, KindInternal, "internal error"
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		status, kind, message = http.StatusBadRequest, KindInvalidInput, "invalid ingredient input"
	case errors.Is(err, service.ErrTimeout):
		status, kind, message = http.StatusGatewayTimeout, KindTimeout, "request timed out"
	case errors.Is(err, service.ErrEmbeddingService):
		status, kind, message = http.StatusBadGateway, KindEmbeddingUnavailable, "embedding provider unavailable"
	case errors.Is(err, service.ErrRetrieval):
		status, kind, message = http.StatusBadGateway, KindRetrievalFailed, "recipe search unavailable"
	case errors.Is(err, service.ErrStoreUnavailable):
		status, kind, message = http.StatusServiceUnavailable, KindStoreUnavailable, "recipe store unavailable"
	case errors.Is(err, service.ErrGeneration):
		status, kind, message = http.StatusBadGateway, KindGenerationFailed, "recipe generation unavailable"
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.String("kind", kind), zap.Error(err))
	}
	c.JSON(status, ErrorResponse{Error: message, Kind: kind})
}
