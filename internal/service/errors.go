package service

import "errors"

// Error taxonomy for the suggest pipeline. Handlers map these to HTTP
// responses; everything upstream wraps them with fmt.Errorf("...: %w", ...)
// so errors.Is keeps working across stages.
var (
	// ErrInvalidInput means the ingredient list normalized to nothing usable.
	// Rejected before any external call.
	ErrInvalidInput = errors.New("no usable ingredients in query")

	// ErrEmbeddingService means the embedding provider failed after retries.
	ErrEmbeddingService = errors.New("embedding service unavailable")

	// ErrRetrieval means the vector index was unreachable or returned
	// malformed data.
	ErrRetrieval = errors.New("vector index query failed")

	// ErrStoreUnavailable means the recipe store was entirely unreachable.
	// Partial misses are not an error.
	ErrStoreUnavailable = errors.New("recipe store unavailable")

	// ErrGeneration means candidate generation failed; per-candidate unless
	// every candidate failed under the drop policy.
	ErrGeneration = errors.New("recipe generation failed")

	// ErrTimeout means the request exceeded its end-to-end budget.
	ErrTimeout = errors.New("request timed out")
)
