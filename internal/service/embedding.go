package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/fridgechef/backend/config"
	"github.com/fridgechef/backend/internal/model"
)

// EmbeddingService calls an OpenAI-compatible embeddings endpoint. Query
// embeddings are cached in Redis keyed by the canonical query text, so the
// same token set never pays for the same vector twice.
type EmbeddingService struct {
	client  *resty.Client
	breaker *gobreaker.CircuitBreaker[[][]float32]
	cfg     config.EmbeddingConfig
	redis   *redis.Client
	logger  *zap.Logger
}

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// NewEmbeddingService creates a new EmbeddingService instance. redisClient
// may be nil, which disables caching.
func NewEmbeddingService(cfg config.EmbeddingConfig, redisClient *redis.Client, logger *zap.Logger) *EmbeddingService {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries - 1).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(cfg.APIKey).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500 || r.StatusCode() == 429
		}).
		AddRetryHook(func(r *resty.Response, err error) {
			logger.Warn("retrying embedding request",
				zap.String("stage", "embedding"),
				zap.Int("attempt", r.Request.Attempt),
				zap.Error(err),
			)
		})

	breaker := gobreaker.NewCircuitBreaker[[][]float32](gobreaker.Settings{
		Name: "embedding-provider",
	})

	return &EmbeddingService{
		client:  client,
		breaker: breaker,
		cfg:     cfg,
		redis:   redisClient,
		logger:  logger,
	}
}

// QueryText builds the deterministic search text for a normalized token set.
// Tokens are joined in canonical sort order so the same set always yields the
// same text, and therefore the same cache key.
func QueryText(tokens []string) string {
	sorted := make([]string, len(tokens))
	copy(sorted, tokens)
	sort.Strings(sorted)
	return "recipe with ingredients: " + strings.Join(sorted, " ") + " cooking meal food dish"
}

// RecipeText is the canonical document text a stored recipe is embedded
// under. Ingestion and re-indexing must agree on this byte-for-byte or
// vectors drift between writers.
func RecipeText(r *model.Recipe) string {
	var b strings.Builder
	b.WriteString(r.Title)
	b.WriteString("\nIngredients: ")
	b.WriteString(strings.Join(r.Ingredients, ", "))
	if len(r.Instructions) > 0 {
		b.WriteString("\nInstructions: ")
		b.WriteString(strings.Join(r.Instructions, " "))
	}
	return b.String()
}

// EmbedQuery embeds a normalized ingredient query, consulting the cache
// first. A provider failure after retries is fatal for the whole request.
func (s *EmbeddingService) EmbedQuery(ctx context.Context, tokens []string) ([]float32, error) {
	text := QueryText(tokens)
	key := s.cacheKey(text)

	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, key).Bytes(); err == nil {
			var vec []float32
			if err := json.Unmarshal(cached, &vec); err == nil && len(vec) == s.cfg.Dimensions {
				return vec, nil
			}
		}
	}

	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	vec := vectors[0]

	if s.redis != nil {
		if data, err := json.Marshal(vec); err == nil {
			if err := s.redis.Set(ctx, key, data, s.cfg.CacheTTL).Err(); err != nil {
				s.logger.Warn("failed to cache query embedding", zap.Error(err))
			}
		}
	}

	return vec, nil
}

// EmbedBatch embeds the given texts, preserving input order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors, err := s.breaker.Execute(func() ([][]float32, error) {
		return s.embed(ctx, texts)
	})
	if err != nil {
		s.logger.Error("embedding request failed",
			zap.String("stage", "embedding"),
			zap.Int("texts", len(texts)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingService, err)
	}
	return vectors, nil
}

func (s *EmbeddingService) embed(ctx context.Context, texts []string) ([][]float32, error) {
	var out embeddingResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(embeddingRequest{
			Model:      s.cfg.Model,
			Input:      texts,
			Dimensions: s.cfg.Dimensions,
		}).
		SetResult(&out).
		Post(s.cfg.APIURL)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("provider returned status %d", resp.StatusCode())
	}
	if len(out.Data) != len(texts) {
		return nil, fmt.Errorf("provider returned %d embeddings for %d inputs", len(out.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range out.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("provider returned out-of-range index %d", d.Index)
		}
		if len(d.Embedding) != s.cfg.Dimensions {
			return nil, fmt.Errorf("provider returned %d-dimensional vector, want %d", len(d.Embedding), s.cfg.Dimensions)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

func (s *EmbeddingService) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(s.cfg.Model + ":" + text))
	return "embedding:query:" + hex.EncodeToString(sum[:])
}
