package service

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fridgechef/backend/config"
)

// LLMService is the chat-completions client used for recipe generation. The
// provider is rate-limited on its side, so outbound calls also pass a local
// limiter before hitting the wire.
type LLMService struct {
	client  *resty.Client
	limiter *rate.Limiter
	cfg     config.LLMConfig
	logger  *zap.Logger
}

// chatMessage is one message in a chat-completions request.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	ResponseFormat map[string]string `json:"response_format"`
	Temperature    float64           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewLLMService creates a new LLMService instance
func NewLLMService(cfg config.LLMConfig, logger *zap.Logger) *LLMService {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries - 1).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(cfg.APIKey).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500 || r.StatusCode() == 429
		}).
		AddRetryHook(func(r *resty.Response, err error) {
			logger.Warn("retrying generation request",
				zap.String("stage", "generation"),
				zap.Int("attempt", r.Request.Attempt),
				zap.Error(err),
			)
		})

	burst := int(cfg.RatePerSec)
	if burst < 1 {
		burst = 1
	}

	return &LLMService{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), burst),
		cfg:     cfg,
		logger:  logger,
	}
}

// Complete sends one prompt pair and returns the model's text. The response
// format is pinned to a JSON object so callers can parse it directly.
func (s *LLMService) Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	if maxTokens <= 0 {
		maxTokens = s.cfg.MaxTokens
	}

	var out chatResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(chatRequest{
			Model: s.cfg.Model,
			Messages: []chatMessage{
				{Role: "system", Content: systemPrompt},
				{Role: "user", Content: userPrompt},
			},
			ResponseFormat: map[string]string{"type": "json_object"},
			Temperature:    s.cfg.Temperature,
			MaxTokens:      maxTokens,
		}).
		SetResult(&out).
		Post(s.cfg.APIURL)
	if err != nil {
		s.logger.Error("generation request failed",
			zap.String("stage", "generation"),
			zap.Error(err),
		)
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	if resp.IsError() {
		s.logger.Error("generation request rejected",
			zap.String("stage", "generation"),
			zap.Int("status", resp.StatusCode()),
		)
		return "", fmt.Errorf("%w: provider returned status %d", ErrGeneration, resp.StatusCode())
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in provider response", ErrGeneration)
	}

	return out.Choices[0].Message.Content, nil
}
