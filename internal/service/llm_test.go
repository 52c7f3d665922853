package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fridgechef/backend/config"
)

func llmTestConfig(url string) config.LLMConfig {
	return config.LLMConfig{
		APIURL:      url,
		APIKey:      "test-key",
		Model:       "deepseek-chat",
		Temperature: 0.7,
		MaxTokens:   512,
		Timeout:     5 * time.Second,
		Retries:     3,
		RatePerSec:  100,
	}
}

func TestLLMService_Complete(t *testing.T) {
	t.Run("should return the first choice content", func(t *testing.T) {
		var gotReq chatRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
			resp := map[string]interface{}{
				"choices": []map[string]interface{}{
					{"message": map[string]string{"content": `{"title":"Adapted Pancakes"}`}},
				},
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(resp)
		}))
		defer server.Close()

		svc := NewLLMService(llmTestConfig(server.URL), zap.NewNop())
		content, err := svc.Complete(context.Background(), "system", "user", 0)
		require.NoError(t, err)
		assert.Equal(t, `{"title":"Adapted Pancakes"}`, content)

		require.Len(t, gotReq.Messages, 2)
		assert.Equal(t, "system", gotReq.Messages[0].Role)
		assert.Equal(t, "user", gotReq.Messages[1].Role)
		assert.Equal(t, "json_object", gotReq.ResponseFormat["type"])
		assert.Equal(t, 512, gotReq.MaxTokens)
	})

	t.Run("should retry on 5xx and succeed", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{
				"choices": []map[string]interface{}{
					{"message": map[string]string{"content": "ok"}},
				},
			})
		}))
		defer server.Close()

		svc := NewLLMService(llmTestConfig(server.URL), zap.NewNop())
		content, err := svc.Complete(context.Background(), "s", "u", 100)
		require.NoError(t, err)
		assert.Equal(t, "ok", content)
		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	})

	t.Run("should fail with ErrGeneration after exhausting retries", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		svc := NewLLMService(llmTestConfig(server.URL), zap.NewNop())
		_, err := svc.Complete(context.Background(), "s", "u", 100)
		assert.ErrorIs(t, err, ErrGeneration)
	})

	t.Run("should fail on empty choices", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
		}))
		defer server.Close()

		svc := NewLLMService(llmTestConfig(server.URL), zap.NewNop())
		_, err := svc.Complete(context.Background(), "s", "u", 100)
		assert.ErrorIs(t, err, ErrGeneration)
	})

	t.Run("should respect context cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{})
		}))
		defer server.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		svc := NewLLMService(llmTestConfig(server.URL), zap.NewNop())
		_, err := svc.Complete(ctx, "s", "u", 100)
		assert.ErrorIs(t, err, ErrGeneration)
	})
}
