package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/fridgechef/backend/config"
)

func TestPgVectorIndex_KFor(t *testing.T) {
	idx := NewPgVectorIndex(nil, config.RetrievalConfig{OverfetchFactor: 3, MinK: 10}, 3, zap.NewNop())

	t.Run("should overfetch by the configured factor", func(t *testing.T) {
		assert.Equal(t, 15, idx.KFor(5))
		assert.Equal(t, 60, idx.KFor(20))
	})

	t.Run("should never go below the floor", func(t *testing.T) {
		assert.Equal(t, 10, idx.KFor(1))
		assert.Equal(t, 10, idx.KFor(3))
	})
}

func TestPgVectorIndex_QueryTopK_InputValidation(t *testing.T) {
	idx := NewPgVectorIndex(nil, config.RetrievalConfig{OverfetchFactor: 3, MinK: 10}, 3, zap.NewNop())

	t.Run("should reject dimension mismatch before touching the index", func(t *testing.T) {
		_, err := idx.QueryTopK(context.Background(), []float32{1, 2}, 5, nil)
		assert.ErrorIs(t, err, ErrRetrieval)
	})

	t.Run("should reject non-positive k", func(t *testing.T) {
		_, err := idx.QueryTopK(context.Background(), []float32{1, 2, 3}, 0, nil)
		assert.ErrorIs(t, err, ErrRetrieval)
	})
}

func TestPgVectorIndex_Upsert_InputValidation(t *testing.T) {
	idx := NewPgVectorIndex(nil, config.RetrievalConfig{OverfetchFactor: 3, MinK: 10}, 3, zap.NewNop())

	t.Run("should reject dimension mismatch", func(t *testing.T) {
		err := idx.Upsert(context.Background(), uuid.Nil, []float32{1})
		assert.ErrorIs(t, err, ErrRetrieval)
	})
}
