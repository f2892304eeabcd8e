package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idv/pkg/platform/sentinel"
)

type payload struct {
	ResultID string `json:"result_id"`
}

func TestEnvelope(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e, err := NewEnvelope(KindResolutionProofing, payload{ResultID: "r-1"}, now)
	require.NoError(t, err)

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, now, e.EnqueuedAt)

	var p payload
	require.NoError(t, e.Decode(&p))
	assert.Equal(t, "r-1", p.ResultID)
}

func TestMemoryQueue(t *testing.T) {
	ctx := context.Background()

	t.Run("fifo", func(t *testing.T) {
		q := NewMemoryQueue(4)
		for _, id := range []string{"a", "b"} {
			require.NoError(t, q.Enqueue(ctx, Envelope{ID: id}))
		}
		first, err := q.Dequeue(ctx, time.Second)
		require.NoError(t, err)
		second, err := q.Dequeue(ctx, time.Second)
		require.NoError(t, err)
		assert.Equal(t, "a", first.ID)
		assert.Equal(t, "b", second.ID)
	})

	t.Run("empty queue times out as not found", func(t *testing.T) {
		q := NewMemoryQueue(1)
		_, err := q.Dequeue(ctx, 10*time.Millisecond)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("cancelled context", func(t *testing.T) {
		q := NewMemoryQueue(1)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := q.Dequeue(cctx, time.Second)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
