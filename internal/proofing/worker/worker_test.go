package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idv/internal/proofing/job"
	"idv/internal/proofing/queue"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func envelope(t *testing.T, kind queue.Kind) queue.Envelope {
	t.Helper()
	env, err := queue.NewEnvelope(kind, map[string]string{"result_id": "r-1"}, time.Now())
	require.NoError(t, err)
	return env
}

func startPool(t *testing.T, p *Pool) (cancel func()) {
	t.Helper()
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	return func() {
		stop()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("pool did not stop")
		}
	}
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestPoolDispatch(t *testing.T) {
	t.Run("routes by kind and survives failures", func(t *testing.T) {
		q := queue.NewMemoryQueue(8)
		p, err := New(q, WithLogger(quietLogger()), WithPollWait(10*time.Millisecond))
		require.NoError(t, err)

		seen := make(chan queue.Kind, 8)
		p.Handle(queue.KindResolutionProofing, func(_ context.Context, env queue.Envelope) error {
			seen <- env.Kind
			return job.ErrStaleJob
		})
		p.Handle(queue.KindShadowProofing, func(_ context.Context, env queue.Envelope) error {
			seen <- env.Kind
			panic("boom")
		})

		ctx := context.Background()
		require.NoError(t, q.Enqueue(ctx, envelope(t, "unknown")))
		require.NoError(t, q.Enqueue(ctx, envelope(t, queue.KindShadowProofing)))
		require.NoError(t, q.Enqueue(ctx, envelope(t, queue.KindResolutionProofing)))
		stop := startPool(t, p)
		defer stop()

		var got []queue.Kind
		for len(got) < 2 {
			select {
			case k := <-seen:
				got = append(got, k)
			case <-time.After(2 * time.Second):
				t.Fatalf("only saw %v", got)
			}
		}
		assert.ElementsMatch(t, []queue.Kind{queue.KindShadowProofing, queue.KindResolutionProofing}, got)
	})

	t.Run("runs jobs concurrently", func(t *testing.T) {
		q := queue.NewMemoryQueue(8)
		p, err := New(q, WithLogger(quietLogger()), WithConcurrency(2), WithPollWait(10*time.Millisecond))
		require.NoError(t, err)

		var wg sync.WaitGroup
		wg.Add(2)
		release := make(chan struct{})
		p.Handle(queue.KindResolutionProofing, func(context.Context, queue.Envelope) error {
			wg.Done()
			<-release
			return nil
		})

		ctx := context.Background()
		require.NoError(t, q.Enqueue(ctx, envelope(t, queue.KindResolutionProofing)))
		require.NoError(t, q.Enqueue(ctx, envelope(t, queue.KindResolutionProofing)))
		stop := startPool(t, p)

		started := make(chan struct{})
		go func() {
			wg.Wait()
			close(started)
		}()
		select {
		case <-started:
		case <-time.After(2 * time.Second):
			t.Fatal("jobs did not overlap")
		}
		close(release)
		stop()
	})
}

func TestProofingHandlerRejectsMalformedPayload(t *testing.T) {
	env := queue.Envelope{Kind: queue.KindResolutionProofing, Payload: json.RawMessage(`"not an object"`)}
	err := ProofingHandler(nil)(context.Background(), env)
	assert.True(t, errors.Is(err, job.ErrInvalidArguments))
}

// cancelOnDequeue stops the pool right as an envelope is handed out.
type cancelOnDequeue struct {
	*queue.MemoryQueue
	cancel context.CancelFunc
}

func (q *cancelOnDequeue) Dequeue(_ context.Context, wait time.Duration) (queue.Envelope, error) {
	env, err := q.MemoryQueue.Dequeue(context.Background(), wait)
	if err == nil {
		q.cancel()
	}
	return env, err
}

func TestShutdownRequeue(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := &cancelOnDequeue{MemoryQueue: queue.NewMemoryQueue(4), cancel: cancel}
	env := envelope(t, queue.KindResolutionProofing)
	require.NoError(t, q.Enqueue(context.Background(), env))

	p, err := New(q, WithLogger(quietLogger()), WithPollWait(10*time.Millisecond))
	require.NoError(t, err)
	called := false
	p.Handle(queue.KindResolutionProofing, func(context.Context, queue.Envelope) error {
		called = true
		return nil
	})

	require.NoError(t, p.Run(ctx))

	assert.False(t, called)
	require.Equal(t, 1, q.Len())
	back, err := q.MemoryQueue.Dequeue(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, env.ID, back.ID)
}
