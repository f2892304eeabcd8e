package queue

import (
	"context"
	"time"

	"idv/pkg/platform/sentinel"
)

// MemoryQueue is a bounded in-process queue.
type MemoryQueue struct {
	ch chan Envelope
}

func NewMemoryQueue(capacity int) *MemoryQueue {
	if capacity <= 0 {
		capacity = 1024
	}
	return &MemoryQueue{ch: make(chan Envelope, capacity)}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, e Envelope) error {
	select {
	case q.ch <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context, wait time.Duration) (Envelope, error) {
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case e := <-q.ch:
		return e, nil
	case <-timer.C:
		return Envelope{}, sentinel.ErrNotFound
	case <-ctx.Done():
		return Envelope{}, ctx.Err()
	}
}

func (q *MemoryQueue) Len() int {
	return len(q.ch)
}
