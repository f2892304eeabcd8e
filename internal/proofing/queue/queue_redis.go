package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"idv/pkg/platform/sentinel"
)

// RedisQueue is a Redis list: LPUSH to enqueue, BRPOP to dequeue.
type RedisQueue struct {
	client redis.Cmdable
	key    string
}

func NewRedisQueue(client redis.Cmdable, name string) *RedisQueue {
	return &RedisQueue{client: client, key: "idv:queue:" + name}
}

func (q *RedisQueue) Enqueue(ctx context.Context, e Envelope) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, raw).Err(); err != nil {
		return fmt.Errorf("enqueue %s: %w", e.Kind, err)
	}
	return nil
}

func (q *RedisQueue) Dequeue(ctx context.Context, wait time.Duration) (Envelope, error) {
	res, err := q.client.BRPop(ctx, wait, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return Envelope{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Envelope{}, fmt.Errorf("dequeue: %w", err)
	}
	// BRPOP replies with [key, value].
	if len(res) != 2 {
		return Envelope{}, fmt.Errorf("dequeue: unexpected reply length %d", len(res))
	}
	var e Envelope
	if err := json.Unmarshal([]byte(res[1]), &e); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	return e, nil
}

// Len reports queued envelopes.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}
