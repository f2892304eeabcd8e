package asyncresult

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"idv/pkg/platform/sentinel"
)

// RedisKV keeps sealed records in Redis with native key expiry.
type RedisKV struct {
	client redis.Cmdable
}

func NewRedisKV(client redis.Cmdable) *RedisKV {
	return &RedisKV{client: client}
}

func (kv *RedisKV) SetEX(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return kv.client.Set(ctx, key, value, ttl).Err()
}

func (kv *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := kv.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	return b, err
}
