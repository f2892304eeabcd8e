package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idv/internal/platform/config"
)

func TestNew(t *testing.T) {
	t.Run("unconfigured is nil and healthy", func(t *testing.T) {
		c, err := New(context.Background(), config.RedisConfig{})
		require.NoError(t, err)
		assert.Nil(t, c)
		assert.NoError(t, c.Health(context.Background()))
	})

	t.Run("malformed url", func(t *testing.T) {
		_, err := New(context.Background(), config.RedisConfig{URL: "http://not-redis"})
		assert.ErrorContains(t, err, "parse redis url")
	})

	t.Run("unreachable server", func(t *testing.T) {
		_, err := New(context.Background(), config.RedisConfig{
			URL:         "redis://127.0.0.1:1/0",
			DialTimeout: 200 * time.Millisecond,
		})
		assert.ErrorContains(t, err, "ping redis")
	})
}
