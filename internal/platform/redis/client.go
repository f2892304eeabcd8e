// Package redis connects the result store, the job queue and the attempt
// limiter to one shared Redis.
package redis

import (
	"cmp"
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"idv/internal/platform/config"
)

type Client struct {
	*redis.Client
}

// New connects and pings within cfg.DialTimeout. An empty URL means Redis
// is not configured, and New returns a nil client and no error.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	// Settings in the URL win over zero values from the config file.
	opts.PoolSize = cmp.Or(cfg.PoolSize, opts.PoolSize)
	opts.MinIdleConns = cmp.Or(cfg.MinIdleConns, opts.MinIdleConns)
	opts.DialTimeout = cmp.Or(cfg.DialTimeout, opts.DialTimeout)
	opts.ReadTimeout = cmp.Or(cfg.ReadTimeout, opts.ReadTimeout)
	opts.WriteTimeout = cmp.Or(cfg.WriteTimeout, opts.WriteTimeout)

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, cmp.Or(opts.DialTimeout, 5*time.Second))
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Client{Client: client}, nil
}

// Health pings Redis. A nil client is healthy because Redis is optional.
func (c *Client) Health(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.Ping(ctx).Err()
}
