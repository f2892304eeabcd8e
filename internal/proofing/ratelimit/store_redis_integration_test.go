//go:build integration

package ratelimit_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"idv/internal/proofing/ratelimit"
	"idv/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *ratelimit.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = ratelimit.NewRedisStore(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestWindow() {
	ctx := context.Background()

	for want := 1; want >= 0; want-- {
		res, err := s.store.Allow(ctx, "k", 2, time.Second)
		s.Require().NoError(err)
		s.True(res.Allowed)
		s.Equal(want, res.Remaining)
	}
	res, err := s.store.Allow(ctx, "k", 2, time.Second)
	s.Require().NoError(err)
	s.False(res.Allowed)

	s.Eventually(func() bool {
		res, err := s.store.Allow(ctx, "k", 2, time.Second)
		return err == nil && res.Allowed
	}, 5*time.Second, 100*time.Millisecond)
}

func (s *RedisStoreSuite) TestConcurrentAttemptsNeverOvershoot() {
	ctx := context.Background()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.store.Allow(ctx, "burst", 5, time.Minute)
			if err == nil && res.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	s.Equal(5, allowed)
}
