//go:build integration

package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"idv/internal/proofing/queue"
	"idv/pkg/platform/sentinel"
	"idv/pkg/testutil/containers"
)

type RedisQueueSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	queue *queue.RedisQueue
}

func TestRedisQueueSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisQueueSuite))
}

func (s *RedisQueueSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.queue = queue.NewRedisQueue(s.redis.Client, "test")
}

func (s *RedisQueueSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisQueueSuite) TestFIFO() {
	ctx := context.Background()
	for _, id := range []string{"first", "second"} {
		e, err := queue.NewEnvelope(queue.KindResolutionProofing, map[string]string{"id": id}, time.Now())
		s.Require().NoError(err)
		e.ID = id
		s.Require().NoError(s.queue.Enqueue(ctx, e))
	}

	n, err := s.queue.Len(ctx)
	s.Require().NoError(err)
	s.Equal(int64(2), n)

	got, err := s.queue.Dequeue(ctx, time.Second)
	s.Require().NoError(err)
	s.Equal("first", got.ID)
	s.Equal(queue.KindResolutionProofing, got.Kind)
}

func (s *RedisQueueSuite) TestEmpty() {
	_, err := s.queue.Dequeue(context.Background(), time.Second)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
