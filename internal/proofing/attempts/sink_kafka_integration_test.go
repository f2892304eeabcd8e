//go:build integration

package attempts_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"idv/internal/platform/config"
	"idv/internal/platform/kafka"
	"idv/internal/proofing/attempts"
	"idv/pkg/testutil/containers"
)

type KafkaSinkSuite struct {
	suite.Suite
	redpanda *containers.RedpandaContainer
	client   *kgo.Client
	sink     *attempts.KafkaSink
}

func TestKafkaSinkSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaSinkSuite))
}

const topic = "idv.attempts.test"

func (s *KafkaSinkSuite) SetupSuite() {
	s.redpanda = containers.GetManager().GetRedpanda(s.T())

	var err error
	s.client, err = kafka.New(config.KafkaConfig{Brokers: s.redpanda.Brokers, ClientID: "idv-test", AttemptsTopic: topic})
	s.Require().NoError(err)
	s.Require().NoError(kafka.EnsureTopics(context.Background(), s.client, 1, 1, topic))

	s.sink, err = attempts.NewKafkaSink(s.client)
	s.Require().NoError(err)
}

func (s *KafkaSinkSuite) TearDownSuite() {
	if s.client != nil {
		s.client.Close()
	}
}

func (s *KafkaSinkSuite) TestEmitIsConsumable() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.Require().NoError(s.sink.Emit(ctx, attempts.Event{
		ID:      "jti-1",
		Type:    attempts.EventVerificationSubmitted,
		UserID:  "user-1",
		Success: true,
	}))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.redpanda.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	s.Require().NoError(fetches.Err())

	var got attempts.Event
	fetches.EachRecord(func(r *kgo.Record) {
		_ = json.Unmarshal(r.Value, &got)
	})
	s.Equal("jti-1", got.ID)
	s.Equal(attempts.EventVerificationSubmitted, got.Type)
}
