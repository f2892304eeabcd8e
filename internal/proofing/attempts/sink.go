package attempts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Sink accepts attempt events.
type Sink interface {
	Emit(ctx context.Context, e Event) error
}

type producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// KafkaSink produces events keyed by user so one user's events stay ordered.
type KafkaSink struct {
	client producer
	topic  string
	logger *slog.Logger
}

// KafkaOption configures a KafkaSink.
type KafkaOption func(*KafkaSink)

func WithLogger(logger *slog.Logger) KafkaOption {
	return func(s *KafkaSink) { s.logger = logger }
}

// WithTopic overrides the client's default produce topic.
func WithTopic(topic string) KafkaOption {
	return func(s *KafkaSink) { s.topic = topic }
}

func NewKafkaSink(client *kgo.Client, opts ...KafkaOption) (*KafkaSink, error) {
	if client == nil {
		return nil, errors.New("attempts: kafka client is required")
	}
	return newKafkaSink(client, opts...), nil
}

func newKafkaSink(client producer, opts ...KafkaOption) *KafkaSink {
	s := &KafkaSink{client: client, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *KafkaSink) Emit(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode attempt event: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(e.UserID),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(e.Type)},
			{Key: "issuer", Value: []byte(e.ServiceProvider)},
		},
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		s.logger.WarnContext(ctx, "failed to produce attempt event",
			"event_type", e.Type,
			"trace_id", e.TraceID,
			"error", err,
		)
		return fmt.Errorf("produce attempt event: %w", err)
	}
	return nil
}

// MemorySink keeps events in process for development and tests.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Emit(_ context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

// Events returns a copy of everything emitted so far.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

// ByType filters emitted events.
func (s *MemorySink) ByType(eventType string) []Event {
	var out []Event
	for _, e := range s.Events() {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
