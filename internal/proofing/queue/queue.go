// Package queue carries proofing jobs from the API process to workers.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind selects the job handler.
type Kind string

const (
	KindResolutionProofing Kind = "resolution_proofing"
	KindShadowProofing     Kind = "socure_shadow_mode_proofing"
)

// Envelope is one queued job. EnqueuedAt drives the stale job check.
type Envelope struct {
	ID         string          `json:"id"`
	Kind       Kind            `json:"kind"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
	Payload    json.RawMessage `json:"payload"`
}

// NewEnvelope encodes payload for kind.
func NewEnvelope(kind Kind, payload any, now time.Time) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	return Envelope{ID: uuid.NewString(), Kind: kind, EnqueuedAt: now.UTC(), Payload: raw}, nil
}

// Decode unmarshals the payload into v.
func (e Envelope) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Kind, err)
	}
	return nil
}

// Queue is a FIFO of envelopes.
type Queue interface {
	Enqueue(ctx context.Context, e Envelope) error
	// Dequeue blocks up to wait and returns sentinel.ErrNotFound when nothing arrived.
	Dequeue(ctx context.Context, wait time.Duration) (Envelope, error)
}
