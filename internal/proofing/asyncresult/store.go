// Package asyncresult bridges a background proofing job and a later poll
// from another process. Records are sealed before they reach the substrate
// and expire with it.
package asyncresult

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"idv/internal/proofing/resolution"
	"idv/pkg/platform/aead"
	"idv/pkg/platform/sentinel"
)

// KeyPrefix namespaces result records in the substrate.
const KeyPrefix = "idv:proofing_result:"

const sealInfo = "idv.proofing.async_result.v1"

// Status of a stored record.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// Record is one stored proofing result.
type Record struct {
	ID        string                        `json:"-"`
	Status    Status                        `json:"status"`
	Result    *resolution.AdjudicatedResult `json:"result,omitempty"`
	ExpiresAt time.Time                     `json:"expires_at"`
}

// Done reports whether the job has written its terminal record.
func (r *Record) Done() bool {
	return r != nil && r.Status == StatusDone
}

// KV is the expiring byte store underneath the result store.
type KV interface {
	SetEX(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Get returns sentinel.ErrNotFound for missing or expired keys.
	Get(ctx context.Context, key string) ([]byte, error)
}

// Store seals records with the result id bound as associated data.
type Store struct {
	kv     KV
	sealer *aead.Sealer
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets how long records stay readable. Both writes reset the expiry.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

func New(kv KV, secret []byte, opts ...Option) (*Store, error) {
	if kv == nil {
		return nil, errors.New("asyncresult: kv is required")
	}
	sealer, err := aead.New(secret, sealInfo)
	if err != nil {
		return nil, fmt.Errorf("asyncresult: %w", err)
	}
	s := &Store{
		kv:     kv,
		sealer: sealer,
		ttl:    5 * time.Minute,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreateInProgress writes the placeholder a poller sees until the job finishes.
func (s *Store) CreateInProgress(ctx context.Context, id string) error {
	return s.write(ctx, Record{ID: id, Status: StatusInProgress})
}

// StoreDone overwrites the record with the terminal result.
func (s *Store) StoreDone(ctx context.Context, id string, result *resolution.AdjudicatedResult) error {
	return s.write(ctx, Record{ID: id, Status: StatusDone, Result: result})
}

// Load returns the record for id. Unknown, expired and unreadable records all
// yield sentinel.ErrNotFound so a poller never sees partial data.
func (s *Store) Load(ctx context.Context, id string) (*Record, error) {
	if id == "" {
		return nil, sentinel.ErrNotFound
	}
	sealed, err := s.kv.Get(ctx, KeyPrefix+id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("load proofing result: %w", err)
	}

	plaintext, err := s.sealer.Open(sealed, []byte(id))
	if err != nil {
		s.logger.WarnContext(ctx, "discarding unreadable proofing result", "result_id", id)
		return nil, sentinel.ErrNotFound
	}

	var rec Record
	if err := json.Unmarshal(plaintext, &rec); err != nil {
		s.logger.WarnContext(ctx, "discarding malformed proofing result", "result_id", id)
		return nil, sentinel.ErrNotFound
	}
	if !rec.ExpiresAt.IsZero() && !s.now().Before(rec.ExpiresAt) {
		return nil, sentinel.ErrNotFound
	}
	rec.ID = id
	return &rec, nil
}

func (s *Store) write(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		return errors.New("asyncresult: result id is required")
	}
	rec.ExpiresAt = s.now().Add(s.ttl)

	plaintext, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode proofing result: %w", err)
	}
	sealed, err := s.sealer.Seal(plaintext, []byte(rec.ID))
	if err != nil {
		return fmt.Errorf("seal proofing result: %w", err)
	}
	if err := s.kv.SetEX(ctx, KeyPrefix+rec.ID, sealed, s.ttl); err != nil {
		return fmt.Errorf("store proofing result: %w", err)
	}
	return nil
}
