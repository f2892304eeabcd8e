// Package costs records one ledger entry per executed vendor call, scoped to
// the vendor cost type and the service provider that initiated proofing.
package costs

import (
	"context"
	"log/slog"
	"time"
)

// Entry is one billable vendor call.
type Entry struct {
	CostType      string
	Issuer        string
	TransactionID string
	TraceID       string
	CreatedAt     time.Time
}

// Ledger persists entries. Implementations must be safe for concurrent inserts.
type Ledger interface {
	Append(ctx context.Context, e Entry) error
}

// Recorder is the fire-and-forget front of a Ledger used by vendor plugins:
// failures are logged and counted, never returned to the proofing flow.
type Recorder struct {
	ledger  Ledger
	logger  *slog.Logger
	onError func(costType string)
	now     func() time.Time
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

func WithLogger(logger *slog.Logger) RecorderOption {
	return func(r *Recorder) { r.logger = logger }
}

// WithErrorHook is called with the cost type whenever an append fails.
func WithErrorHook(fn func(costType string)) RecorderOption {
	return func(r *Recorder) { r.onError = fn }
}

func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) { r.now = now }
}

func NewRecorder(ledger Ledger, opts ...RecorderOption) *Recorder {
	r := &Recorder{ledger: ledger, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record appends e. A nil Recorder is a no-op.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	if r == nil || r.ledger == nil {
		return
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now()
	}
	if err := r.ledger.Append(ctx, e); err != nil {
		r.logger.WarnContext(ctx, "failed to record vendor cost",
			"cost_type", e.CostType,
			"issuer", e.Issuer,
			"trace_id", e.TraceID,
			"error", err,
		)
		if r.onError != nil {
			r.onError(e.CostType)
		}
	}
}
