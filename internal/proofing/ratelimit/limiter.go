// Package ratelimit caps how many resolution attempts one user may submit
// inside a sliding window.
package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// LimiterType names the limiter in logs and attempt events.
const LimiterType = "idv_resolution"

// Result is the outcome of one attempt check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is how long a denied caller should wait, rounded up to a second.
func (r *Result) RetryAfter(now time.Time) time.Duration {
	if r == nil || r.Allowed || !r.ResetAt.After(now) {
		return 0
	}
	return r.ResetAt.Sub(now).Round(time.Second) + time.Second
}

// Store counts attempts per key. Allow records the attempt only when it is
// within limit.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}

// Limiter applies one attempt budget to every user.
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
	logger *slog.Logger
}

type Option func(*Limiter)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) { l.logger = logger }
}

func New(store Store, limit int, window time.Duration, opts ...Option) (*Limiter, error) {
	if store == nil {
		return nil, errors.New("ratelimit: store is required")
	}
	if limit <= 0 || window <= 0 {
		return nil, errors.New("ratelimit: limit and window must be positive")
	}
	l := &Limiter{store: store, limit: limit, window: window, logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Attempt records one attempt for userID. A nil Limiter allows everything.
// Store failures fail open: the attempt is allowed and the error returned
// so the caller can log it.
func (l *Limiter) Attempt(ctx context.Context, userID string) (*Result, error) {
	if l == nil {
		return &Result{Allowed: true}, nil
	}
	res, err := l.store.Allow(ctx, key(userID), l.limit, l.window)
	if err != nil {
		return &Result{Allowed: true, Limit: l.limit}, err
	}
	if !res.Allowed {
		l.logger.WarnContext(ctx, "proofing attempts exhausted",
			"user_id", userID,
			"limiter_type", LimiterType,
			"reset_at", res.ResetAt,
		)
	}
	return res, nil
}

func key(userID string) string {
	return "ratelimit:" + LimiterType + ":" + userID
}
