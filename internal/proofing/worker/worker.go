// Package worker consumes the proofing queue and dispatches each envelope to
// the runner registered for its kind.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"idv/internal/proofing/job"
	"idv/internal/proofing/queue"
	"idv/internal/proofing/shadow"
	"idv/pkg/platform/sentinel"
)

const requeueTimeout = 5 * time.Second

// HandlerFunc processes one envelope.
type HandlerFunc func(ctx context.Context, env queue.Envelope) error

// Pool runs a fixed number of consumers against one queue.
type Pool struct {
	queue       queue.Queue
	handlers    map[queue.Kind]HandlerFunc
	concurrency int
	wait        time.Duration
	logger      *slog.Logger
}

type Option func(*Pool)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) { p.logger = logger }
}

// WithConcurrency sets how many jobs run at once.
func WithConcurrency(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithPollWait bounds each blocking dequeue so shutdown is noticed promptly.
func WithPollWait(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.wait = d
		}
	}
}

func New(q queue.Queue, opts ...Option) (*Pool, error) {
	if q == nil {
		return nil, errors.New("worker: queue is required")
	}
	p := &Pool{
		queue:       q,
		handlers:    make(map[queue.Kind]HandlerFunc),
		concurrency: 1,
		wait:        2 * time.Second,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Handle registers fn for kind. It must be called before Run.
func (p *Pool) Handle(kind queue.Kind, fn HandlerFunc) {
	p.handlers[kind] = fn
}

// Run blocks until ctx is cancelled. Job failures are logged, never retried,
// and never stop the pool.
func (p *Pool) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.concurrency; i++ {
		g.Go(func() error { return p.consume(ctx) })
	}
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (p *Pool) consume(ctx context.Context) error {
	for {
		env, err := p.queue.Dequeue(ctx, p.wait)
		switch {
		case ctx.Err() != nil:
			if err == nil {
				p.requeue(ctx, env)
			}
			return ctx.Err()
		case errors.Is(err, sentinel.ErrNotFound):
			continue
		case err != nil:
			p.logger.ErrorContext(ctx, "dequeue failed", "error", err)
			if !sleep(ctx, p.wait) {
				return ctx.Err()
			}
			continue
		}
		p.dispatch(ctx, env)
	}
}

// requeue hands back an envelope that arrived as the pool was shutting down,
// so the next consumer picks it up instead of the job being lost.
func (p *Pool) requeue(ctx context.Context, env queue.Envelope) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), requeueTimeout)
	defer cancel()
	if err := p.queue.Enqueue(ctx, env); err != nil {
		p.logger.ErrorContext(ctx, "requeue on shutdown failed",
			"job_id", env.ID,
			"kind", string(env.Kind),
			"error", err,
		)
	}
}

// dispatch runs one envelope. Panics that escape a handler are contained here
// so one bad job cannot take a consumer down.
func (p *Pool) dispatch(ctx context.Context, env queue.Envelope) {
	handler, ok := p.handlers[env.Kind]
	if !ok {
		p.logger.WarnContext(ctx, "dropping job with unknown kind",
			"job_id", env.ID,
			"kind", string(env.Kind),
		)
		return
	}

	err := func() (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("worker: handler panicked: %v", rec)
			}
		}()
		return handler(ctx, env)
	}()

	switch {
	case err == nil:
	case errors.Is(err, job.ErrStaleJob), errors.Is(err, shadow.ErrPrimaryMissing):
		p.logger.DebugContext(ctx, "discarded job",
			"job_id", env.ID,
			"kind", string(env.Kind),
			"reason", err.Error(),
		)
	default:
		p.logger.ErrorContext(ctx, "job failed",
			"job_id", env.ID,
			"kind", string(env.Kind),
			"error", err,
		)
	}
}

// ProofingHandler decodes resolution proofing envelopes for r.
func ProofingHandler(r *job.Runner) HandlerFunc {
	return func(ctx context.Context, env queue.Envelope) error {
		var args job.Args
		if err := env.Decode(&args); err != nil {
			return fmt.Errorf("%w: %v", job.ErrInvalidArguments, err)
		}
		if args.EnqueuedAt.IsZero() {
			args.EnqueuedAt = env.EnqueuedAt
		}
		return r.Perform(ctx, args)
	}
}

// ShadowHandler decodes shadow-mode envelopes for r.
func ShadowHandler(r *shadow.Runner) HandlerFunc {
	return func(ctx context.Context, env queue.Envelope) error {
		var args shadow.Args
		if err := env.Decode(&args); err != nil {
			return fmt.Errorf("worker: decode shadow args: %w", err)
		}
		_, err := r.Perform(ctx, args)
		return err
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
