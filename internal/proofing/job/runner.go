// Package job runs one asynchronous resolution proofing attempt: decrypt the
// arguments, proof, check SSN uniqueness and always leave a terminal record
// for the poller.
package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"idv/internal/proofing/attempts"
	"idv/internal/proofing/metrics"
	"idv/internal/proofing/pii"
	"idv/internal/proofing/plugins"
	"idv/internal/proofing/queue"
	"idv/internal/proofing/resolution"
	"idv/internal/proofing/shadow"
	"idv/internal/proofing/timer"
	"idv/internal/proofing/vendors"
)

var (
	// ErrStaleJob is returned for jobs that waited in the queue too long.
	// They are discarded, never retried.
	ErrStaleJob = errors.New("job: stale proofing job")
	// ErrInvalidArguments means the encrypted arguments could not be used.
	ErrInvalidArguments = errors.New("job: invalid proofing arguments")
	// ErrJobPanic wraps a panic recovered while proofing.
	ErrJobPanic = errors.New("job: proofing panicked")
)

// Args is the queued payload of one proofing job.
type Args struct {
	ResultID                string         `json:"result_id"`
	EncryptedArguments      string         `json:"encrypted_arguments"`
	DecryptionContext       string         `json:"decryption_context"`
	TraceID                 string         `json:"trace_id"`
	IPPEnrollmentInProgress bool           `json:"ipp_enrollment_in_progress"`
	ProofingVendor          vendors.Family `json:"proofing_vendor"`
	UserID                  string         `json:"user_id,omitempty"`
	ServiceProvider         string         `json:"service_provider_issuer,omitempty"`
	ThreatMetrixSessionID   string         `json:"threatmetrix_session_id,omitempty"`
	RequestIP               string         `json:"request_ip,omitempty"`
	UserAgent               string         `json:"user_agent,omitempty"`
	DocumentCheckVendor     string         `json:"document_check_vendor,omitempty"`
	EnqueuedAt              time.Time      `json:"enqueued_at"`
}

// Proofer runs the vendor plugins.
type Proofer interface {
	Proof(ctx context.Context, req resolution.Request) (*resolution.AdjudicatedResult, error)
}

// ResultStore receives the terminal record.
type ResultStore interface {
	StoreDone(ctx context.Context, id string, result *resolution.AdjudicatedResult) error
}

// SSNChecker reports whether the SSN belongs to no other user.
type SSNChecker interface {
	IsUnique(ctx context.Context, ssn, userID string) (bool, error)
}

// Decryptor opens the proofing arguments.
type Decryptor interface {
	Decrypt(ciphertext, context string) ([]byte, error)
}

// ShadowPolicy decides whether to enqueue a shadow-mode comparison.
type ShadowPolicy interface {
	ShouldEnqueue(userID, documentCheckVendor string) bool
}

// Runner executes proofing jobs. It holds no per-job state.
type Runner struct {
	proofer   Proofer
	store     ResultStore
	decryptor Decryptor
	ssn       SSNChecker

	shadowPolicy ShadowPolicy
	shadowQueue  queue.Queue
	attempts     attempts.Sink

	staleAfter time.Duration
	now        func() time.Time
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// Option configures a Runner.
type Option func(*Runner)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithStaleThreshold discards jobs that waited longer than d. Zero disables the check.
func WithStaleThreshold(d time.Duration) Option {
	return func(r *Runner) { r.staleAfter = d }
}

// WithShadowMode enqueues shadow jobs on q when policy allows.
func WithShadowMode(policy ShadowPolicy, q queue.Queue) Option {
	return func(r *Runner) {
		r.shadowPolicy = policy
		r.shadowQueue = q
	}
}

// WithAttemptsSink emits attempt events after every job.
func WithAttemptsSink(sink attempts.Sink) Option {
	return func(r *Runner) { r.attempts = sink }
}

func New(proofer Proofer, store ResultStore, decryptor Decryptor, ssn SSNChecker, opts ...Option) (*Runner, error) {
	if proofer == nil {
		return nil, errors.New("job: proofer is required")
	}
	if store == nil {
		return nil, errors.New("job: result store is required")
	}
	if decryptor == nil {
		return nil, errors.New("job: decryptor is required")
	}
	if ssn == nil {
		return nil, errors.New("job: ssn checker is required")
	}
	r := &Runner{
		proofer:    proofer,
		store:      store,
		decryptor:  decryptor,
		ssn:        ssn,
		staleAfter: 5 * time.Minute,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Perform runs one job. Once the arguments decrypt, a terminal record is
// written on every exit path, including panics.
func (r *Runner) Perform(ctx context.Context, args Args) (err error) {
	start := r.now()

	if r.staleAfter > 0 && !args.EnqueuedAt.IsZero() && start.Sub(args.EnqueuedAt) > r.staleAfter {
		r.logger.DebugContext(ctx, "discarding stale proofing job",
			"result_id", args.ResultID,
			"trace_id", args.TraceID,
			"enqueued_at", args.EnqueuedAt,
		)
		r.metrics.IncrementJob("stale")
		return ErrStaleJob
	}

	applicant, err := r.decrypt(args)
	if err != nil {
		r.logger.ErrorContext(ctx, "unusable proofing arguments",
			"result_id", args.ResultID,
			"trace_id", args.TraceID,
			"error", err,
		)
		r.metrics.IncrementJob("invalid")
		return err
	}
	applicant.UUID = args.UserID

	t := timer.New()
	var result *resolution.AdjudicatedResult

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrJobPanic, rec)
		}
		r.finish(ctx, args, applicant.StateIDJurisdiction, start, t, result, err, &err)
	}()

	result, err = r.proofer.Proof(ctx, resolution.Request{
		Applicant:               applicant,
		ThreatMetrixSessionID:   args.ThreatMetrixSessionID,
		RequestIP:               args.RequestIP,
		UserAgent:               args.UserAgent,
		IPPEnrollmentInProgress: args.IPPEnrollmentInProgress,
		ServiceProvider:         args.ServiceProvider,
		TraceID:                 args.TraceID,
		Timer:                   t,
		Vendor:                  args.ProofingVendor,
	})
	if result == nil {
		result = &resolution.AdjudicatedResult{
			IPPEnrollmentInProgress: args.IPPEnrollmentInProgress,
			ProofingVendor:          args.ProofingVendor,
		}
	}
	r.logThreatMetrix(ctx, args, result.DeviceProfilingResult)

	unique, ssnErr := r.ssn.IsUnique(ctx, applicant.SSN, args.UserID)
	if ssnErr != nil {
		err = errors.Join(err, fmt.Errorf("check ssn uniqueness: %w", ssnErr))
	}
	result.SSNIsUnique = unique
	return err
}

func (r *Runner) decrypt(args Args) (pii.Applicant, error) {
	plaintext, err := r.decryptor.Decrypt(args.EncryptedArguments, args.DecryptionContext)
	if err != nil {
		return pii.Applicant{}, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	applicant, err := pii.DecodeApplicant(plaintext)
	if err != nil {
		return pii.Applicant{}, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return applicant, nil
}

// finish is the guaranteed tail of Perform. It runs on a context detached
// from cancellation so shutdown cannot strand the poller.
func (r *Runner) finish(
	ctx context.Context,
	args Args,
	jurisdiction string,
	start time.Time,
	t *timer.Timer,
	result *resolution.AdjudicatedResult,
	runErr error,
	errOut *error,
) {
	ctx = context.WithoutCancel(ctx)

	if result == nil {
		result = &resolution.AdjudicatedResult{
			IPPEnrollmentInProgress: args.IPPEnrollmentInProgress,
			ProofingVendor:          args.ProofingVendor,
		}
	}
	if runErr != nil {
		result.Incomplete = true
	}
	if result.Timing == nil {
		result.Timing = t.Results()
	}

	if storeErr := r.store.StoreDone(ctx, args.ResultID, result); storeErr != nil {
		*errOut = errors.Join(*errOut, fmt.Errorf("store proofing result: %w", storeErr))
		r.logger.ErrorContext(ctx, "failed to store proofing result",
			"result_id", args.ResultID,
			"trace_id", args.TraceID,
			"error", storeErr,
		)
	}

	decision := result.Adjudicate()
	r.logSummary(ctx, args, result, t)
	r.emitAttempts(ctx, args, jurisdiction, result, decision)
	r.maybeEnqueueShadow(ctx, args)

	status := "succeeded"
	if *errOut != nil {
		status = "failed"
	}
	r.metrics.IncrementJob(status)
	r.metrics.IncrementOutcome(decision.Success)
	r.metrics.ObserveJobDuration(r.now().Sub(start))
}

func (r *Runner) logSummary(ctx context.Context, args Args, result *resolution.AdjudicatedResult, t *timer.Timer) {
	r.logger.InfoContext(ctx, "ProofResolution",
		"proofing_vendor", string(result.ProofingVendor),
		"trace_id", args.TraceID,
		"resolution_success", successOf(result.ResolutionResult),
		"residential_resolution_success", successOf(result.ResidentialResolutionResult),
		"state_id_success", successOf(result.StateIDResult),
		"device_profiling_success", successOf(result.DeviceProfilingResult),
		"ssn_is_unique", result.SSNIsUnique,
		"exceptions", result.Exceptions(),
		"timing", t.Results(),
		"user_id", args.UserID,
	)
}

func (r *Runner) logThreatMetrix(ctx context.Context, args Args, device *vendors.Result) {
	if device == nil {
		return
	}
	r.logger.InfoContext(ctx, "ThreatMetrix",
		"user_id", args.UserID,
		"threatmetrix_request_id", device.TransactionID,
		"threatmetrix_success", device.Success,
	)
}

func (r *Runner) emitAttempts(ctx context.Context, args Args, jurisdiction string, result *resolution.AdjudicatedResult, decision resolution.Decision) {
	if r.attempts == nil {
		return
	}
	c := attempts.Context{
		UserID:          args.UserID,
		ServiceProvider: args.ServiceProvider,
		TraceID:         args.TraceID,
		RequestIP:       args.RequestIP,
		UserAgent:       args.UserAgent,
		OccurredAt:      r.now().UTC(),
	}

	events := []attempts.Event{
		attempts.VerificationSubmitted(c, decision.Success, jurisdiction,
			result.ResidentialResolutionResult, result.ResolutionResult, result.StateIDResult),
	}
	if device := result.DeviceProfilingResult; device != nil && device.VendorName != plugins.DeviceProfilingDisabled {
		events = append(events, attempts.DeviceRiskAssessment(c, device, device.DeviceFingerprint))
	}
	for _, e := range events {
		if err := r.attempts.Emit(ctx, e); err != nil {
			r.logger.WarnContext(ctx, "failed to emit attempt event",
				"event_type", e.Type,
				"trace_id", args.TraceID,
				"error", err,
			)
		}
	}
}

func (r *Runner) maybeEnqueueShadow(ctx context.Context, args Args) {
	if r.shadowPolicy == nil || r.shadowQueue == nil {
		return
	}
	if !r.shadowPolicy.ShouldEnqueue(args.UserID, args.DocumentCheckVendor) {
		return
	}
	env, err := queue.NewEnvelope(queue.KindShadowProofing, shadow.Args{
		ResultID:           args.ResultID,
		EncryptedArguments: args.EncryptedArguments,
		DecryptionContext:  args.DecryptionContext,
		ServiceProvider:    args.ServiceProvider,
		UserID:             args.UserID,
		TraceID:            args.TraceID,
	}, r.now())
	if err == nil {
		err = r.shadowQueue.Enqueue(ctx, env)
	}
	if err != nil {
		r.logger.WarnContext(ctx, "failed to enqueue shadow mode job",
			"result_id", args.ResultID,
			"trace_id", args.TraceID,
			"error", err,
		)
		return
	}
	r.metrics.IncrementShadowEnqueued()
}

func successOf(r *vendors.Result) any {
	if r == nil {
		return nil
	}
	return r.Success
}
