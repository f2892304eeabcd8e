// Package service is the caller-facing side of asynchronous proofing: it
// seals the applicant, creates the in-progress record, enqueues the job and
// answers polls.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"idv/internal/proofing/asyncresult"
	"idv/internal/proofing/attempts"
	"idv/internal/proofing/job"
	"idv/internal/proofing/pii"
	"idv/internal/proofing/queue"
	"idv/internal/proofing/ratelimit"
	"idv/internal/proofing/resolution"
	"idv/internal/proofing/vendors"
	dErrors "idv/pkg/domain-errors"
	"idv/pkg/platform/sentinel"
	"idv/pkg/requestcontext"
)

// ResultStore is the slice of asyncresult.Store the service needs.
type ResultStore interface {
	CreateInProgress(ctx context.Context, id string) error
	Load(ctx context.Context, id string) (*asyncresult.Record, error)
}

// Encryptor seals applicant PII bound to the result id.
type Encryptor interface {
	EncryptApplicant(a pii.Applicant, context string) (string, error)
}

// RateLimiter records one resolution attempt per call.
type RateLimiter interface {
	Attempt(ctx context.Context, userID string) (*ratelimit.Result, error)
}

// EnqueueRequest is one proofing submission.
type EnqueueRequest struct {
	Applicant               pii.Applicant
	UserID                  string
	ServiceProvider         string
	ThreatMetrixSessionID   string
	IPPEnrollmentInProgress bool
	ProofingVendor          string
	DocumentCheckVendor     string
}

// PollResponse is what a poller sees. Success and Reasons are set once Status is done.
type PollResponse struct {
	Status  asyncresult.Status      `json:"status"`
	Success *bool                   `json:"success,omitempty"`
	Reasons []resolution.ReasonCode `json:"reasons,omitempty"`
}

type Service struct {
	results   ResultStore
	queue     queue.Queue
	encryptor Encryptor
	limiter   RateLimiter
	attempts  attempts.Sink
	logger    *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithRateLimiter caps resolution attempts per user.
func WithRateLimiter(l RateLimiter) Option {
	return func(s *Service) { s.limiter = l }
}

// WithAttemptsSink publishes an event when a user is rate limited.
func WithAttemptsSink(sink attempts.Sink) Option {
	return func(s *Service) { s.attempts = sink }
}

func New(results ResultStore, q queue.Queue, encryptor Encryptor, opts ...Option) (*Service, error) {
	if results == nil {
		return nil, errors.New("service: result store is required")
	}
	if q == nil {
		return nil, errors.New("service: queue is required")
	}
	if encryptor == nil {
		return nil, errors.New("service: encryptor is required")
	}
	s := &Service{
		results:   results,
		queue:     q,
		encryptor: encryptor,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Enqueue returns the result id to poll. The record exists as in_progress
// before the job can be picked up.
func (s *Service) Enqueue(ctx context.Context, req EnqueueRequest) (string, error) {
	if missing := missingFields(req.Applicant); len(missing) > 0 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "missing required fields: "+strings.Join(missing, ", "))
	}
	var family vendors.Family
	if req.ProofingVendor != "" {
		f, err := vendors.ParseFamily(req.ProofingVendor)
		if err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeInvalidInput, "unknown proofing vendor")
		}
		family = f
	}
	if err := s.checkAttempts(ctx, req); err != nil {
		return "", err
	}

	resultID := uuid.NewString()
	traceID := requestcontext.TraceID(ctx)
	if traceID == "" {
		traceID = uuid.NewString()
	}

	encrypted, err := s.encryptor.EncryptApplicant(req.Applicant, resultID)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to seal proofing arguments")
	}

	if err := s.results.CreateInProgress(ctx, resultID); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable, "result store unavailable")
	}

	now := requestcontext.Now(ctx)
	env, err := queue.NewEnvelope(queue.KindResolutionProofing, job.Args{
		ResultID:                resultID,
		EncryptedArguments:      encrypted,
		DecryptionContext:       resultID,
		TraceID:                 traceID,
		IPPEnrollmentInProgress: req.IPPEnrollmentInProgress,
		ProofingVendor:          family,
		UserID:                  req.UserID,
		ServiceProvider:         req.ServiceProvider,
		ThreatMetrixSessionID:   req.ThreatMetrixSessionID,
		RequestIP:               requestcontext.ClientIP(ctx),
		UserAgent:               requestcontext.UserAgent(ctx),
		DocumentCheckVendor:     req.DocumentCheckVendor,
		EnqueuedAt:              now.UTC(),
	}, now)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode proofing job")
	}
	if err := s.queue.Enqueue(ctx, env); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable, "proofing queue unavailable")
	}

	s.logger.InfoContext(ctx, "proofing job enqueued",
		"result_id", resultID,
		"trace_id", traceID,
		"user_id", req.UserID,
		"proofing_vendor", string(family),
		"ipp_enrollment_in_progress", req.IPPEnrollmentInProgress,
	)
	return resultID, nil
}

// Poll reports the state of resultID.
func (s *Service) Poll(ctx context.Context, resultID string) (PollResponse, error) {
	rec, err := s.results.Load(ctx, resultID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return PollResponse{}, dErrors.New(dErrors.CodeNotFound, "proofing result not found")
		}
		return PollResponse{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "result store unavailable")
	}
	if !rec.Done() {
		return PollResponse{Status: asyncresult.StatusInProgress}, nil
	}
	decision := rec.Result.Adjudicate()
	return PollResponse{
		Status:  asyncresult.StatusDone,
		Success: &decision.Success,
		Reasons: decision.Reasons,
	}, nil
}

// checkAttempts counts this submission against the user's budget. Limiter
// failures are logged and the attempt goes through.
func (s *Service) checkAttempts(ctx context.Context, req EnqueueRequest) error {
	if s.limiter == nil {
		return nil
	}
	res, err := s.limiter.Attempt(ctx, req.UserID)
	if err != nil {
		s.logger.WarnContext(ctx, "rate limit check failed, allowing attempt",
			"user_id", req.UserID,
			"error", err,
		)
	}
	if res == nil || res.Allowed {
		return nil
	}

	if s.attempts != nil {
		event := attempts.RateLimited(attempts.Context{
			UserID:          req.UserID,
			ServiceProvider: req.ServiceProvider,
			TraceID:         requestcontext.TraceID(ctx),
			RequestIP:       requestcontext.ClientIP(ctx),
			UserAgent:       requestcontext.UserAgent(ctx),
			OccurredAt:      requestcontext.Now(ctx).UTC(),
		}, ratelimit.LimiterType)
		if err := s.attempts.Emit(ctx, event); err != nil {
			s.logger.WarnContext(ctx, "failed to emit rate limited event", "error", err)
		}
	}
	return dErrors.New(dErrors.CodeRateLimited, "too many proofing attempts, try again later")
}

func missingFields(a pii.Applicant) []string {
	required := []struct {
		name  string
		value string
	}{
		{"first_name", a.FirstName},
		{"last_name", a.LastName},
		{"dob", a.DOB},
		{"ssn", a.SSN},
		{"address1", a.Address1},
		{"city", a.City},
		{"state", a.State},
		{"zipcode", a.Zipcode},
		{"state_id_number", a.StateIDNumber},
		{"state_id_jurisdiction", a.StateIDJurisdiction},
	}
	var missing []string
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}
