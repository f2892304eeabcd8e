// Package resolution runs the progressive proofer: the address chain
// (residential address, state ID address, AAMVA) and device profiling fan out
// concurrently and join into one AdjudicatedResult.
package resolution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"idv/internal/proofing/metrics"
	"idv/internal/proofing/pii"
	"idv/internal/proofing/plugins"
	"idv/internal/proofing/timer"
	"idv/internal/proofing/vendors"
)

var (
	// ErrUnknownVendor is returned when the request selects a family with no proofer.
	ErrUnknownVendor = errors.New("resolution: no proofer for vendor family")
	// ErrStagePanic wraps a panic recovered from a proofing stage.
	ErrStagePanic = errors.New("resolution: proofing stage panicked")
)

// Request is one progressive proofing attempt.
type Request struct {
	Applicant               pii.Applicant
	ThreatMetrixSessionID   string
	RequestIP               string
	UserAgent               string
	IPPEnrollmentInProgress bool
	ServiceProvider         string
	TraceID                 string
	Timer                   *timer.Timer
	// Vendor selects the resolution family; empty uses the configured default.
	Vendor vendors.Family
}

// Vendors are the proofers the plugins call.
type Vendors struct {
	Resolution map[vendors.Family]vendors.Proofer
	StateID    vendors.Proofer
	Device     vendors.DeviceProofer
}

// ProgressiveProofer orchestrates the vendor plugins for one attempt.
type ProgressiveProofer struct {
	vendors                Vendors
	defaultFamily          vendors.Family
	costs                  plugins.CostRecorder
	supportedJurisdictions []string
	deviceProfiling        bool

	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// Option configures a ProgressiveProofer.
type Option func(*ProgressiveProofer)

func WithLogger(logger *slog.Logger) Option {
	return func(p *ProgressiveProofer) { p.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *ProgressiveProofer) { p.metrics = m }
}

// WithCostRecorder sets where executed vendor calls are billed.
func WithCostRecorder(rec plugins.CostRecorder) Option {
	return func(p *ProgressiveProofer) { p.costs = rec }
}

// WithSupportedJurisdictions limits AAMVA calls to the listed states.
func WithSupportedJurisdictions(jurisdictions []string) Option {
	return func(p *ProgressiveProofer) { p.supportedJurisdictions = jurisdictions }
}

func WithDeviceProfiling(enabled bool) Option {
	return func(p *ProgressiveProofer) { p.deviceProfiling = enabled }
}

func WithDefaultFamily(f vendors.Family) Option {
	return func(p *ProgressiveProofer) { p.defaultFamily = f }
}

func WithTracer(t trace.Tracer) Option {
	return func(p *ProgressiveProofer) { p.tracer = t }
}

// New builds a proofer. Every capability needs a proofer, even when it is a mock.
func New(v Vendors, opts ...Option) (*ProgressiveProofer, error) {
	if len(v.Resolution) == 0 {
		return nil, errors.New("resolution: at least one resolution proofer is required")
	}
	if v.StateID == nil {
		return nil, errors.New("resolution: state id proofer is required")
	}
	if v.Device == nil {
		return nil, errors.New("resolution: device proofer is required")
	}

	p := &ProgressiveProofer{
		vendors:         v,
		defaultFamily:   vendors.FamilyInstantVerify,
		deviceProfiling: true,
		logger:          slog.Default(),
		tracer:          otel.Tracer("idv/proofing/resolution"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Proof runs every plugin and returns the joined result. A non-nil error means
// a stage panicked; the returned result then holds whatever stages finished.
func (p *ProgressiveProofer) Proof(ctx context.Context, req Request) (*AdjudicatedResult, error) {
	family := req.Vendor
	if family == "" {
		family = p.defaultFamily
	}
	resolutionProofer, ok := p.vendors.Resolution[family]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVendor, family)
	}
	if req.Timer == nil {
		req.Timer = timer.New()
	}

	ctx, span := p.tracer.Start(ctx, "proofing.progressive",
		trace.WithAttributes(
			attribute.String("proofing.vendor", string(family)),
			attribute.Bool("proofing.ipp", req.IPPEnrollmentInProgress),
			attribute.String("proofing.trace_id", req.TraceID),
		))
	defer span.End()

	costType := family.ResolutionCostType()
	residential := plugins.ResidentialAddress{Proofer: resolutionProofer, CostType: costType, Costs: p.costs}
	stateIDAddress := plugins.StateIDAddress{Proofer: resolutionProofer, CostType: costType, Costs: p.costs}
	aamva := plugins.Aamva{Proofer: p.vendors.StateID, Costs: p.costs, SupportedJurisdictions: p.supportedJurisdictions}
	device := plugins.DeviceProfiling{Proofer: p.vendors.Device, Costs: p.costs, Enabled: p.deviceProfiling}

	in := plugins.Input{
		Applicant:               req.Applicant,
		IPPEnrollmentInProgress: req.IPPEnrollmentInProgress,
		ServiceProvider:         req.ServiceProvider,
		TraceID:                 req.TraceID,
		Timer:                   req.Timer,
	}

	result := &AdjudicatedResult{
		IPPEnrollmentInProgress: req.IPPEnrollmentInProgress,
		ProofingVendor:          family,
		ShouldProofStateID:      aamva.Supports(req.Applicant.StateIDJurisdiction),
	}

	// A failing branch must not cancel the other one.
	var g errgroup.Group

	// The state ID check depends on the address checks, so the chain runs in order.
	g.Go(recovered("address_chain", func() error {
		result.ResidentialResolutionResult = p.stage(ctx, plugins.PhaseResidentialAddress, func(ctx context.Context) *vendors.Result {
			return residential.Call(ctx, in)
		})
		result.ResolutionResult = p.stage(ctx, plugins.PhaseResolution, func(ctx context.Context) *vendors.Result {
			return stateIDAddress.Call(ctx, in, result.ResidentialResolutionResult)
		})
		result.StateIDResult = p.stage(ctx, plugins.PhaseStateID, func(ctx context.Context) *vendors.Result {
			return aamva.Call(ctx, in, result.ResolutionResult)
		})
		return nil
	}))

	g.Go(recovered("device_profiling", func() error {
		result.DeviceProfilingResult = p.stage(ctx, plugins.PhaseThreatMetrix, func(ctx context.Context) *vendors.Result {
			return device.Call(ctx, plugins.DeviceInput{
				Input:     in,
				SessionID: req.ThreatMetrixSessionID,
				RequestIP: req.RequestIP,
				UserAgent: req.UserAgent,
			})
		})
		return nil
	}))

	err := g.Wait()
	result.Timing = req.Timer.Results()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "proofing stage failed")
		p.logger.ErrorContext(ctx, "progressive proofing failed",
			"trace_id", req.TraceID,
			"error", err,
		)
		return result, err
	}
	return result, nil
}

func (p *ProgressiveProofer) stage(ctx context.Context, name string, call func(context.Context) *vendors.Result) *vendors.Result {
	ctx, span := p.tracer.Start(ctx, "proofing."+name)
	defer span.End()

	start := time.Now()
	r := call(ctx)
	if r == nil {
		r = vendors.Errored(name, errors.New("proofer returned no result"))
	}
	p.metrics.ObserveStage(name, string(r.Kind()), time.Since(start))

	span.SetAttributes(
		attribute.String("proofing.vendor_name", r.VendorName),
		attribute.String("proofing.outcome", string(r.Kind())),
	)
	if r.HasException() {
		span.SetStatus(codes.Error, string(r.Exception.Kind))
	}
	return r
}

func recovered(name string, fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("%w: %s: %v", ErrStagePanic, name, rec)
			}
		}()
		return fn()
	}
}
