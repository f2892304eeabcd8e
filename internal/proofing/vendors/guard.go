package vendors

import (
	"context"
	"log/slog"

	"idv/internal/proofing/pii"
	"idv/pkg/platform/circuit"
	"idv/pkg/requestcontext"
)

// GuardedProofer skips calls to a vendor whose recent calls kept raising
// transport or system exceptions. Skipped calls return a circuit_open exception.
type GuardedProofer struct {
	Proofer Proofer
	Breaker *circuit.Breaker
	Logger  *slog.Logger
}

func (g *GuardedProofer) Proof(ctx context.Context, applicant pii.Applicant) *Result {
	return guard(ctx, g.Breaker, g.Logger, func() *Result { return g.Proofer.Proof(ctx, applicant) })
}

// GuardedDeviceProofer is GuardedProofer for device profiling.
type GuardedDeviceProofer struct {
	Proofer DeviceProofer
	Breaker *circuit.Breaker
	Logger  *slog.Logger
}

func (g *GuardedDeviceProofer) Proof(ctx context.Context, req DeviceRequest) *Result {
	return guard(ctx, g.Breaker, g.Logger, func() *Result { return g.Proofer.Proof(ctx, req) })
}

func guard(ctx context.Context, b *circuit.Breaker, logger *slog.Logger, call func() *Result) *Result {
	if !b.Allow() {
		return Errored(b.Name(), &Exception{Kind: ExceptionCircuitOpen, Message: "vendor circuit open"})
	}
	r := call()
	if ctx.Err() != nil {
		return r
	}
	var change circuit.StateChange
	if tripsBreaker(r) {
		_, change = b.RecordFailure()
	} else {
		_, change = b.RecordSuccess()
	}
	if logger != nil && (change.Opened || change.Closed) {
		logger.WarnContext(ctx, "vendor circuit state changed",
			"vendor", b.Name(),
			"state", b.State().String(),
			"trace_id", requestcontext.TraceID(ctx),
		)
	}
	return r
}

// tripsBreaker counts failures of the vendor itself. Verification failures and
// per-jurisdiction MVA outages say nothing about the vendor's health.
func tripsBreaker(r *Result) bool {
	if r == nil || r.Exception == nil {
		return false
	}
	switch r.Exception.Kind {
	case ExceptionTimeout, ExceptionSystemError, ExceptionRateLimited, ExceptionUnexpected:
		return true
	}
	return false
}
