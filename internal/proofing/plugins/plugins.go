// Package plugins wraps each vendor capability used by the progressive
// proofer. A plugin decides whether its vendor applies, calls it, and records
// the cost of every call it actually makes.
package plugins

import (
	"context"

	"idv/internal/proofing/costs"
	"idv/internal/proofing/pii"
	"idv/internal/proofing/timer"
	"idv/internal/proofing/vendors"
)

// Phase names recorded in the shared timer.
const (
	PhaseResidentialAddress = "residential_address"
	PhaseResolution         = "resolution"
	PhaseStateID            = "state_id"
	PhaseThreatMetrix       = "threatmetrix"
)

// Input is shared by every plugin for one proofing attempt.
type Input struct {
	Applicant               pii.Applicant
	IPPEnrollmentInProgress bool
	ServiceProvider         string
	TraceID                 string
	Timer                   *timer.Timer
}

// CostRecorder records one ledger entry per executed vendor call.
type CostRecorder interface {
	Record(ctx context.Context, e costs.Entry)
}

func recordCost(ctx context.Context, rec CostRecorder, costType string, in Input, r *vendors.Result) {
	if rec == nil {
		return
	}
	rec.Record(ctx, costs.Entry{
		CostType:      costType,
		Issuer:        in.ServiceProvider,
		TransactionID: r.TransactionID,
		TraceID:       in.TraceID,
	})
}

func timed(t *timer.Timer, phase string, fn func()) {
	if t == nil {
		fn()
		return
	}
	t.Time(phase, fn)
}
