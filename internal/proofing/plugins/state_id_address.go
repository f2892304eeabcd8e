package plugins

import (
	"context"

	"idv/internal/proofing/vendors"
)

// StateIDAddress resolves the applicant against the address printed on their
// state ID, reusing the residential result when both addresses are the same.
// In person, a failed residential result already decides the outcome, so the
// vendor is not called again.
type StateIDAddress struct {
	Proofer  vendors.Proofer
	CostType string
	Costs    CostRecorder
}

func (p StateIDAddress) Call(ctx context.Context, in Input, residential *vendors.Result) *vendors.Result {
	applicant := in.Applicant
	if in.IPPEnrollmentInProgress {
		if residential == nil || !residential.Success {
			return vendors.ResolutionCannotPass()
		}
		if applicant.SameAddressAsID() {
			return residential
		}
		applicant = applicant.WithAddress(applicant.IdentityDocAddress())
	}

	var result *vendors.Result
	timed(in.Timer, PhaseResolution, func() {
		result = p.Proofer.Proof(ctx, applicant)
	})
	recordCost(ctx, p.Costs, p.CostType, in, result)
	return result
}
