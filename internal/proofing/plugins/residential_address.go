package plugins

import (
	"context"

	"idv/internal/proofing/vendors"
)

// ResidentialAddressNotRequired names the null result for remote flows,
// where the residential address is the document address.
const ResidentialAddressNotRequired = "ResidentialAddressNotRequired"

// ResidentialAddress resolves the applicant's residential address during
// in-person proofing.
type ResidentialAddress struct {
	Proofer  vendors.Proofer
	CostType string
	Costs    CostRecorder
}

func (p ResidentialAddress) Call(ctx context.Context, in Input) *vendors.Result {
	if !in.IPPEnrollmentInProgress {
		return vendors.NotApplicable(ResidentialAddressNotRequired)
	}

	var result *vendors.Result
	timed(in.Timer, PhaseResidentialAddress, func() {
		result = p.Proofer.Proof(ctx, in.Applicant)
	})
	recordCost(ctx, p.Costs, p.CostType, in, result)
	return result
}
