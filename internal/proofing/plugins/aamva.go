package plugins

import (
	"context"
	"strings"

	"idv/internal/proofing/vendors"
)

// UnsupportedJurisdiction names the null result for states outside the AAMVA network.
const UnsupportedJurisdiction = "UnsupportedJurisdiction"

// Aamva verifies the state ID with the issuing DMV.
type Aamva struct {
	Proofer vendors.Proofer
	Costs   CostRecorder
	// SupportedJurisdictions lists two-letter codes; empty means all.
	SupportedJurisdictions []string
}

// Supports reports whether the jurisdiction participates in AAMVA verification.
func (p Aamva) Supports(jurisdiction string) bool {
	if len(p.SupportedJurisdictions) == 0 {
		return true
	}
	for _, j := range p.SupportedJurisdictions {
		if strings.EqualFold(j, jurisdiction) {
			return true
		}
	}
	return false
}

func (p Aamva) Call(ctx context.Context, in Input, stateIDAddress *vendors.Result) *vendors.Result {
	if !p.Supports(in.Applicant.StateIDJurisdiction) {
		return vendors.NotApplicable(UnsupportedJurisdiction)
	}
	if stateIDAddress == nil || !stateIDAddress.Success {
		return vendors.ResolutionCannotPass()
	}

	applicant := in.Applicant
	if in.IPPEnrollmentInProgress {
		applicant = applicant.WithAddress(applicant.IdentityDocAddress())
	}

	var result *vendors.Result
	timed(in.Timer, PhaseStateID, func() {
		result = p.Proofer.Proof(ctx, applicant)
	})
	recordCost(ctx, p.Costs, vendors.CostAamva, in, result)
	return result
}
