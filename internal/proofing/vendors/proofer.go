package vendors

//go:generate mockgen -source=proofer.go -destination=mocks/mocks.go -package=mocks Proofer,DeviceProofer

import (
	"context"
	"fmt"

	"idv/internal/proofing/pii"
)

// Proofer verifies applicant PII against one vendor. Implementations never
// return transport errors: failures come back as exception results.
type Proofer interface {
	Proof(ctx context.Context, applicant pii.Applicant) *Result
}

// DeviceRequest carries the device-risk signals for one proofing attempt.
type DeviceRequest struct {
	SessionID       string
	RequestIP       string
	UserAgent       string
	Applicant       pii.Applicant
	ServiceProvider string
}

// DeviceProofer scores device risk for a profiling session.
type DeviceProofer interface {
	Proof(ctx context.Context, req DeviceRequest) *Result
}

// Family selects which integration family serves resolution checks.
type Family string

const (
	FamilyInstantVerify Family = "instant_verify"
	FamilySocure        Family = "socure"
	FamilyMock          Family = "mock"
)

// ParseFamily validates a family name.
func ParseFamily(s string) (Family, error) {
	switch f := Family(s); f {
	case FamilyInstantVerify, FamilySocure, FamilyMock:
		return f, nil
	}
	return "", fmt.Errorf("unknown vendor family %q", s)
}

// Cost types recorded in the ledger for each executed vendor call.
const (
	CostLexisNexisResolution = "lexis_nexis_resolution"
	CostSocureResolution     = "socure_resolution"
	CostMockResolution       = "mock_resolution"
	CostAamva                = "aamva"
	CostThreatMetrix         = "threatmetrix"
)

// ResolutionCostType returns the ledger cost type for the family's resolution calls.
func (f Family) ResolutionCostType() string {
	switch f {
	case FamilySocure:
		return CostSocureResolution
	case FamilyMock:
		return CostMockResolution
	default:
		return CostLexisNexisResolution
	}
}

// Alternate returns the family used for shadow-mode comparison.
func (f Family) Alternate() Family {
	if f == FamilySocure {
		return FamilyInstantVerify
	}
	return FamilySocure
}
