// Package mock provides deterministic proofers for development and tests.
// Magic values in the applicant select failure modes.
package mock

import (
	"context"
	"errors"
	"strings"

	"github.com/mssola/useragent"

	"idv/internal/proofing/pii"
	"idv/internal/proofing/vendors"
	"idv/internal/proofing/vendors/ddp"
)

const (
	ResolutionVendorName = "ResolutionMock"
	StateIDVendorName    = "StateIdMock"
	DeviceVendorName     = "DdpMock"

	// FailedFirstName fails resolution on the first name.
	FailedFirstName = "Bad"
	// TimeoutZipcode makes resolution time out.
	TimeoutZipcode = "00000"
	// FailedStateIDNumber fails state ID number verification.
	FailedStateIDNumber = "00000000"
	// UnavailableStateIDNumber makes the state MVA unavailable.
	UnavailableStateIDNumber = "mvatimeout"
	// RejectSessionID and ReviewSessionID force device review outcomes.
	RejectSessionID = "reject"
	ReviewSessionID = "review"
)

var resolutionAttributes = []vendors.Attribute{
	vendors.AttrFirstName, vendors.AttrLastName, vendors.AttrDOB, vendors.AttrSSN, vendors.AttrAddress,
}

// ResolutionProofer mimics a resolution vendor.
type ResolutionProofer struct{}

func (ResolutionProofer) Proof(ctx context.Context, a pii.Applicant) *vendors.Result {
	if err := ctx.Err(); err != nil {
		return vendors.Errored(ResolutionVendorName, err)
	}
	if a.Zipcode == TimeoutZipcode {
		return vendors.Errored(ResolutionVendorName, &vendors.Exception{Kind: vendors.ExceptionTimeout, Message: "mock timeout"})
	}
	requested := requestedOf(resolutionAttributes)
	if strings.EqualFold(a.FirstName, FailedFirstName) {
		return vendors.NewResult(vendors.Result{
			VendorName:          ResolutionVendorName,
			TransactionID:       "resolution-mock-transaction-id-123",
			Errors:              map[string][]string{string(vendors.AttrFirstName): {"Unverified first name."}},
			VerifiedAttributes:  without(resolutionAttributes, vendors.AttrFirstName),
			RequestedAttributes: requested,
		})
	}
	return vendors.NewResult(vendors.Result{
		Success:             true,
		VendorName:          ResolutionVendorName,
		TransactionID:       "resolution-mock-transaction-id-123",
		VerifiedAttributes:  resolutionAttributes,
		RequestedAttributes: requested,
	})
}

var stateIDAttributes = []vendors.Attribute{
	vendors.AttrDOB, vendors.AttrFirstName, vendors.AttrLastName, vendors.AttrStateIDNumber,
	vendors.AttrStateIDExpiration, vendors.AttrAddress,
}

// StateIDProofer mimics AAMVA.
type StateIDProofer struct{}

func (StateIDProofer) Proof(ctx context.Context, a pii.Applicant) *vendors.Result {
	if err := ctx.Err(); err != nil {
		return vendors.Errored(StateIDVendorName, err)
	}
	if a.StateIDNumber == UnavailableStateIDNumber {
		return vendors.Errored(StateIDVendorName, errors.New("ExceptionId: 0001, ExceptionText: MVA unavailable"))
	}
	requested := requestedOf(stateIDAttributes)
	requested[vendors.AttrStateIDJurisdiction] = 1
	if a.StateIDNumber == FailedStateIDNumber {
		return vendors.NewResult(vendors.Result{
			VendorName:          StateIDVendorName,
			TransactionID:       "state-id-mock-transaction-id-456",
			Errors:              map[string][]string{string(vendors.AttrStateIDNumber): {"UNVERIFIED"}},
			VerifiedAttributes:  without(stateIDAttributes, vendors.AttrStateIDNumber),
			RequestedAttributes: requested,
		})
	}
	return vendors.NewResult(vendors.Result{
		Success:             true,
		VendorName:          StateIDVendorName,
		TransactionID:       "state-id-mock-transaction-id-456",
		VerifiedAttributes:  stateIDAttributes,
		RequestedAttributes: requested,
	})
}

// DeviceProofer mimics ThreatMetrix. Bot user agents are rejected.
type DeviceProofer struct{}

func (DeviceProofer) Proof(ctx context.Context, req vendors.DeviceRequest) *vendors.Result {
	if err := ctx.Err(); err != nil {
		return vendors.Errored(DeviceVendorName, err)
	}
	status := ddp.ReviewPass
	switch {
	case req.SessionID == RejectSessionID:
		status = ddp.ReviewReject
	case req.SessionID == ReviewSessionID:
		status = ddp.ReviewReview
	case req.UserAgent != "" && useragent.New(req.UserAgent).Bot():
		status = ddp.ReviewReject
	}
	r := ddp.ToResult("ddp-mock-transaction-id-123", "success", status, nil)
	r.VendorName = DeviceVendorName
	return r
}

func requestedOf(attrs []vendors.Attribute) map[vendors.Attribute]int {
	m := make(map[vendors.Attribute]int, len(attrs))
	for _, a := range attrs {
		m[a] = 1
	}
	return m
}

func without(attrs []vendors.Attribute, drop vendors.Attribute) []vendors.Attribute {
	out := make([]vendors.Attribute, 0, len(attrs))
	for _, a := range attrs {
		if a != drop {
			out = append(out, a)
		}
	}
	return out
}
