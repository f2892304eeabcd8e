package resolution

import (
	"idv/internal/proofing/vendors"
)

// ReasonCode is a normalized, PII-free explanation of a failed adjudication.
type ReasonCode string

const (
	ReasonResidentialAddressFailed ReasonCode = "residential_address_failed"
	ReasonResolutionFailed         ReasonCode = "resolution_failed"
	ReasonStateIDFailed            ReasonCode = "state_id_failed"
	ReasonDeviceProfilingFailed    ReasonCode = "device_profiling_failed"
	ReasonDuplicateSSN             ReasonCode = "duplicate_ssn"
	ReasonVendorUnavailable        ReasonCode = "vendor_unavailable"
	ReasonInternalError            ReasonCode = "internal_error"
)

// AdjudicatedResult aggregates every stage of one proofing attempt.
type AdjudicatedResult struct {
	ResolutionResult            *vendors.Result `json:"resolution_result"`
	ResidentialResolutionResult *vendors.Result `json:"residential_resolution_result"`
	StateIDResult               *vendors.Result `json:"state_id_result"`
	DeviceProfilingResult       *vendors.Result `json:"device_profiling_result"`

	SSNIsUnique             bool           `json:"ssn_is_unique"`
	ShouldProofStateID      bool           `json:"should_proof_state_id"`
	IPPEnrollmentInProgress bool           `json:"ipp_enrollment_in_progress"`
	ProofingVendor          vendors.Family `json:"proofing_vendor"`

	// Incomplete marks a result stored after the job terminated abnormally.
	Incomplete bool `json:"incomplete,omitempty"`

	Timing map[string]float64 `json:"timing,omitempty"`
}

// Decision is the adjudicated outcome handed back to pollers.
type Decision struct {
	Success bool         `json:"success"`
	Reasons []ReasonCode `json:"reasons,omitempty"`
}

// Adjudicate passes only when every stage passed and the SSN is unique.
func (r *AdjudicatedResult) Adjudicate() Decision {
	if r == nil || r.Incomplete {
		return Decision{Reasons: []ReasonCode{ReasonInternalError}}
	}

	var reasons []ReasonCode
	add := func(code ReasonCode) {
		for _, existing := range reasons {
			if existing == code {
				return
			}
		}
		reasons = append(reasons, code)
	}

	stages := []struct {
		result *vendors.Result
		failed ReasonCode
	}{
		{r.ResidentialResolutionResult, ReasonResidentialAddressFailed},
		{r.ResolutionResult, ReasonResolutionFailed},
		{r.StateIDResult, ReasonStateIDFailed},
		{r.DeviceProfilingResult, ReasonDeviceProfilingFailed},
	}
	for _, stage := range stages {
		switch {
		case stage.result == nil:
			add(ReasonInternalError)
		case stage.result.HasException():
			add(ReasonVendorUnavailable)
		case !stage.result.Success:
			add(stage.failed)
		}
	}
	if !r.SSNIsUnique {
		add(ReasonDuplicateSSN)
	}

	return Decision{Success: len(reasons) == 0, Reasons: reasons}
}

// Exceptions lists the vendor names of stages that raised an exception.
func (r *AdjudicatedResult) Exceptions() []string {
	if r == nil {
		return nil
	}
	var out []string
	for _, res := range []*vendors.Result{
		r.ResidentialResolutionResult, r.ResolutionResult, r.StateIDResult, r.DeviceProfilingResult,
	} {
		if res != nil && res.HasException() {
			out = append(out, res.VendorName)
		}
	}
	return out
}
