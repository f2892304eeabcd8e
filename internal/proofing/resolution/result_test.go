package resolution

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"idv/internal/proofing/vendors"
)

func passingResult() *AdjudicatedResult {
	return &AdjudicatedResult{
		ResidentialResolutionResult: vendors.NotApplicable("ResidentialAddressNotRequired"),
		ResolutionResult:            vendors.Passed("lexisnexis:instant_verify"),
		StateIDResult:               vendors.Passed("aamva:state_id"),
		DeviceProfilingResult:       vendors.Passed("lexisnexis:ddp"),
		SSNIsUnique:                 true,
	}
}

func TestAdjudicate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *AdjudicatedResult)
		success bool
		reasons []ReasonCode
	}{
		{
			name:    "all stages pass",
			mutate:  func(*AdjudicatedResult) {},
			success: true,
		},
		{
			name:    "duplicate ssn fails",
			mutate:  func(r *AdjudicatedResult) { r.SSNIsUnique = false },
			reasons: []ReasonCode{ReasonDuplicateSSN},
		},
		{
			name: "device review fails",
			mutate: func(r *AdjudicatedResult) {
				r.DeviceProfilingResult = vendors.Failed("lexisnexis:ddp", map[string][]string{"review_status": {"review"}})
			},
			reasons: []ReasonCode{ReasonDeviceProfilingFailed},
		},
		{
			name: "exceptions collapse into vendor unavailable",
			mutate: func(r *AdjudicatedResult) {
				r.StateIDResult = vendors.Errored("aamva:state_id", &vendors.Exception{Kind: vendors.ExceptionMVAUnavailable})
				r.ResolutionResult = vendors.Errored("lexisnexis:instant_verify", &vendors.Exception{Kind: vendors.ExceptionTimeout})
			},
			reasons: []ReasonCode{ReasonVendorUnavailable},
		},
		{
			name:    "missing stage is an internal error",
			mutate:  func(r *AdjudicatedResult) { r.DeviceProfilingResult = nil },
			reasons: []ReasonCode{ReasonInternalError},
		},
		{
			name:    "incomplete result is an internal error",
			mutate:  func(r *AdjudicatedResult) { r.Incomplete = true },
			reasons: []ReasonCode{ReasonInternalError},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := passingResult()
			tt.mutate(r)

			decision := r.Adjudicate()

			assert.Equal(t, tt.success, decision.Success)
			assert.Equal(t, tt.reasons, decision.Reasons)
		})
	}
}

func TestExceptions(t *testing.T) {
	r := passingResult()
	r.StateIDResult = vendors.Errored("aamva:state_id", &vendors.Exception{Kind: vendors.ExceptionMVATimeout})

	assert.Equal(t, []string{"aamva:state_id"}, r.Exceptions())
}
