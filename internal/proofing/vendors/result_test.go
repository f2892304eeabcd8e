package vendors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultInvariants(t *testing.T) {
	t.Run("exception forces failure", func(t *testing.T) {
		r := NewResult(Result{Success: true, VendorName: "x", Exception: &Exception{Kind: ExceptionTimeout}})
		assert.False(t, r.Success)
		assert.Equal(t, KindException, r.Kind())
		assert.True(t, r.TimedOut())
		assert.False(t, r.Failed())
	})

	t.Run("success clears errors", func(t *testing.T) {
		r := NewResult(Result{Success: true, Errors: map[string][]string{"dob": {"UNVERIFIED"}}})
		assert.Nil(t, r.Errors)
		assert.Equal(t, KindPassed, r.Kind())
	})

	t.Run("failure with errors is failed", func(t *testing.T) {
		r := Failed("aamva:state_id", map[string][]string{"dob": {"MISSING"}})
		assert.True(t, r.Failed())
		assert.Equal(t, KindFailed, r.Kind())
	})

	t.Run("synthetic failure has no errors", func(t *testing.T) {
		r := ResolutionCannotPass()
		assert.False(t, r.Success)
		assert.False(t, r.Failed())
		assert.Equal(t, KindFailed, r.Kind())
		assert.Equal(t, "ResolutionCannotPass", r.VendorName)
	})

	t.Run("transaction id trimmed and attributes sorted", func(t *testing.T) {
		r := NewResult(Result{
			Success:            true,
			TransactionID:      "1234-abcd-efgh\n",
			VerifiedAttributes: []Attribute{AttrLastName, AttrDOB, AttrLastName},
		})
		assert.Equal(t, "1234-abcd-efgh", r.TransactionID)
		assert.Equal(t, []Attribute{AttrDOB, AttrLastName}, r.VerifiedAttributes)
		assert.True(t, r.Verified(AttrDOB))
		assert.False(t, r.Verified(AttrAddress))
	})
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ExceptionKind
	}{
		{"nil", nil, ""},
		{"deadline", fmt.Errorf("post: %w", context.DeadlineExceeded), ExceptionTimeout},
		{"canceled", fmt.Errorf("post: %w", context.Canceled), ExceptionCanceled},
		{"mva unavailable", errors.New("DLDV VSS - ExceptionId: 0001, ExceptionText: MVA did not respond"), ExceptionMVAUnavailable},
		{"mva system error", errors.New("ExceptionId: 0002, ExceptionText: MVA system error"), ExceptionMVASystemError},
		{"mva timeout", errors.New("ExceptionId: 0047, ExceptionText: MVA timed out"), ExceptionMVATimeout},
		{"rate limited", &HTTPError{StatusCode: 429}, ExceptionRateLimited},
		{"gateway timeout", &HTTPError{StatusCode: 504}, ExceptionTimeout},
		{"server error", &HTTPError{StatusCode: 500}, ExceptionSystemError},
		{"bad request", &HTTPError{StatusCode: 400}, ExceptionUnexpected},
		{"already classified", &Exception{Kind: ExceptionMVATimeout}, ExceptionMVATimeout},
		{"other", errors.New("unexpected EOF"), ExceptionUnexpected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.err))
		})
	}
}

func TestErroredPredicates(t *testing.T) {
	r := Errored("aamva:state_id", errors.New("ExceptionId: 0047"))
	require.NotNil(t, r.Exception)
	assert.True(t, r.MVATimeout())
	assert.True(t, r.MVAException())
	assert.False(t, r.TimedOut())
	assert.True(t, r.Exception.Retryable())

	generic := Errored("aamva:state_id", context.DeadlineExceeded)
	assert.True(t, generic.TimedOut())
	assert.False(t, generic.MVAException())

	canceled := Errored("lexisnexis:instant_verify", fmt.Errorf("post: %w", context.Canceled))
	assert.Equal(t, ExceptionCanceled, canceled.Exception.Kind)
	assert.True(t, canceled.Exception.Retryable())
	assert.False(t, canceled.TimedOut())
}

func TestParseFamily(t *testing.T) {
	f, err := ParseFamily("socure")
	require.NoError(t, err)
	assert.Equal(t, FamilySocure, f)
	assert.Equal(t, CostSocureResolution, f.ResolutionCostType())
	assert.Equal(t, FamilyInstantVerify, f.Alternate())

	_, err = ParseFamily("acme")
	assert.Error(t, err)
}
