package instantverify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idv/internal/proofing/pii"
	"idv/internal/proofing/vendors"
)

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestInstantVerifyProof(t *testing.T) {
	applicant := pii.Applicant{FirstName: "Fakey", LastName: "McFakerson", DOB: "1938-10-06", SSN: "900-12-3456"}

	t.Run("passed", func(t *testing.T) {
		srv := serve(t, http.StatusOK, `{"Status":{"TransactionId":"123456","TransactionStatus":"passed"},
			"Products":[{"ProductType":"InstantVerify","ProductStatus":"pass","Items":[
			{"ItemName":"FirstNameMatch","ItemStatus":"pass"},{"ItemName":"AddressMatch","ItemStatus":"pass"}]}]}`)
		r := New(srv.URL, "key", time.Second).Proof(context.Background(), applicant)
		assert.True(t, r.Success)
		assert.Equal(t, "123456", r.TransactionID)
		assert.Equal(t, VendorName, r.VendorName)
		assert.True(t, r.Verified(vendors.AttrAddress))
	})

	t.Run("failed item", func(t *testing.T) {
		srv := serve(t, http.StatusOK, `{"Status":{"TransactionId":"9","TransactionStatus":"failed"},
			"Products":[{"ProductType":"InstantVerify","ProductStatus":"fail","Items":[
			{"ItemName":"SSNMatch","ItemStatus":"fail"}]}]}`)
		r := New(srv.URL, "key", time.Second).Proof(context.Background(), applicant)
		assert.False(t, r.Success)
		assert.True(t, r.Failed())
		assert.Equal(t, []string{"SSNMatch"}, r.Errors["ssn"])
	})

	t.Run("transaction error is an exception", func(t *testing.T) {
		srv := serve(t, http.StatusOK, `{"Status":{"TransactionId":"9","TransactionStatus":"error","TransactionReasonCode":"invalid_input"}}`)
		r := New(srv.URL, "key", time.Second).Proof(context.Background(), applicant)
		require.NotNil(t, r.Exception)
		assert.Equal(t, vendors.ExceptionSystemError, r.Exception.Kind)
	})

	t.Run("rate limited", func(t *testing.T) {
		srv := serve(t, http.StatusTooManyRequests, `{}`)
		r := New(srv.URL, "key", time.Second).Proof(context.Background(), applicant)
		assert.True(t, r.RateLimited())
		assert.False(t, r.Success)
	})
}
