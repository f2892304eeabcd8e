package mock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"idv/internal/proofing/pii"
	"idv/internal/proofing/vendors"
)

func TestMockProofers(t *testing.T) {
	ctx := context.Background()

	t.Run("resolution", func(t *testing.T) {
		assert.True(t, ResolutionProofer{}.Proof(ctx, pii.Applicant{FirstName: "Ok"}).Success)
		failed := ResolutionProofer{}.Proof(ctx, pii.Applicant{FirstName: FailedFirstName})
		assert.True(t, failed.Failed())
		assert.False(t, failed.Verified(vendors.AttrFirstName))
		assert.True(t, ResolutionProofer{}.Proof(ctx, pii.Applicant{Zipcode: TimeoutZipcode}).TimedOut())
	})

	t.Run("state id", func(t *testing.T) {
		assert.True(t, StateIDProofer{}.Proof(ctx, pii.Applicant{StateIDNumber: "123"}).Success)
		assert.True(t, StateIDProofer{}.Proof(ctx, pii.Applicant{StateIDNumber: FailedStateIDNumber}).Failed())
		assert.True(t, StateIDProofer{}.Proof(ctx, pii.Applicant{StateIDNumber: UnavailableStateIDNumber}).MVAUnavailable())
	})

	t.Run("device", func(t *testing.T) {
		assert.True(t, DeviceProofer{}.Proof(ctx, vendors.DeviceRequest{SessionID: "abc"}).Success)
		assert.Equal(t, "reject", DeviceProofer{}.Proof(ctx, vendors.DeviceRequest{SessionID: RejectSessionID}).ReviewStatus)
		assert.Equal(t, "review", DeviceProofer{}.Proof(ctx, vendors.DeviceRequest{SessionID: ReviewSessionID}).ReviewStatus)
		bot := DeviceProofer{}.Proof(ctx, vendors.DeviceRequest{
			SessionID: "abc",
			UserAgent: "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
		})
		assert.False(t, bot.Success)
	})
}
