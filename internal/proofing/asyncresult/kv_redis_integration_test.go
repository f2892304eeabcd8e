//go:build integration

package asyncresult_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"idv/internal/proofing/asyncresult"
	"idv/internal/proofing/resolution"
	"idv/internal/proofing/vendors"
	"idv/pkg/platform/sentinel"
	"idv/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *asyncresult.Store
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	var err error
	s.store, err = asyncresult.New(asyncresult.NewRedisKV(s.redis.Client), []byte("integration-secret"),
		asyncresult.WithTTL(2*time.Second))
	s.Require().NoError(err)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestRoundTripAndExpiry() {
	ctx := context.Background()
	id := uuid.NewString()
	result := &resolution.AdjudicatedResult{
		ResolutionResult:            vendors.Passed("lexisnexis:instant_verify"),
		ResidentialResolutionResult: vendors.NotApplicable("ResidentialAddressNotRequired"),
		StateIDResult:               vendors.Passed("aamva:state_id"),
		DeviceProfilingResult:       vendors.Passed("lexisnexis:ddp"),
		SSNIsUnique:                 true,
	}

	s.Require().NoError(s.store.StoreDone(ctx, id, result))

	rec, err := s.store.Load(ctx, id)
	s.Require().NoError(err)
	s.Equal(result, rec.Result)

	raw, err := s.redis.Client.Get(ctx, asyncresult.KeyPrefix+id).Bytes()
	s.Require().NoError(err)
	s.NotContains(string(raw), "instant_verify")

	s.Eventually(func() bool {
		_, err := s.store.Load(ctx, id)
		return err == sentinel.ErrNotFound
	}, 5*time.Second, 100*time.Millisecond)
}
