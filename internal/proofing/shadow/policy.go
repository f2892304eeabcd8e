// Package shadow runs the alternate resolution vendor alongside the primary
// one for comparison. Shadow results are logged only and never adjudicated.
package shadow

import (
	"idv/internal/platform/config"
)

const (
	// Experiment buckets users who did not go through Socure document capture.
	Experiment = "socure_idv_shadow_mode_for_non_docv_users"
	// BucketNonDocvUsers is the treatment bucket of Experiment.
	BucketNonDocvUsers = "socure_shadow_mode_for_non_docv_users"
	// DocumentCheckSocure is the document check vendor that marks a docv user.
	DocumentCheckSocure = "socure"
)

// Bucketer assigns subjects to experiment buckets.
type Bucketer interface {
	Bucket(experiment, subject string) string
}

// Policy decides whether a finished proofing job enqueues a shadow job.
type Policy struct {
	enabled             bool
	enabledForDocvUsers bool
	bucketer            Bucketer
}

func NewPolicy(cfg config.Proofing, bucketer Bucketer) Policy {
	return Policy{
		enabled:             cfg.ShadowModeEnabled,
		enabledForDocvUsers: cfg.ShadowModeEnabledForDocvUsers,
		bucketer:            bucketer,
	}
}

// ShouldEnqueue applies, in order: the global switch, the docv cohort flag,
// then the A/B bucket.
func (p Policy) ShouldEnqueue(userID, documentCheckVendor string) bool {
	if !p.enabled {
		return false
	}
	if p.enabledForDocvUsers && documentCheckVendor == DocumentCheckSocure {
		return true
	}
	if p.bucketer == nil {
		return false
	}
	return p.bucketer.Bucket(Experiment, userID) == BucketNonDocvUsers
}
