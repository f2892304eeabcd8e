package plugins

import (
	"context"

	"idv/internal/proofing/vendors"
)

// Null-object vendor names for skipped device profiling.
const (
	DeviceProfilingDisabled         = "DeviceProfilingDisabled"
	DeviceProfilingSessionIDMissing = "DeviceProfilingSessionIDMissing"
)

// DeviceInput extends Input with the device profiling correlation data.
type DeviceInput struct {
	Input
	SessionID string
	RequestIP string
	UserAgent string
}

// DeviceProfiling scores device risk with ThreatMetrix.
type DeviceProfiling struct {
	Proofer vendors.DeviceProofer
	Costs   CostRecorder
	Enabled bool
}

func (p DeviceProfiling) Call(ctx context.Context, in DeviceInput) *vendors.Result {
	if !p.Enabled {
		return vendors.NotApplicable(DeviceProfilingDisabled)
	}
	if in.SessionID == "" {
		return vendors.Failed(DeviceProfilingSessionIDMissing, map[string][]string{
			vendors.BaseErrorKey: {"session_id_missing"},
		})
	}

	var result *vendors.Result
	timed(in.Timer, PhaseThreatMetrix, func() {
		result = p.Proofer.Proof(ctx, vendors.DeviceRequest{
			SessionID:       in.SessionID,
			RequestIP:       in.RequestIP,
			UserAgent:       in.UserAgent,
			Applicant:       in.Applicant,
			ServiceProvider: in.ServiceProvider,
		})
	})
	recordCost(ctx, p.Costs, vendors.CostThreatMetrix, in.Input, result)
	return result
}
