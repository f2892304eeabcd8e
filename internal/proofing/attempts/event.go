// Package attempts emits proofing attempt events for service providers that
// subscribe to fraud signals. Events carry outcomes and failure reason codes,
// never applicant PII.
package attempts

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"idv/internal/proofing/vendors"
)

// Event types.
const (
	EventVerificationSubmitted = "idv-verification-submitted"
	EventDeviceRiskAssessment  = "idv-device-risk-assessment"
	EventRateLimited           = "idv-rate-limited"
)

// Event is one attempt event. FailureReason is only present on failures.
type Event struct {
	ID              string              `json:"jti"`
	Type            string              `json:"event_type"`
	OccurredAt      time.Time           `json:"occurred_at"`
	UserID          string              `json:"user_uuid,omitempty"`
	ServiceProvider string              `json:"issuer,omitempty"`
	TraceID         string              `json:"trace_id,omitempty"`
	Success         bool                `json:"success"`
	FailureReason   map[string][]string `json:"failure_reason,omitempty"`
	Metadata        map[string]string   `json:"metadata,omitempty"`
}

// Context is shared by every event of one proofing attempt.
type Context struct {
	UserID          string
	ServiceProvider string
	TraceID         string
	RequestIP       string
	UserAgent       string
	OccurredAt      time.Time
}

func newEvent(eventType string, c Context, success bool, reason map[string][]string) Event {
	e := Event{
		ID:              uuid.NewString(),
		Type:            eventType,
		OccurredAt:      c.OccurredAt,
		UserID:          c.UserID,
		ServiceProvider: c.ServiceProvider,
		TraceID:         c.TraceID,
		Success:         success,
		Metadata:        map[string]string{},
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	if !success && len(reason) > 0 {
		e.FailureReason = reason
	}
	if c.RequestIP != "" {
		e.Metadata["user_ip_address"] = c.RequestIP
	}
	if c.UserAgent != "" {
		e.Metadata["user_agent"] = c.UserAgent
	}
	return e
}

// VerificationSubmitted summarizes resolution and state ID outcomes.
func VerificationSubmitted(c Context, success bool, documentState string, stages ...*vendors.Result) Event {
	reason := map[string][]string{}
	for _, r := range stages {
		for attr, codes := range FailureReason(r) {
			reason[attr] = mergeCodes(reason[attr], codes)
		}
	}
	e := newEvent(EventVerificationSubmitted, c, success, reason)
	if documentState != "" {
		e.Metadata["document_state"] = documentState
	}
	return e
}

// DeviceRiskAssessment reports the device profiling outcome.
func DeviceRiskAssessment(c Context, device *vendors.Result, fingerprint string) Event {
	success := device != nil && device.Success
	e := newEvent(EventDeviceRiskAssessment, c, success, FailureReason(device))
	if fingerprint != "" {
		e.Metadata["device_fingerprint"] = fingerprint
	}
	if device != nil && device.ReviewStatus != "" {
		e.Metadata["review_status"] = device.ReviewStatus
	}
	return e
}

// RateLimited reports that the user ran out of attempts for limiterType.
func RateLimited(c Context, limiterType string) Event {
	e := newEvent(EventRateLimited, c, false, nil)
	e.Metadata["limiter_type"] = limiterType
	return e
}

// FailureReason maps a result onto attribute keys and codes. Exceptions
// become a single vendor code so raw vendor text never leaves the process.
func FailureReason(r *vendors.Result) map[string][]string {
	if r == nil || r.Success {
		return nil
	}
	if r.HasException() {
		return map[string][]string{r.VendorName: {string(r.Exception.Kind)}}
	}
	out := make(map[string][]string, len(r.Errors))
	for attr, codes := range r.Errors {
		out[attr] = mergeCodes(nil, codes)
	}
	return out
}

func mergeCodes(existing, add []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(add))
	var out []string
	for _, c := range append(existing, add...) {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
