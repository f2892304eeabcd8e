package vendors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ExceptionKind is the normalized taxonomy of vendor call failures.
type ExceptionKind string

const (
	// ExceptionTimeout indicates the vendor did not answer within the request timeout
	ExceptionTimeout ExceptionKind = "timeout"

	// ExceptionMVAUnavailable indicates the state motor vehicle agency is offline
	ExceptionMVAUnavailable ExceptionKind = "mva_unavailable"

	// ExceptionMVASystemError indicates the state motor vehicle agency failed internally
	ExceptionMVASystemError ExceptionKind = "mva_system_error"

	// ExceptionMVATimeout indicates the AAMVA hub timed out waiting for the agency
	ExceptionMVATimeout ExceptionKind = "mva_timeout"

	// ExceptionRateLimited indicates too many requests
	ExceptionRateLimited ExceptionKind = "rate_limited"

	// ExceptionSystemError indicates the vendor returned a server error or fault
	ExceptionSystemError ExceptionKind = "system_error"

	// ExceptionUnexpected indicates a response shape we could not interpret
	ExceptionUnexpected ExceptionKind = "unexpected"

	// ExceptionCircuitOpen indicates the call was skipped because the vendor kept failing
	ExceptionCircuitOpen ExceptionKind = "circuit_open"

	// ExceptionCanceled indicates our side abandoned the call before the vendor answered
	ExceptionCanceled ExceptionKind = "canceled"
)

// AAMVA embeds exception ids in fault text, e.g. "ExceptionId: 0047".
const (
	mvaUnavailableID = "ExceptionId: 0001"
	mvaSystemErrorID = "ExceptionId: 0002"
	mvaTimeoutID     = "ExceptionId: 0047"
)

// Exception is the classified failure carried by a Result.
type Exception struct {
	Kind    ExceptionKind `json:"kind"`
	Message string        `json:"message"`
}

func (e *Exception) Error() string {
	return fmt.Sprintf("vendor exception [%s]: %s", e.Kind, e.Message)
}

// Retryable reports whether a later resubmission could plausibly succeed.
func (e *Exception) Retryable() bool {
	switch e.Kind {
	case ExceptionTimeout, ExceptionMVAUnavailable, ExceptionMVATimeout, ExceptionRateLimited,
		ExceptionCircuitOpen, ExceptionCanceled:
		return true
	}
	return false
}

// HTTPError is returned by vendor clients for non-success HTTP statuses.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Classify maps a raw vendor error to an exception kind. It is a pure function
// of the error chain and message text.
func Classify(err error) ExceptionKind {
	if err == nil {
		return ""
	}

	var exc *Exception
	if errors.As(err, &exc) {
		return exc.Kind
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, mvaUnavailableID):
		return ExceptionMVAUnavailable
	case strings.Contains(msg, mvaSystemErrorID):
		return ExceptionMVASystemError
	case strings.Contains(msg, mvaTimeoutID):
		return ExceptionMVATimeout
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ExceptionTimeout
	}
	if errors.Is(err, context.Canceled) {
		return ExceptionCanceled
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ExceptionTimeout
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode == http.StatusTooManyRequests:
			return ExceptionRateLimited
		case httpErr.StatusCode == http.StatusGatewayTimeout:
			return ExceptionTimeout
		case httpErr.StatusCode >= 500:
			return ExceptionSystemError
		}
	}
	return ExceptionUnexpected
}

// ExceptionFrom classifies err into an Exception. Messages are kept for logs
// and never shown to applicants.
func ExceptionFrom(err error) *Exception {
	if err == nil {
		return nil
	}
	var exc *Exception
	if errors.As(err, &exc) {
		return exc
	}
	return &Exception{Kind: Classify(err), Message: err.Error()}
}
