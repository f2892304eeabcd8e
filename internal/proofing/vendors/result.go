package vendors

import (
	"slices"
	"strings"
)

// Attribute names a piece of PII a vendor was asked to verify.
type Attribute string

const (
	AttrDOB                 Attribute = "dob"
	AttrFirstName           Attribute = "first_name"
	AttrMiddleName          Attribute = "middle_name"
	AttrLastName            Attribute = "last_name"
	AttrNameSuffix          Attribute = "name_suffix"
	AttrSSN                 Attribute = "ssn"
	AttrAddress             Attribute = "address"
	AttrAddress1            Attribute = "address1"
	AttrAddress2            Attribute = "address2"
	AttrCity                Attribute = "city"
	AttrState               Attribute = "state"
	AttrZipcode             Attribute = "zipcode"
	AttrStateIDNumber       Attribute = "state_id_number"
	AttrStateIDExpiration   Attribute = "state_id_expiration"
	AttrStateIDIssued       Attribute = "state_id_issued"
	AttrStateIDJurisdiction Attribute = "state_id_jurisdiction"
	AttrIDDocType           Attribute = "id_doc_type"
	AttrHeight              Attribute = "height"
	AttrSex                 Attribute = "sex"
	AttrWeight              Attribute = "weight"
	AttrEyeColor            Attribute = "eye_color"
)

// BaseErrorKey is used for errors that are not tied to one attribute.
const BaseErrorKey = "base"

// Kind is the tagged outcome of a vendor call.
type Kind string

const (
	KindPassed    Kind = "passed"
	KindFailed    Kind = "failed"
	KindException Kind = "exception"
)

// Result is the immutable outcome of one vendor plugin. Build it through the
// constructors in this file so the invariants hold:
//   - an exception always means Success is false
//   - Success means Errors is empty
type Result struct {
	Success             bool                `json:"success"`
	Errors              map[string][]string `json:"errors,omitempty"`
	Exception           *Exception          `json:"exception,omitempty"`
	VendorName          string              `json:"vendor_name"`
	TransactionID       string              `json:"transaction_id,omitempty"`
	ReviewStatus        string              `json:"review_status,omitempty"`
	VerifiedAttributes  []Attribute         `json:"verified_attributes,omitempty"`
	RequestedAttributes map[Attribute]int   `json:"requested_attributes,omitempty"`

	JurisdictionInMaintenanceWindow bool   `json:"jurisdiction_in_maintenance_window,omitempty"`
	DeviceFingerprint               string `json:"device_fingerprint,omitempty"`
}

// NewResult normalizes r and returns it.
func NewResult(r Result) *Result {
	if r.Exception != nil {
		r.Success = false
	}
	if r.Success || len(r.Errors) == 0 {
		r.Errors = nil
	}
	r.TransactionID = strings.TrimSpace(r.TransactionID)
	if len(r.VerifiedAttributes) > 0 {
		attrs := slices.Clone(r.VerifiedAttributes)
		slices.Sort(attrs)
		r.VerifiedAttributes = slices.Compact(attrs)
	} else {
		r.VerifiedAttributes = nil
	}
	if len(r.RequestedAttributes) == 0 {
		r.RequestedAttributes = nil
	}
	return &r
}

// Passed is a successful result with no attribute detail.
func Passed(vendor string) *Result {
	return NewResult(Result{Success: true, VendorName: vendor})
}

// Failed is a verification failure. errs may be empty for synthetic failures.
func Failed(vendor string, errs map[string][]string) *Result {
	return NewResult(Result{Success: false, VendorName: vendor, Errors: errs})
}

// Errored wraps a transport or vendor error into an exception result.
func Errored(vendor string, err error) *Result {
	return NewResult(Result{VendorName: vendor, Exception: ExceptionFrom(err)})
}

// NotApplicable is the null-object result for a vendor that was skipped
// because it does not apply to this applicant. It counts as passing.
func NotApplicable(vendor string) *Result {
	return Passed(vendor)
}

// ResolutionCannotPassVendor names the synthetic result used when a state ID
// address check is skipped because residential resolution already failed.
const ResolutionCannotPassVendor = "ResolutionCannotPass"

// ResolutionCannotPass is the synthetic failed result for skipped checks that
// could not have passed adjudication.
func ResolutionCannotPass() *Result {
	return Failed(ResolutionCannotPassVendor, nil)
}

// Kind returns the tagged outcome.
func (r *Result) Kind() Kind {
	switch {
	case r.Exception != nil:
		return KindException
	case r.Success:
		return KindPassed
	default:
		return KindFailed
	}
}

// Failed reports a verification failure: errors present and no exception.
func (r *Result) Failed() bool {
	return r.Exception == nil && len(r.Errors) > 0
}

// HasException reports whether the vendor call itself failed.
func (r *Result) HasException() bool {
	return r.Exception != nil
}

// TimedOut reports a transport-level timeout.
func (r *Result) TimedOut() bool {
	return r.exceptionIs(ExceptionTimeout)
}

func (r *Result) MVAUnavailable() bool { return r.exceptionIs(ExceptionMVAUnavailable) }

func (r *Result) MVASystemError() bool { return r.exceptionIs(ExceptionMVASystemError) }

func (r *Result) MVATimeout() bool { return r.exceptionIs(ExceptionMVATimeout) }

// MVAException reports any exception raised by the state motor vehicle agency.
func (r *Result) MVAException() bool {
	return r.MVAUnavailable() || r.MVASystemError() || r.MVATimeout()
}

func (r *Result) RateLimited() bool { return r.exceptionIs(ExceptionRateLimited) }

// Verified reports whether attr is in the verified set.
func (r *Result) Verified(attr Attribute) bool {
	_, found := slices.BinarySearch(r.VerifiedAttributes, attr)
	return found
}

func (r *Result) exceptionIs(kind ExceptionKind) bool {
	return r.Exception != nil && r.Exception.Kind == kind
}
