// Package socure is the Socure KYC resolution proofer, used as the alternate
// vendor family and for shadow-mode comparison.
package socure

import (
	"context"
	"net/http"
	"time"

	"idv/internal/proofing/pii"
	"idv/internal/proofing/vendors"
)

const VendorName = "socure_kyc"

// verifiedScore is the field validation score at which Socure considers a field matched.
const verifiedScore = 0.99

type Client struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

func New(url, apiKey string, timeout time.Duration) *Client {
	return &Client{url: url, apiKey: apiKey, httpClient: &http.Client{Timeout: timeout}}
}

type request struct {
	Modules       []string `json:"modules"`
	FirstName     string   `json:"firstName"`
	SurName       string   `json:"surName"`
	DOB           string   `json:"dob"`
	NationalID    string   `json:"nationalId"`
	PhysicalAddr  string   `json:"physicalAddress"`
	PhysicalAddr2 string   `json:"physicalAddress2,omitempty"`
	City          string   `json:"city"`
	State         string   `json:"state"`
	Zip           string   `json:"zip"`
	Country       string   `json:"country"`
	Email         string   `json:"email,omitempty"`
}

type response struct {
	ReferenceID string `json:"referenceId"`
	KYC         struct {
		ReasonCodes      []string           `json:"reasonCodes"`
		FieldValidations map[string]float64 `json:"fieldValidations"`
	} `json:"kyc"`
}

var fields = map[string]vendors.Attribute{
	"firstName":       vendors.AttrFirstName,
	"surName":         vendors.AttrLastName,
	"dob":             vendors.AttrDOB,
	"ssn":             vendors.AttrSSN,
	"streetAddress":   vendors.AttrAddress,
	"city":            vendors.AttrAddress,
	"state":           vendors.AttrAddress,
	"zip":             vendors.AttrAddress,
	"mobileNumber":    "",
	"emailAddress":    "",
	"nationalIdMatch": vendors.AttrSSN,
}

// required attributes must all verify for a passing result.
var required = []vendors.Attribute{
	vendors.AttrFirstName,
	vendors.AttrLastName,
	vendors.AttrDOB,
	vendors.AttrSSN,
	vendors.AttrAddress,
}

func (c *Client) Proof(ctx context.Context, a pii.Applicant) *vendors.Result {
	req := request{
		Modules:       []string{"kyc"},
		FirstName:     a.FirstName,
		SurName:       a.LastName,
		DOB:           a.DOB,
		NationalID:    a.SSN,
		PhysicalAddr:  a.Address1,
		PhysicalAddr2: a.Address2,
		City:          a.City,
		State:         a.State,
		Zip:           a.Zipcode,
		Country:       "US",
		Email:         a.Email,
	}
	var resp response
	if err := vendors.PostJSON(ctx, c.httpClient, c.url, c.apiKey, req, &resp); err != nil {
		return vendors.Errored(VendorName, err)
	}
	return toResult(resp)
}

func toResult(resp response) *vendors.Result {
	requested := map[vendors.Attribute]int{}
	// an attribute fed by several fields verifies only if every field does
	status := map[vendors.Attribute]bool{}
	for field, score := range resp.KYC.FieldValidations {
		attr, ok := fields[field]
		if !ok || attr == "" {
			continue
		}
		requested[attr] = 1
		prev, seen := status[attr]
		status[attr] = (prev || !seen) && score >= verifiedScore
	}

	var verified []vendors.Attribute
	for attr, ok := range status {
		if ok {
			verified = append(verified, attr)
		}
	}

	success := true
	errs := map[string][]string{}
	for _, attr := range required {
		if !status[attr] {
			success = false
			errs[string(attr)] = []string{"UNVERIFIED"}
		}
	}
	if !success && len(resp.KYC.ReasonCodes) > 0 {
		errs[vendors.BaseErrorKey] = resp.KYC.ReasonCodes
	}

	return vendors.NewResult(vendors.Result{
		Success:             success,
		Errors:              errs,
		VendorName:          VendorName,
		TransactionID:       resp.ReferenceID,
		VerifiedAttributes:  verified,
		RequestedAttributes: requested,
	})
}
