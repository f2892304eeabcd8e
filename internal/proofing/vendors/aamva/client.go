package aamva

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"time"

	"idv/internal/proofing/pii"
	"idv/internal/proofing/vendors"
)

// Client verifies state ID data with the AAMVA DLDV service over SOAP.
type Client struct {
	url        string
	apiKey     string
	httpClient *http.Client
	schedule   *Schedule
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithSchedule sets the jurisdiction maintenance schedule.
func WithSchedule(s *Schedule) Option {
	return func(c *Client) { c.schedule = s }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithClock sets the time source used for maintenance window checks.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func New(url, apiKey string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		url:        url,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Proof submits the applicant's state ID and maps the match indicators.
func (c *Client) Proof(ctx context.Context, applicant pii.Applicant) *vendors.Result {
	result := c.proof(ctx, applicant)
	result.JurisdictionInMaintenanceWindow = c.schedule.InMaintenanceWindow(applicant.StateIDJurisdiction, c.now())
	return result
}

func (c *Client) proof(ctx context.Context, applicant pii.Applicant) *vendors.Result {
	payload, err := xml.Marshal(newVerificationRequest(applicant))
	if err != nil {
		return vendors.Errored(VendorName, fmt.Errorf("marshal request: %w", err))
	}

	body, err := vendors.Post(ctx, c.httpClient, c.url, "application/soap+xml; charset=utf-8", c.apiKey, append([]byte(xml.Header), payload...))
	if err != nil {
		var httpErr *vendors.HTTPError
		if errors.As(err, &httpErr) {
			if fault := ParseFault(body); fault != "" {
				return vendors.Errored(VendorName, &VerificationError{Message: fault})
			}
		}
		return vendors.Errored(VendorName, err)
	}

	resp, err := ParseVerificationResponse(body)
	if err != nil {
		return vendors.Errored(VendorName, err)
	}
	return BuildResult(resp)
}

type verificationRequest struct {
	XMLName xml.Name `xml:"soap:Envelope"`
	SoapNS  string   `xml:"xmlns:soap,attr"`
	Body    struct {
		Verify verifyDriverLicenseData `xml:"VerifyDriverLicenseData"`
	} `xml:"soap:Body"`
}

type verifyDriverLicenseData struct {
	Jurisdiction     string `xml:"MessageDestinationId"`
	DocumentNumber   string `xml:"DriverLicenseNumber"`
	DocumentCategory string `xml:"DocumentCategoryCode,omitempty"`
	IssueDate        string `xml:"DriverLicenseIssueDate,omitempty"`
	ExpirationDate   string `xml:"DriverLicenseExpirationDate,omitempty"`
	FirstName        string `xml:"PersonGivenName"`
	MiddleName       string `xml:"PersonMiddleName,omitempty"`
	LastName         string `xml:"PersonSurName"`
	NameSuffix       string `xml:"PersonNameSuffix,omitempty"`
	BirthDate        string `xml:"PersonBirthDate"`
	Sex              string `xml:"PersonSexCode,omitempty"`
	Height           string `xml:"PersonHeightMeasure,omitempty"`
	Weight           string `xml:"PersonWeightMeasure,omitempty"`
	EyeColor         string `xml:"PersonEyeColorCode,omitempty"`
	AddressLine1     string `xml:"AddressDeliveryPointText"`
	AddressLine2     string `xml:"AddressDeliveryPointText2,omitempty"`
	City             string `xml:"AddressCityName"`
	State            string `xml:"AddressStateCode"`
	Zip              string `xml:"AddressPostalCode"`
}

func newVerificationRequest(a pii.Applicant) verificationRequest {
	var req verificationRequest
	req.SoapNS = "http://www.w3.org/2003/05/soap-envelope"
	req.Body.Verify = verifyDriverLicenseData{
		Jurisdiction:     a.StateIDJurisdiction,
		DocumentNumber:   a.StateIDNumber,
		DocumentCategory: a.IDDocType,
		IssueDate:        a.StateIDIssued,
		ExpirationDate:   a.StateIDExpiration,
		FirstName:        a.FirstName,
		MiddleName:       a.MiddleName,
		LastName:         a.LastName,
		NameSuffix:       a.NameSuffix,
		BirthDate:        a.DOB,
		Sex:              a.Sex,
		Height:           a.Height,
		Weight:           a.Weight,
		EyeColor:         a.EyeColor,
		AddressLine1:     a.Address1,
		AddressLine2:     a.Address2,
		City:             a.City,
		State:            a.State,
		Zip:              a.Zipcode,
	}
	return req
}
