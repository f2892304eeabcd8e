// Package ddp is the LexisNexis ThreatMetrix Dynamic Decision Platform
// device-risk proofer.
package ddp

import (
	"context"
	"net/http"
	"time"

	"github.com/mssola/useragent"

	"idv/internal/proofing/vendors"
)

const VendorName = "lexisnexis:ddp"

// Review statuses returned by ThreatMetrix policies.
const (
	ReviewPass   = "pass"
	ReviewReview = "review"
	ReviewReject = "reject"
)

type Client struct {
	url        string
	apiKey     string
	policy     string
	httpClient *http.Client
}

func New(url, apiKey, policy string, timeout time.Duration) *Client {
	return &Client{url: url, apiKey: apiKey, policy: policy, httpClient: &http.Client{Timeout: timeout}}
}

type request struct {
	Policy           string `json:"policy"`
	SessionID        string `json:"session_id"`
	InputIPAddress   string `json:"input_ip_address,omitempty"`
	AccountEmail     string `json:"account_email,omitempty"`
	AccountFirstName string `json:"account_first_name,omitempty"`
	AccountLastName  string `json:"account_last_name,omitempty"`
	AccountDOB       string `json:"account_date_of_birth,omitempty"`
	AccountZip       string `json:"account_address_zip,omitempty"`
	LocalAttrib1     string `json:"local_attrib_1,omitempty"`
	Browser          string `json:"browser,omitempty"`
	OS               string `json:"os,omitempty"`
	Mobile           bool   `json:"mobile"`
}

type response struct {
	RequestID     string   `json:"request_id"`
	RequestResult string   `json:"request_result"`
	ReviewStatus  string   `json:"review_status"`
	RiskRating    string   `json:"risk_rating"`
	ReasonCodes   []string `json:"tmx_summary_reason_code"`
	FuzzyDeviceID string   `json:"fuzzy_device_id"`
}

func (c *Client) Proof(ctx context.Context, req vendors.DeviceRequest) *vendors.Result {
	ua := useragent.New(req.UserAgent)
	browser, _ := ua.Browser()
	body := request{
		Policy:           c.policy,
		SessionID:        req.SessionID,
		InputIPAddress:   req.RequestIP,
		AccountEmail:     req.Applicant.Email,
		AccountFirstName: req.Applicant.FirstName,
		AccountLastName:  req.Applicant.LastName,
		AccountDOB:       req.Applicant.DOB,
		AccountZip:       req.Applicant.Zipcode,
		LocalAttrib1:     req.ServiceProvider,
		Browser:          browser,
		OS:               ua.OS(),
		Mobile:           ua.Mobile(),
	}

	var resp response
	if err := vendors.PostJSON(ctx, c.httpClient, c.url, c.apiKey, body, &resp); err != nil {
		return vendors.Errored(VendorName, err)
	}
	result := ToResult(resp.RequestID, resp.RequestResult, resp.ReviewStatus, resp.ReasonCodes)
	result.DeviceFingerprint = resp.FuzzyDeviceID
	return result
}

// ToResult adjudicates a DDP response: only a "pass" review status succeeds,
// and a request_result other than success is an exception.
func ToResult(requestID, requestResult, reviewStatus string, reasons []string) *vendors.Result {
	if requestResult != "" && requestResult != "success" {
		return vendors.NewResult(vendors.Result{
			VendorName:    VendorName,
			TransactionID: requestID,
			Exception: &vendors.Exception{
				Kind:    vendors.ExceptionUnexpected,
				Message: "DDP raised unexpected request result: " + requestResult,
			},
		})
	}

	var errs map[string][]string
	if reviewStatus != ReviewPass {
		errs = map[string][]string{"review_status": {reviewStatus}}
		if len(reasons) > 0 {
			errs[vendors.BaseErrorKey] = reasons
		}
	}
	return vendors.NewResult(vendors.Result{
		Success:       reviewStatus == ReviewPass,
		Errors:        errs,
		VendorName:    VendorName,
		TransactionID: requestID,
		ReviewStatus:  reviewStatus,
	})
}
