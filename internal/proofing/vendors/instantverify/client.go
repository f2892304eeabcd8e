// Package instantverify is the LexisNexis Instant Verify resolution proofer.
package instantverify

import (
	"context"
	"net/http"
	"time"

	"idv/internal/proofing/pii"
	"idv/internal/proofing/vendors"
)

const VendorName = "lexisnexis:instant_verify"

// Client calls the Instant Verify workflow.
type Client struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

func New(url, apiKey string, timeout time.Duration) *Client {
	return &Client{url: url, apiKey: apiKey, httpClient: &http.Client{Timeout: timeout}}
}

type request struct {
	FirstName string `json:"FirstName"`
	LastName  string `json:"LastName"`
	DOB       string `json:"DateOfBirth"`
	SSN       string `json:"SSN"`
	Address1  string `json:"StreetAddress1"`
	Address2  string `json:"StreetAddress2,omitempty"`
	City      string `json:"City"`
	State     string `json:"State"`
	Zip       string `json:"Zip5"`
}

type response struct {
	Status struct {
		TransactionID     string `json:"TransactionId"`
		TransactionStatus string `json:"TransactionStatus"`
		TransactionReason string `json:"TransactionReasonCode,omitempty"`
	} `json:"Status"`
	Products []struct {
		ProductType   string `json:"ProductType"`
		ProductStatus string `json:"ProductStatus"`
		Items         []struct {
			ItemName   string `json:"ItemName"`
			ItemStatus string `json:"ItemStatus"`
		} `json:"Items"`
	} `json:"Products"`
}

// items maps Instant Verify check names to the attribute they confirm.
var items = map[string]vendors.Attribute{
	"FirstNameMatch": vendors.AttrFirstName,
	"LastNameMatch":  vendors.AttrLastName,
	"DOBMatch":       vendors.AttrDOB,
	"SSNMatch":       vendors.AttrSSN,
	"AddressMatch":   vendors.AttrAddress,
}

func (c *Client) Proof(ctx context.Context, a pii.Applicant) *vendors.Result {
	req := request{
		FirstName: a.FirstName,
		LastName:  a.LastName,
		DOB:       a.DOB,
		SSN:       a.SSN,
		Address1:  a.Address1,
		Address2:  a.Address2,
		City:      a.City,
		State:     a.State,
		Zip:       a.Zipcode,
	}
	var resp response
	if err := vendors.PostJSON(ctx, c.httpClient, c.url, c.apiKey, req, &resp); err != nil {
		return vendors.Errored(VendorName, err)
	}
	return toResult(resp)
}

func toResult(resp response) *vendors.Result {
	if resp.Status.TransactionStatus == "error" {
		return vendors.NewResult(vendors.Result{
			VendorName:    VendorName,
			TransactionID: resp.Status.TransactionID,
			Exception: &vendors.Exception{
				Kind:    vendors.ExceptionSystemError,
				Message: "transaction error: " + resp.Status.TransactionReason,
			},
		})
	}

	requested := map[vendors.Attribute]int{}
	var verified []vendors.Attribute
	errs := map[string][]string{}
	for _, product := range resp.Products {
		for _, item := range product.Items {
			attr, ok := items[item.ItemName]
			if !ok {
				continue
			}
			requested[attr] = 1
			if item.ItemStatus == "pass" {
				verified = append(verified, attr)
			} else {
				errs[string(attr)] = append(errs[string(attr)], item.ItemName)
			}
		}
		if product.ProductStatus != "pass" && len(product.Items) == 0 {
			errs[vendors.BaseErrorKey] = append(errs[vendors.BaseErrorKey], product.ProductType)
		}
	}

	return vendors.NewResult(vendors.Result{
		Success:             resp.Status.TransactionStatus == "passed",
		Errors:              errs,
		VendorName:          VendorName,
		TransactionID:       resp.Status.TransactionID,
		VerifiedAttributes:  verified,
		RequestedAttributes: requested,
	})
}
