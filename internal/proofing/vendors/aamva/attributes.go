package aamva

import (
	"slices"

	"idv/internal/proofing/vendors"
)

// VendorName identifies AAMVA results.
const VendorName = "aamva:state_id"

// Error codes recorded per attribute on a failed verification.
const (
	ErrUnverified = "UNVERIFIED"
	ErrMissing    = "MISSING"
)

// matchIndicators maps each AAMVA match indicator element to the attribute it verifies.
var matchIndicators = map[string]vendors.Attribute{
	"DriverLicenseExpirationDateMatchIndicator": vendors.AttrStateIDExpiration,
	"DriverLicenseIssueDateMatchIndicator":      vendors.AttrStateIDIssued,
	"DriverLicenseNumberMatchIndicator":         vendors.AttrStateIDNumber,
	"DocumentCategoryMatchIndicator":            vendors.AttrIDDocType,
	"PersonBirthDateMatchIndicator":             vendors.AttrDOB,
	"PersonHeightMatchIndicator":                vendors.AttrHeight,
	"PersonSexCodeMatchIndicator":               vendors.AttrSex,
	"PersonWeightMatchIndicator":                vendors.AttrWeight,
	"PersonEyeColorMatchIndicator":              vendors.AttrEyeColor,
	"PersonLastNameExactMatchIndicator":         vendors.AttrLastName,
	"PersonFirstNameExactMatchIndicator":        vendors.AttrFirstName,
	"PersonMiddleNameExactMatchIndicator":       vendors.AttrMiddleName,
	"PersonNameSuffixMatchIndicator":            vendors.AttrNameSuffix,
	"AddressLine1MatchIndicator":                vendors.AttrAddress1,
	"AddressLine2MatchIndicator":                vendors.AttrAddress2,
	"AddressCityMatchIndicator":                 vendors.AttrCity,
	"AddressStateCodeMatchIndicator":            vendors.AttrState,
	"AddressZIP5MatchIndicator":                 vendors.AttrZipcode,
}

// mandatory attributes must all verify for the result to succeed.
var mandatory = []vendors.Attribute{
	vendors.AttrDOB,
	vendors.AttrFirstName,
	vendors.AttrLastName,
	vendors.AttrStateIDNumber,
	vendors.AttrStateIDExpiration,
}

var addressComponents = []vendors.Attribute{
	vendors.AttrAddress1,
	vendors.AttrAddress2,
	vendors.AttrCity,
	vendors.AttrState,
	vendors.AttrZipcode,
}

// address2 is optional on most documents so it never blocks address verification.
var requiredAddressComponents = []vendors.Attribute{
	vendors.AttrAddress1,
	vendors.AttrCity,
	vendors.AttrState,
	vendors.AttrZipcode,
}

// match is the tri-state outcome of one indicator.
type match int

const (
	matchMissing match = iota
	matchFalse
	matchTrue
)

// BuildResult turns parsed match indicators into a vendor result.
func BuildResult(resp *VerificationResponse) *vendors.Result {
	table := make(map[vendors.Attribute]match, len(matchIndicators))
	for element, attr := range matchIndicators {
		table[attr] = matchMissing
		if v, ok := resp.Indicators[element]; ok {
			if v {
				table[attr] = matchTrue
			} else {
				table[attr] = matchFalse
			}
		}
	}

	requested := map[vendors.Attribute]int{vendors.AttrStateIDJurisdiction: 1}
	var verified []vendors.Attribute

	for attr, m := range table {
		if slices.Contains(addressComponents, attr) {
			continue
		}
		if m != matchMissing {
			requested[attr] = 1
		}
		if m == matchTrue {
			verified = append(verified, attr)
		}
	}

	addressRequested := false
	for _, attr := range addressComponents {
		if table[attr] != matchMissing {
			addressRequested = true
		}
	}
	if addressRequested {
		requested[vendors.AttrAddress] = 1
		addressVerified := true
		for _, attr := range requiredAddressComponents {
			if table[attr] != matchTrue {
				addressVerified = false
			}
		}
		if addressVerified {
			verified = append(verified, vendors.AttrAddress)
		}
	}

	success := true
	for _, attr := range mandatory {
		if table[attr] != matchTrue {
			success = false
		}
	}

	var errs map[string][]string
	if !success {
		errs = make(map[string][]string)
		for attr, m := range table {
			switch m {
			case matchFalse:
				errs[string(attr)] = []string{ErrUnverified}
			case matchMissing:
				errs[string(attr)] = []string{ErrMissing}
			}
		}
	}

	return vendors.NewResult(vendors.Result{
		Success:             success,
		Errors:              errs,
		VendorName:          VendorName,
		TransactionID:       resp.TransactionID,
		VerifiedAttributes:  verified,
		RequestedAttributes: requested,
	})
}
