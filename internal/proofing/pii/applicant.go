// Package pii holds the applicant PII bundle and the encryptor that protects
// it between the web tier and the proofing worker.
package pii

import "strings"

// Applicant is the decrypted PII bundle a proofing job operates on.
// Residential address fields describe where the applicant lives; the
// IdentityDoc* fields describe the address printed on the state ID. In remote
// flows the two are the same and only the residential fields are populated.
type Applicant struct {
	UUID       string `json:"uuid,omitempty"`
	Email      string `json:"email,omitempty"`
	FirstName  string `json:"first_name"`
	MiddleName string `json:"middle_name,omitempty"`
	LastName   string `json:"last_name"`
	NameSuffix string `json:"name_suffix,omitempty"`
	DOB        string `json:"dob"`
	SSN        string `json:"ssn"`
	Phone      string `json:"phone,omitempty"`

	Address1 string `json:"address1"`
	Address2 string `json:"address2,omitempty"`
	City     string `json:"city"`
	State    string `json:"state"`
	Zipcode  string `json:"zipcode"`

	StateIDNumber       string `json:"state_id_number"`
	StateIDJurisdiction string `json:"state_id_jurisdiction"`
	StateIDExpiration   string `json:"state_id_expiration,omitempty"`
	StateIDIssued       string `json:"state_id_issued,omitempty"`
	IDDocType           string `json:"id_doc_type,omitempty"`

	IdentityDocAddress1     string `json:"identity_doc_address1,omitempty"`
	IdentityDocAddress2     string `json:"identity_doc_address2,omitempty"`
	IdentityDocCity         string `json:"identity_doc_city,omitempty"`
	IdentityDocAddressState string `json:"identity_doc_address_state,omitempty"`
	IdentityDocZipcode      string `json:"identity_doc_zipcode,omitempty"`

	Height   string `json:"height,omitempty"`
	Sex      string `json:"sex,omitempty"`
	Weight   string `json:"weight,omitempty"`
	EyeColor string `json:"eye_color,omitempty"`
}

// Address is a postal address.
type Address struct {
	Line1   string
	Line2   string
	City    string
	State   string
	Zipcode string
}

// ResidentialAddress returns the address the applicant lives at.
func (a Applicant) ResidentialAddress() Address {
	return Address{Line1: a.Address1, Line2: a.Address2, City: a.City, State: a.State, Zipcode: a.Zipcode}
}

// HasIdentityDocAddress reports whether a separate document address was captured.
func (a Applicant) HasIdentityDocAddress() bool {
	return a.IdentityDocAddress1 != "" || a.IdentityDocCity != "" || a.IdentityDocZipcode != ""
}

// IdentityDocAddress returns the address printed on the state ID, falling back
// to the residential address when none was captured separately.
func (a Applicant) IdentityDocAddress() Address {
	if !a.HasIdentityDocAddress() {
		return a.ResidentialAddress()
	}
	return Address{
		Line1:   a.IdentityDocAddress1,
		Line2:   a.IdentityDocAddress2,
		City:    a.IdentityDocCity,
		State:   a.IdentityDocAddressState,
		Zipcode: a.IdentityDocZipcode,
	}
}

// SameAddressAsID reports whether the document address equals the residential one.
func (a Applicant) SameAddressAsID() bool {
	return a.IdentityDocAddress().Equal(a.ResidentialAddress())
}

// WithAddress returns a copy of the applicant with the residential address replaced.
func (a Applicant) WithAddress(addr Address) Applicant {
	a.Address1 = addr.Line1
	a.Address2 = addr.Line2
	a.City = addr.City
	a.State = addr.State
	a.Zipcode = addr.Zipcode
	return a
}

// Equal compares addresses ignoring case, surrounding whitespace and ZIP+4.
func (x Address) Equal(y Address) bool {
	return norm(x.Line1) == norm(y.Line1) &&
		norm(x.Line2) == norm(y.Line2) &&
		norm(x.City) == norm(y.City) &&
		norm(x.State) == norm(y.State) &&
		zip5(x.Zipcode) == zip5(y.Zipcode)
}

func norm(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

func zip5(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 5 {
		return s[:5]
	}
	return s
}
