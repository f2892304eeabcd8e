// Package ssn answers whether an SSN already belongs to another account
// without ever storing or comparing the SSN itself.
package ssn

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// Fingerprinter signs normalized SSNs with the current HMAC key and any
// rotated-out keys still present on stored profiles.
type Fingerprinter struct {
	current []byte
	old     [][]byte
}

func NewFingerprinter(key string, oldKeys []string) (*Fingerprinter, error) {
	if key == "" {
		return nil, errors.New("ssn: hmac key is required")
	}
	f := &Fingerprinter{current: []byte(key)}
	for _, k := range oldKeys {
		if k != "" {
			f.old = append(f.old, []byte(k))
		}
	}
	return f, nil
}

// Fingerprint is the signature stored on new profiles.
func (f *Fingerprinter) Fingerprint(ssn string) string {
	return sign(f.current, Normalize(ssn))
}

// Fingerprints returns the signature under every known key, current first.
func (f *Fingerprinter) Fingerprints(ssn string) []string {
	normalized := Normalize(ssn)
	out := make([]string, 0, 1+len(f.old))
	out = append(out, sign(f.current, normalized))
	for _, k := range f.old {
		out = append(out, sign(k, normalized))
	}
	return out
}

// Normalize keeps only the digits, so dashes and spacing never change a fingerprint.
func Normalize(ssn string) string {
	var b strings.Builder
	b.Grow(len(ssn))
	for _, r := range ssn {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func sign(key []byte, value string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(value))
	return hex.EncodeToString(mac.Sum(nil))
}
