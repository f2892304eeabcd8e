package ssn

import (
	"context"
	"errors"
	"fmt"
)

// Profile is the slice of a verified profile needed for duplicate detection.
type Profile struct {
	ID               string
	UserID           string
	Active           bool
	FacialMatch      bool
	InitiatingIssuer string
	SSNSignature     string
}

// Query narrows a signature lookup.
type Query struct {
	Signatures    []string
	ExcludeUserID string
	ActiveOnly    bool
	// Issuers, when set, restricts the lookup to profiles initiated by these issuers.
	Issuers []string
}

// ProfileStore finds profiles by SSN signature.
type ProfileStore interface {
	FindBySignatures(ctx context.Context, q Query) ([]Profile, error)
}

// Finder detects SSNs already used by another user's profile.
type Finder struct {
	fingerprinter     *Fingerprinter
	store             ProfileStore
	oneAccountIssuers []string
}

// Option configures a Finder.
type Option func(*Finder)

// WithOneAccountIssuers limits duplicate checks to profiles initiated by
// issuers in the one-account-per-person agreement. Empty means every issuer.
func WithOneAccountIssuers(issuers []string) Option {
	return func(f *Finder) { f.oneAccountIssuers = issuers }
}

func NewFinder(fp *Fingerprinter, store ProfileStore, opts ...Option) (*Finder, error) {
	if fp == nil {
		return nil, errors.New("ssn: fingerprinter is required")
	}
	if store == nil {
		return nil, errors.New("ssn: profile store is required")
	}
	f := &Finder{fingerprinter: fp, store: store}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// IsUnique reports whether no other user holds an active profile with this
// SSN. Profiles belonging to userID never count as duplicates.
func (f *Finder) IsUnique(ctx context.Context, ssn, userID string) (bool, error) {
	profiles, err := f.store.FindBySignatures(ctx, Query{
		Signatures:    f.fingerprinter.Fingerprints(ssn),
		ExcludeUserID: userID,
		ActiveOnly:    true,
		Issuers:       f.oneAccountIssuers,
	})
	if err != nil {
		return false, fmt.Errorf("find profiles by ssn: %w", err)
	}
	return len(profiles) == 0, nil
}
