package ssn

import (
	"context"
	"slices"
	"sync"
)

// MemoryProfileStore is an in-process ProfileStore for development and tests.
type MemoryProfileStore struct {
	mu       sync.RWMutex
	profiles []Profile
}

func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{}
}

func (s *MemoryProfileStore) Insert(_ context.Context, p Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles = append(s.profiles, p)
	return nil
}

func (s *MemoryProfileStore) FindBySignatures(_ context.Context, q Query) ([]Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Profile
	for _, p := range s.profiles {
		if p.UserID == q.ExcludeUserID || !slices.Contains(q.Signatures, p.SSNSignature) {
			continue
		}
		if q.ActiveOnly && !p.Active {
			continue
		}
		if len(q.Issuers) > 0 && !slices.Contains(q.Issuers, p.InitiatingIssuer) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}
