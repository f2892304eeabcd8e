package ssn

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestFingerprinter(t *testing.T) {
	fp, err := NewFingerprinter("current-key", []string{"old-key"})
	require.NoError(t, err)

	t.Run("dashes and spacing do not change the fingerprint", func(t *testing.T) {
		want := fp.Fingerprint("123456789")
		for _, variant := range []string{"123-45-6789", "123-456789", "12345-6789", " 123 45 6789 "} {
			assert.Equal(t, want, fp.Fingerprint(variant), variant)
		}
	})

	t.Run("fingerprints cover current and rotated keys", func(t *testing.T) {
		all := fp.Fingerprints("123-45-6789")
		require.Len(t, all, 2)
		assert.Equal(t, fp.Fingerprint("123456789"), all[0])

		old, err := NewFingerprinter("old-key", nil)
		require.NoError(t, err)
		assert.Equal(t, old.Fingerprint("123456789"), all[1])
	})

	t.Run("key is required", func(t *testing.T) {
		_, err := NewFingerprinter("", nil)
		assert.Error(t, err)
	})
}

// =============================================================================
// Duplicate SSN Finder Test Suite
// =============================================================================
// Justification for unit tests: uniqueness must hold across key rotation and
// SSN formatting, only active profiles in the one-account scope count, and a
// user's own profiles must never count against them.

type FinderSuite struct {
	suite.Suite
	store  *MemoryProfileStore
	finder *Finder
	ctx    context.Context
}

func TestFinderSuite(t *testing.T) {
	suite.Run(t, new(FinderSuite))
}

func (s *FinderSuite) SetupTest() {
	fp, err := NewFingerprinter("current-key", []string{"old-key"})
	s.Require().NoError(err)
	s.store = NewMemoryProfileStore()
	s.finder, err = NewFinder(fp, s.store)
	s.Require().NoError(err)
	s.ctx = context.Background()
}

func (s *FinderSuite) insert(userID, key, ssn string, active, facialMatch bool, issuer string) {
	fp, err := NewFingerprinter(key, nil)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Insert(s.ctx, Profile{
		ID:               userID + "-profile",
		UserID:           userID,
		Active:           active,
		FacialMatch:      facialMatch,
		InitiatingIssuer: issuer,
		SSNSignature:     fp.Fingerprint(ssn),
	}))
}

func (s *FinderSuite) TestIsUnique() {
	s.Run("unique when nobody holds the ssn", func() {
		s.SetupTest()
		unique, err := s.finder.IsUnique(s.ctx, "123-45-6789", "user-1")
		s.Require().NoError(err)
		s.True(unique)
	})

	s.Run("duplicate when another user holds the ssn", func() {
		s.SetupTest()
		s.insert("user-2", "current-key", "123456789", true, false, "")
		unique, err := s.finder.IsUnique(s.ctx, "123-45-6789", "user-1")
		s.Require().NoError(err)
		s.False(unique)
	})

	s.Run("duplicate regardless of hmac key age", func() {
		s.SetupTest()
		s.insert("user-2", "old-key", "123-45-6789", true, false, "")
		unique, err := s.finder.IsUnique(s.ctx, "123-45-6789", "user-1")
		s.Require().NoError(err)
		s.False(unique)
	})

	s.Run("own profile is not a duplicate", func() {
		s.SetupTest()
		s.insert("user-1", "old-key", "123-45-6789", true, false, "")
		unique, err := s.finder.IsUnique(s.ctx, "123-45-6789", "user-1")
		s.Require().NoError(err)
		s.True(unique)
	})
}

func (s *FinderSuite) TestScope() {
	s.Run("inactive profile of another user leaves the ssn unique", func() {
		s.SetupTest()
		s.insert("user-2", "current-key", "123456789", false, false, "")
		unique, err := s.finder.IsUnique(s.ctx, "123456789", "user-1")
		s.Require().NoError(err)
		s.True(unique)
	})

	s.Run("active facial match profile of another user is a duplicate", func() {
		s.SetupTest()
		s.insert("user-2", "current-key", "123-45-6789", true, true, "urn:facial-match-sp")
		unique, err := s.finder.IsUnique(s.ctx, "123456789", "user-1")
		s.Require().NoError(err)
		s.False(unique)
	})

	s.Run("one account issuers limit which profiles count", func() {
		s.SetupTest()
		fp, err := NewFingerprinter("current-key", []string{"old-key"})
		s.Require().NoError(err)
		scoped, err := NewFinder(fp, s.store, WithOneAccountIssuers([]string{"urn:facial-match-sp"}))
		s.Require().NoError(err)

		s.insert("user-2", "current-key", "123-45-6789", true, true, "urn:other-sp")
		unique, err := scoped.IsUnique(s.ctx, "123-45-6789", "user-1")
		s.Require().NoError(err)
		s.True(unique, "profile from an issuer outside the agreement")

		s.insert("user-3", "current-key", "123-45-6789", true, true, "urn:facial-match-sp")
		unique, err = scoped.IsUnique(s.ctx, "123-45-6789", "user-1")
		s.Require().NoError(err)
		s.False(unique)
	})
}

func TestPostgresProfileStore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store := NewPostgresProfileStore(db)

	t.Run("filters by signature and excludes the user", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "user_id", "active", "facial_match", "issuer", "ssn_signature"}).
			AddRow("p-2", "user-2", true, false, "", "sig")
		mock.ExpectQuery(`SELECT .* FROM profiles\s+WHERE ssn_signature = ANY\(\$1\) AND user_id <> \$2$`).
			WithArgs(sqlmock.AnyArg(), "user-1").
			WillReturnRows(rows)

		profiles, err := store.FindBySignatures(context.Background(), Query{Signatures: []string{"sig"}, ExcludeUserID: "user-1"})
		require.NoError(t, err)
		require.Len(t, profiles, 1)
		assert.Equal(t, "user-2", profiles[0].UserID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("scoped lookup filters active profiles by issuer", func(t *testing.T) {
		mock.ExpectQuery(`AND active AND initiating_service_provider_issuer = ANY\(\$3\)`).
			WithArgs(sqlmock.AnyArg(), "user-1", sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "active", "facial_match", "issuer", "ssn_signature"}))

		profiles, err := store.FindBySignatures(context.Background(), Query{
			Signatures:    []string{"sig"},
			ExcludeUserID: "user-1",
			ActiveOnly:    true,
			Issuers:       []string{"urn:sp"},
		})
		require.NoError(t, err)
		assert.Empty(t, profiles)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wraps query errors", func(t *testing.T) {
		mock.ExpectQuery("SELECT").WillReturnError(errors.New("connection reset"))

		_, err := store.FindBySignatures(context.Background(), Query{Signatures: []string{"sig"}})
		assert.ErrorContains(t, err, "query profiles")
	})

	t.Run("no signatures skips the query", func(t *testing.T) {
		profiles, err := store.FindBySignatures(context.Background(), Query{})
		require.NoError(t, err)
		assert.Nil(t, profiles)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
