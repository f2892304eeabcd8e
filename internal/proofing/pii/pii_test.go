package pii

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptorRoundTrip(t *testing.T) {
	enc, err := NewEncryptor([]byte("test-secret-test-secret-test-sec"))
	require.NoError(t, err)

	applicant := Applicant{FirstName: "FAKEY", LastName: "MCFAKERSON", SSN: "900-12-3456"}
	ciphertext, err := enc.EncryptApplicant(applicant, "result-1")
	require.NoError(t, err)
	assert.NotContains(t, ciphertext, "MCFAKERSON")

	plaintext, err := enc.Decrypt(ciphertext, "result-1")
	require.NoError(t, err)
	decoded, err := DecodeApplicant(plaintext)
	require.NoError(t, err)
	assert.Equal(t, applicant, decoded)

	t.Run("wrong context", func(t *testing.T) {
		_, err := enc.Decrypt(ciphertext, "result-2")
		assert.ErrorIs(t, err, ErrDecrypt)
	})

	t.Run("not base64", func(t *testing.T) {
		_, err := enc.Decrypt("%%%", "result-1")
		assert.ErrorIs(t, err, ErrDecrypt)
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := DecodeApplicant([]byte("{"))
		assert.ErrorIs(t, err, ErrDecrypt)
	})
}

func TestSameAddressAsID(t *testing.T) {
	base := Applicant{Address1: "1 FAKE RD", City: "GREAT FALLS", State: "MT", Zipcode: "59010"}

	t.Run("no document address falls back to residential", func(t *testing.T) {
		assert.True(t, base.SameAddressAsID())
	})

	t.Run("matching document address ignoring case and zip4", func(t *testing.T) {
		a := base
		a.IdentityDocAddress1 = "1 fake rd"
		a.IdentityDocCity = "Great  Falls"
		a.IdentityDocAddressState = "mt"
		a.IdentityDocZipcode = "59010-1234"
		assert.True(t, a.SameAddressAsID())
	})

	t.Run("different document address", func(t *testing.T) {
		a := base
		a.IdentityDocAddress1 = "123 WAY ST"
		a.IdentityDocCity = "BEST CITY"
		a.IdentityDocAddressState = "VA"
		a.IdentityDocZipcode = "12345"
		assert.False(t, a.SameAddressAsID())

		swapped := a.WithAddress(a.IdentityDocAddress())
		assert.Equal(t, "123 WAY ST", swapped.Address1)
		assert.Equal(t, "VA", swapped.State)
		assert.Equal(t, "1 FAKE RD", a.Address1)
	})
}
