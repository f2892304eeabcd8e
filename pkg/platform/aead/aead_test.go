package aead

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealer(t *testing.T) {
	s, err := New([]byte("0123456789abcdef0123456789abcdef"), "idv.test")
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		sealed, err := s.Seal([]byte(`{"ok":true}`), []byte("id-1"))
		require.NoError(t, err)
		opened, err := s.Open(sealed, []byte("id-1"))
		require.NoError(t, err)
		assert.Equal(t, `{"ok":true}`, string(opened))
	})

	t.Run("nonces differ between seals", func(t *testing.T) {
		a, err := s.Seal([]byte("x"), nil)
		require.NoError(t, err)
		b, err := s.Seal([]byte("x"), nil)
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("wrong associated data fails", func(t *testing.T) {
		sealed, err := s.Seal([]byte("payload"), []byte("id-1"))
		require.NoError(t, err)
		_, err = s.Open(sealed, []byte("id-2"))
		assert.ErrorIs(t, err, ErrOpen)
	})

	t.Run("tampered ciphertext fails", func(t *testing.T) {
		sealed, err := s.Seal([]byte("payload"), nil)
		require.NoError(t, err)
		sealed[len(sealed)-1] ^= 0xff
		_, err = s.Open(sealed, nil)
		assert.ErrorIs(t, err, ErrOpen)
	})

	t.Run("truncated blob fails", func(t *testing.T) {
		_, err := s.Open([]byte("short"), nil)
		assert.ErrorIs(t, err, ErrOpen)
	})

	t.Run("different purpose label cannot open", func(t *testing.T) {
		other, err := New([]byte("0123456789abcdef0123456789abcdef"), "idv.other")
		require.NoError(t, err)
		sealed, err := s.Seal([]byte("payload"), nil)
		require.NoError(t, err)
		_, err = other.Open(sealed, nil)
		assert.ErrorIs(t, err, ErrOpen)
	})

	t.Run("empty secret rejected", func(t *testing.T) {
		_, err := New(nil, "idv.test")
		assert.Error(t, err)
	})
}
