// Package aead seals small payloads with XChaCha20-Poly1305 under a key
// derived from an application secret.
package aead

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// ErrOpen is returned when a sealed blob cannot be authenticated.
var ErrOpen = errors.New("aead: message authentication failed")

// Sealer encrypts and authenticates payloads. Associated data binds a blob to
// its storage key so a record copied under another id fails to open.
type Sealer struct {
	key []byte
}

// New derives a 256-bit key from secret using HKDF-SHA256 with info as the
// purpose label. Distinct labels yield independent keys from one secret.
func New(secret []byte, info string) (*Sealer, error) {
	if len(secret) == 0 {
		return nil, errors.New("aead: secret is required")
	}
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("aead: derive key: %w", err)
	}
	return &Sealer{key: key}, nil
}

// Seal returns nonce || ciphertext.
func (s *Sealer) Seal(plaintext, associatedData []byte) ([]byte, error) {
	c, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, fmt.Errorf("aead: init cipher: %w", err)
	}
	nonce := make([]byte, c.NonceSize(), c.NonceSize()+len(plaintext)+c.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("aead: nonce: %w", err)
	}
	return c.Seal(nonce, nonce, plaintext, associatedData), nil
}

// Open reverses Seal. Any tampering, truncation or wrong associated data
// yields ErrOpen.
func (s *Sealer) Open(sealed, associatedData []byte) ([]byte, error) {
	c, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, fmt.Errorf("aead: init cipher: %w", err)
	}
	if len(sealed) < c.NonceSize()+c.Overhead() {
		return nil, ErrOpen
	}
	nonce, ciphertext := sealed[:c.NonceSize()], sealed[c.NonceSize():]
	plaintext, err := c.Open(nil, nonce, ciphertext, associatedData)
	if err != nil {
		return nil, ErrOpen
	}
	return plaintext, nil
}
