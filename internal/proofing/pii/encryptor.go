package pii

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"idv/pkg/platform/aead"
)

// ErrDecrypt means the payload was tampered with, truncated, or sealed for a
// different context.
var ErrDecrypt = errors.New("pii: unable to decrypt arguments")

// Encryptor seals applicant PII for transport through the job queue. The
// context string (the result id) is bound as associated data.
type Encryptor struct {
	sealer *aead.Sealer
}

// NewEncryptor derives the argument key from the application secret.
func NewEncryptor(secret []byte) (*Encryptor, error) {
	s, err := aead.New(secret, "idv.proofing.arguments.v1")
	if err != nil {
		return nil, err
	}
	return &Encryptor{sealer: s}, nil
}

// Encrypt seals plaintext and returns it base64 encoded.
func (e *Encryptor) Encrypt(plaintext []byte, context string) (string, error) {
	sealed, err := e.sealer.Seal(plaintext, []byte(context))
	if err != nil {
		return "", fmt.Errorf("seal arguments: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt.
func (e *Encryptor) Decrypt(ciphertext string, context string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, ErrDecrypt
	}
	plaintext, err := e.sealer.Open(raw, []byte(context))
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

// EncryptApplicant serializes and seals an applicant.
func (e *Encryptor) EncryptApplicant(a Applicant, context string) (string, error) {
	raw, err := json.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("marshal applicant: %w", err)
	}
	return e.Encrypt(raw, context)
}

// DecodeApplicant parses decrypted arguments. Malformed JSON is reported as
// ErrDecrypt since it cannot be told apart from corruption.
func DecodeApplicant(plaintext []byte) (Applicant, error) {
	var a Applicant
	if err := json.Unmarshal(plaintext, &a); err != nil {
		return Applicant{}, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return a, nil
}
