// Package vault implements the Credential Vault (C1): an authenticated-
// encryption envelope for user-supplied third-party API keys, with a
// per-user index and capability metadata.
//
// The encryption scheme mirrors the source system's: the vault key is
// derived from a process-wide master secret via SHA-256, each ciphertext
// gets a fresh 96-bit nonce from a CSPRNG, and the wire format is
// base64(nonce ‖ AEAD-output).
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"

	"github.com/arbedge/arbedge-core/internal/apperrors"
)

const nonceSize = 12 // 96 bits, per AES-GCM's standard nonce length

// cipherKey derives a 32-byte AES-256 key from the master secret.
func cipherKey(masterSecret string) [32]byte {
	return sha256.Sum256([]byte(masterSecret))
}

// encryptString seals plaintext under masterSecret and returns the
// base64-encoded nonce‖ciphertext envelope.
func encryptString(masterSecret, plaintext string) (string, error) {
	key := cipherKey(masterSecret)
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindInternal, err, "create AES cipher")
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindInternal, err, "create GCM mode")
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", apperrors.Wrap(apperrors.KindInternal, err, "generate nonce")
	}

	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	envelope := append(nonce, sealed...)
	return base64.StdEncoding.EncodeToString(envelope), nil
}

// decryptString opens a base64 nonce‖ciphertext envelope produced by
// encryptString. Failure modes map directly onto the vault's error
// taxonomy: Encoding for malformed base64, Length for an undersized
// buffer, Integrity for a failed authentication tag check.
func decryptString(masterSecret, envelope string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(envelope)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindEncoding, err, "malformed ciphertext encoding")
	}
	if len(raw) < nonceSize {
		return "", apperrors.New(apperrors.KindLength, "ciphertext shorter than nonce")
	}

	key := cipherKey(masterSecret)
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindInternal, err, "create AES cipher")
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindInternal, err, "create GCM mode")
	}

	nonce, ciphertext := raw[:nonceSize], raw[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindIntegrity, err, "authentication tag mismatch")
	}
	return string(plaintext), nil
}
