package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const encryptionIVLength = 16

var (
	ErrInvalidEncryptionKey    = errors.New("encryption key must be 64 hex characters")
	ErrInvalidEncryptedPayload = errors.New("invalid encrypted text format")
)

// Encryptor seals secrets at rest with AES-256-GCM. Ciphertexts are encoded as
// hex "iv:authTag:ciphertext" so rows written by either side of a migration
// stay readable.
type Encryptor struct {
	aead cipher.AEAD
}

func NewEncryptor(hexKey string) (*Encryptor, error) {
	key, err := hex.DecodeString(strings.TrimSpace(hexKey))
	if err != nil || len(key) != 32 {
		return nil, ErrInvalidEncryptionKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCMWithNonceSize(block, encryptionIVLength)
	if err != nil {
		return nil, err
	}
	return &Encryptor{aead: aead}, nil
}

func (e *Encryptor) Encrypt(plaintext string) (string, error) {
	iv := make([]byte, encryptionIVLength)
	if _, err := rand.Read(iv); err != nil {
		return "", err
	}
	sealed := e.aead.Seal(nil, iv, []byte(plaintext), nil)
	tagStart := len(sealed) - e.aead.Overhead()
	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(sealed[tagStart:]) + ":" + hex.EncodeToString(sealed[:tagStart]), nil
}

func (e *Encryptor) Decrypt(encoded string) (string, error) {
	parts := strings.Split(encoded, ":")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", ErrInvalidEncryptedPayload
	}
	iv, err1 := hex.DecodeString(parts[0])
	tag, err2 := hex.DecodeString(parts[1])
	body, err3 := hex.DecodeString(parts[2])
	if err := errors.Join(err1, err2, err3); err != nil || len(iv) != encryptionIVLength {
		return "", ErrInvalidEncryptedPayload
	}
	plain, err := e.aead.Open(nil, iv, append(body, tag...), nil)
	if err != nil {
		return "", fmt.Errorf("decrypt: %w", err)
	}
	return string(plain), nil
}

// MaskSecret keeps the last four characters visible.
func MaskSecret(secret string) string {
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", min(len(secret)-4, 12)) + secret[len(secret)-4:]
}
