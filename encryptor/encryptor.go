// Package encryptor implements the Credential Encryption port used by
// the auth package to hold sensitive config fields encrypted at rest.
// It is AES-256-GCM keyed from a caller-provided 32-byte key (typically
// loaded from an env var by package config); ciphertext is base64
// encoded and carries a constant prefix so IsEncrypted is a cheap
// string check rather than an attempted decrypt.
package encryptor

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// Prefix marks a string as ciphertext produced by Encrypt. IsEncrypted
// is a simple HasPrefix check against it.
const Prefix = "enc:v1:"

var (
	// ErrInvalidKeySize is returned by New when key is not 32 bytes.
	ErrInvalidKeySize = errors.New("encryptor: key must be 32 bytes")
	// ErrNotEncrypted is returned by Decrypt when given a plaintext value.
	ErrNotEncrypted = errors.New("encryptor: value is not encrypted")
	// ErrCiphertextTooShort is returned by Decrypt on truncated input.
	ErrCiphertextTooShort = errors.New("encryptor: ciphertext too short")
)

// Encryptor encrypts and decrypts string values with a single AES-256
// key. It has no mutable state and is safe for concurrent use.
type Encryptor struct {
	aead cipher.AEAD
}

// New constructs an Encryptor from a 32-byte key.
func New(key []byte) (*Encryptor, error) {
	if len(key) != 32 {
		return nil, ErrInvalidKeySize
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("encryptor: new cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("encryptor: new gcm: %w", err)
	}
	return &Encryptor{aead: aead}, nil
}

// Encrypt returns plaintext sealed under a fresh random nonce, encoded
// as Prefix + base64(nonce || ciphertext).
func (e *Encryptor) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("encryptor: read nonce: %w", err)
	}
	sealed := e.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return Prefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. It returns ErrNotEncrypted if value does
// not carry Prefix.
func (e *Encryptor) Decrypt(value string) (string, error) {
	if !IsEncrypted(value) {
		return "", ErrNotEncrypted
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, Prefix))
	if err != nil {
		return "", fmt.Errorf("encryptor: decode: %w", err)
	}
	nonceSize := e.aead.NonceSize()
	if len(raw) < nonceSize {
		return "", ErrCiphertextTooShort
	}
	nonce, ciphertext := raw[:nonceSize], raw[nonceSize:]
	plaintext, err := e.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("encryptor: open: %w", err)
	}
	return string(plaintext), nil
}

// IsEncrypted reports whether value is ciphertext produced by Encrypt.
func IsEncrypted(value string) bool {
	return strings.HasPrefix(value, Prefix)
}
