package coordinator

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// newRunID generates a run identifier: a 32-character lowercase hex
// string from 16 cryptographically random bytes, the same shape as the
// teacher's trace id generator.
func newRunID() (string, error) {
	const idByteLength = 16
	b := make([]byte, idByteLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("coordinator: generate run id: %w", err)
	}
	return hex.EncodeToString(b), nil
}
