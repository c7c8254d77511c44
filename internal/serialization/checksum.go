package serialization

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeChecksum returns the hex SHA-256 digest of data.
func ComputeChecksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ValidateChecksum compares the digest of data against stored.
// Returns ErrChecksumMismatch if they don't match.
func ValidateChecksum(data []byte, stored string) error {
	if got := ComputeChecksum(data); got != stored {
		return fmt.Errorf("%w: got %s, stored %s", ErrChecksumMismatch, got, stored)
	}
	return nil
}
