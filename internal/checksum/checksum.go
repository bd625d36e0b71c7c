package checksum

// Workbook fingerprinting for the import audit trail. The hash is stored
// with each import record so identical re-uploads can be traced.

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns the hex-encoded sha256 of the data.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Matches reports whether the data hashes to the expected fingerprint.
func Matches(expected string, data []byte) bool {
	if expected == "" {
		return false
	}
	return Fingerprint(data) == expected
}
