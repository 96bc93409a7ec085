package patterns

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignatureFrames is the number of top frames a crash signature covers.
const SignatureFrames = 5

// signatureLength is the number of hex digits kept from the digest.
const signatureLength = 16

// Signature hashes the signal or error kind and the top frames, normalized
// for recurrence, into a stable identifier. Two crashes of the same defect
// on different hosts, builds or load addresses share a signature. It
// returns "" when there is nothing to hash.
func Signature(kind string, frames []string) string {
	var parts []string
	for _, f := range frames {
		if n := Normalize(f, MaskRecurrence); n != "" {
			parts = append(parts, n)
		}
		if len(parts) == SignatureFrames {
			break
		}
	}
	if kind == "" && len(parts) == 0 {
		return ""
	}
	hash := sha256.Sum256([]byte(kind + "\n" + strings.Join(parts, "\n")))
	return hex.EncodeToString(hash[:])[:signatureLength]
}
