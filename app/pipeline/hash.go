package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashContent digests a notice's extracted text. The hash is the system's
// sole notion of identity and change detection: the same text always maps to
// the same hash, and any edit to the source posting produces a new one.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
