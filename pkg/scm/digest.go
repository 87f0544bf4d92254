package scm

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/goccy/go-yaml"
)

// Digest returns a content hash of the canonical serialized form of v.
// It is used to detect that nothing observable changed across a
// configuration save, so a no-op save never triggers a rescan. A value
// that cannot be serialized digests to the empty string, which compares
// unequal to every real digest.
func Digest(v any) string {
	b, err := yaml.Marshal(v)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
