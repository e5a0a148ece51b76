package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

// KeyPrefix constants for different cache entry types
const (
	PrefixRender = "render"
)

// GenerateKey hashes the given parts into a hex digest. Parts are separated
// by a NUL byte so ("ab", "c") and ("a", "bc") differ.
func GenerateKey(parts ...[]byte) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// GenerateKeyWithPrefix generates a cache key with a prefix
func GenerateKeyWithPrefix(prefix string, parts ...[]byte) string {
	return prefix + ":" + GenerateKey(parts...)
}

// RenderKey identifies the canonical rendering of one manifest source. The
// tool version is part of the key so upgrades never serve stale output, and
// the path is part of it because inference depends on the package root.
func RenderKey(toolVersion, manifestPath string, src []byte) string {
	return GenerateKeyWithPrefix(PrefixRender,
		[]byte(toolVersion),
		[]byte(filepath.Clean(manifestPath)),
		src,
	)
}
