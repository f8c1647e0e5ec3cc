package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

// ETagFor returns a strong, quoted entity tag for payload.
func ETagFor(payload []byte) string {
	sum := sha1.Sum(payload)
	return `"` + hex.EncodeToString(sum[:])[:16] + `"`
}

// MatchETag reports whether an If-None-Match header value matches etag.
// Weak validators and lists are accepted.
func MatchETag(header, etag string) bool {
	if header == "" || etag == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}

func wrapKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + ":" + key
}
