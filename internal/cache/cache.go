// Package cache provides the storage behind the engine's result cache
// and the URL body cache: a memory layer for within-run reuse and a
// disk layer under .certo/cache for reuse across runs.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is the common contract for all layers. Values are opaque bytes;
// callers that need an age window (URL bodies, check outcomes) embed a
// stored-at timestamp in the value and decide staleness at read time.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// ResultKey derives the result-cache key for a check fingerprint.
func ResultKey(fingerprint string) string {
	return "result:" + fingerprint
}

// BodyKey derives the URL-body cache key for a URL.
func BodyKey(url string) string {
	h := sha256.Sum256([]byte(url))
	return "body:" + hex.EncodeToString(h[:])[:24]
}
