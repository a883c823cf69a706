package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache is a time-boxed key->value store shared by all retrieval paths.
// Entries expire strictly by wall-clock TTL; expired entries are treated as
// absent. Implementations must be safe for concurrent use.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a cache key from its identifying parts, e.g.
// Key("filing", company, query, filingType).
func Key(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return "provato:v1:" + hex.EncodeToString(hash[:])
}
