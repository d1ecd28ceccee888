// Package cache provides content-addressed caching for the compositor.
//
// Each generation call would otherwise re-fetch and re-decode its template
// and background assets; the cache removes that redundant network and
// decode cost under repeated or concurrent generation. Implementations
// cover local CLI use (FileCache), servers (RedisCache), and disabled
// caching (NullCache).
package cache

import (
	"context"
	"time"
)

// Cache TTLs per entry kind. Template art changes rarely; rendered
// artifacts are invalidated by their content-hashed keys, so a long TTL is
// safe for both.
const (
	TTLTemplate = 24 * time.Hour
	TTLAsset    = 6 * time.Hour
	TTLArtifact = 24 * time.Hour
)

// Cache stores opaque byte values under string keys with a TTL.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves a value. The second return reports a hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A zero TTL means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}
