// Package cache stores rendered artifacts keyed by content hash.
//
// Three backends implement [Cache]:
//   - [FileCache]: one file per entry under a local directory, for the CLI
//   - [RedisCache]: shared cache for the viewer server
//   - [NullCache]: caching disabled
//
// Keys come from a [Keyer] so that a change to the diagram or to the render
// options always produces a new key:
//
//	key := cache.NewDefaultKeyer().ArtifactKey(cache.Hash([]byte(dot)), cache.ArtifactKeyOpts{Format: "svg"})
//	data, hit, err := c.Get(ctx, key)
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with optional expiration.
type Cache interface {
	// Get returns the stored value and whether it was found. Expired
	// entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend's resources.
	Close() error
}
