// Package cache stores computed results keyed by content hashes.
//
// Scoring a large problem from scratch costs a full engine rebuild, so the
// pipeline caches judged scores under a key derived from the problem id, the
// scoring variant and the SHA-256 of the solution bytes. The same solution
// scored twice is then a single lookup.
//
// Three backends are provided:
//   - [FileCache] for the CLI, one JSON file per entry under the data dir
//   - [RedisCache] for the HTTP server when several instances share results
//   - [NullCache] when caching is disabled
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases the backend.
	Close() error
}

// Default TTLs for cached entries.
const (
	// ScoreTTL applies to judged scores. Scores are deterministic, so the
	// TTL only bounds disk usage.
	ScoreTTL = 30 * 24 * time.Hour
	// ProblemTTL applies to problem summaries served over HTTP.
	ProblemTTL = 24 * time.Hour
)
