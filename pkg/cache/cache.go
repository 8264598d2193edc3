package cache

import (
	"context"
	"errors"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiration.
//
// Get reports a miss as (nil, false, nil); errors are reserved for backend
// failures. Callers treat cache errors as non-fatal: a failing cache degrades
// to a rebuild, never to a wrong result.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by caches that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) error
}

// TTLs for the cached artifact kinds. Results are keyed by content hash, so
// a stale entry can never be served for a changed snapshot; the TTLs only
// bound storage.
const (
	TTLGraph    = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// KeyPrefix namespaces every key written by a [DefaultKeyer].
const KeyPrefix = "linkgraph:"

var (
	// ErrUnknownBackend is returned by [Open] for an unrecognized backend.
	ErrUnknownBackend = errors.New("unknown cache backend")

	// ErrUnavailable is returned when a remote backend cannot be reached.
	ErrUnavailable = errors.New("cache backend unavailable")
)
