// Package cache provides the key/value stores behind parse and render
// caching.
//
// A [Cache] maps string keys to byte slices with an optional time to live.
// [FileCache] serves the CLI from a directory under the user cache dir,
// [RedisCache] lets several HTTP service instances share parsed layouts and
// rendered pages, and [NullCache] disables caching. Keys are built by a
// [Keyer] so that every entry depends on the content it was derived from.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store keyed by strings. A zero ttl means no expiry.
// Implementations are safe for concurrent use; concurrent writers of the
// same key are last-writer-wins.
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

// Entry lifetimes.
const (
	// TTLParse applies to parsed layouts, keyed by file content.
	TTLParse = 30 * 24 * time.Hour
	// TTLTemplate applies to template metadata, keyed by path and mtime.
	TTLTemplate = 7 * 24 * time.Hour
	// TTLRender applies to rendered pages.
	TTLRender = 24 * time.Hour
)
