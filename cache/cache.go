// Package cache provides the response cache backends used by the forward
// collaborator: a process-local in-memory cache and a shared Redis backed
// one.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss indicates that the key was not found in the cache.
var ErrCacheMiss = errors.New("cache miss")

// Cache stores opaque payloads under string keys with per-entry TTL.
type Cache interface {

	// Get retrieves a value. Returns ErrCacheMiss when the key is not found
	// or its entry expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the given TTL. A TTL of zero means the entry
	// never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value.
	Delete(ctx context.Context, key string) error

	// Close releases the resources of the backend.
	Close() error
}
