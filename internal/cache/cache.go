// Package cache provides a typed TTL cache backed by patrickmn/go-cache.
// Entries are invalidated lazily on lookup and swept on a cleanup interval.
package cache

import (
	"context"

	gocache "github.com/patrickmn/go-cache"

	"time"
)

// Cache is a typed wrapper around an expiring key-value store.
// Keys are strings (or string-kinded types); values are any single type V.
type Cache[K ~string, V any] struct {
	store *gocache.Cache
}

// New creates a cache whose expired entries are swept every cleanupInterval.
// Per-entry TTLs are supplied on Set.
func New[K ~string, V any](cleanupInterval time.Duration) *Cache[K, V] {
	return &Cache[K, V]{
		store: gocache.New(gocache.NoExpiration, cleanupInterval),
	}
}

// Get returns the cached value for key if present and not expired.
func (c *Cache[K, V]) Get(_ context.Context, key K) (V, bool) {
	var zero V
	raw, found := c.store.Get(string(key))
	if !found {
		return zero, false
	}
	value, ok := raw.(V)
	if !ok {
		return zero, false
	}
	return value, true
}

// Set stores value under key with the given TTL.
func (c *Cache[K, V]) Set(_ context.Context, key K, value V, ttl time.Duration) {
	c.store.Set(string(key), value, ttl)
}

// Delete removes key from the cache.
func (c *Cache[K, V]) Delete(_ context.Context, key K) {
	c.store.Delete(string(key))
}

// Len returns the number of live entries (expired entries may be counted
// until the next sweep).
func (c *Cache[K, V]) Len() int {
	return c.store.ItemCount()
}

// Flush removes all entries.
func (c *Cache[K, V]) Flush() {
	c.store.Flush()
}

// Close releases the cache. The underlying janitor is stopped by its
// finalizer; Flush here makes reuse-after-close obvious in tests.
func (c *Cache[K, V]) Close() {
	c.store.Flush()
}
