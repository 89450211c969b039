// Package cache provides a small in-memory cache-aside helper with a fixed
// TTL per cache instance. It fronts the external data sources: a valid entry
// short-circuits the remote call, anything else falls through to the
// caller-supplied fetch.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Clock supplies the current time; injectable for tests.
type Clock func() time.Time

type entry[T any] struct {
	value     T
	fetchedAt time.Time
}

// Cache is a TTL-bounded cache-aside wrapper. The TTL belongs to the cache
// instance (the data kind), not to individual entries. Entries are only ever
// overwritten by a successful refresh; there is no eviction, so a cache keyed
// by free-form lookup strings grows with the number of distinct keys seen.
type Cache[T any] struct {
	ttl time.Duration
	now Clock

	mu      sync.Mutex
	entries map[string]entry[T]
}

// New constructs a Cache with the given TTL using the wall clock.
func New[T any](ttl time.Duration) *Cache[T] {
	return NewWithClock[T](ttl, time.Now)
}

// NewWithClock constructs a Cache with an injectable clock (used in tests).
func NewWithClock[T any](ttl time.Duration, now Clock) *Cache[T] {
	return &Cache[T]{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]entry[T]),
	}
}

// Key normalizes a lookup key: trimmed and case-folded.
func Key(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Lookup returns the cached value for key when a non-expired entry exists,
// without invoking fetch. Otherwise it invokes fetch: on success the result
// is stored (overwriting any prior entry) and returned; on failure the cache
// is left untouched: no entry is written, nothing is evicted, and the error
// is returned to the caller. A failed refresh is never papered over with
// stale data.
//
// Concurrent lookups for the same key may race into duplicate fetches; the
// last successful writer wins. That duplicate call is accepted rather than
// serialized per key.
func (c *Cache[T]) Lookup(ctx context.Context, key string, fetch func(context.Context) (T, error)) (T, error) {
	k := Key(key)

	c.mu.Lock()
	if e, ok := c.entries[k]; ok && c.now().Sub(e.fetchedAt) < c.ttl {
		c.mu.Unlock()
		return e.value, nil
	}
	c.mu.Unlock()

	v, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	c.mu.Lock()
	c.entries[k] = entry[T]{value: v, fetchedAt: c.now()}
	c.mu.Unlock()

	return v, nil
}

// Len reports the number of entries currently held, expired or not.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
