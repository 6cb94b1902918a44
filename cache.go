package fetch

import (
	"context"
	"sync"
)

// Key identifies one cached result: the source name paired with the
// identity. ID values must be comparable.
type Key struct {
	Source string
	ID     any
}

// Cache stores fetched results across rounds.
//
// Caches are logically immutable values threaded through rounds: Insert
// returns the cache to use from then on. A concrete implementation may
// mutate internally and return itself, but insert followed by lookup with
// the same key must return the inserted value unless the cache voluntarily
// forgets. The interpreter never calls Insert concurrently for the same
// key within one round.
type Cache interface {
	// Lookup returns the cached value for a key. ok is false on a miss.
	Lookup(ctx context.Context, key Key) (any, bool, error)

	// Insert stores a value and returns the cache holding it.
	Insert(ctx context.Context, key Key, val any) (Cache, error)
}

// InMemoryCache is the default Cache, a process-local concurrent map.
// Insert stores in place and returns the receiver.
type InMemoryCache struct {
	data sync.Map
}

// NewInMemoryCache creates an empty in-memory cache.
func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{}
}

func (c *InMemoryCache) Lookup(ctx context.Context, key Key) (any, bool, error) {
	val, ok := c.data.Load(key)
	return val, ok, nil
}

func (c *InMemoryCache) Insert(ctx context.Context, key Key, val any) (Cache, error) {
	c.data.Store(key, val)
	return c, nil
}

// Delete removes a key. Useful for tests and targeted invalidation.
func (c *InMemoryCache) Delete(key Key) {
	c.data.Delete(key)
}

// Range calls fn for every cached entry until fn returns false.
func (c *InMemoryCache) Range(fn func(key Key, val any) bool) {
	c.data.Range(func(key, val any) bool {
		return fn(key.(Key), val)
	})
}

// Size reports the number of cached entries.
func (c *InMemoryCache) Size() int {
	count := 0
	c.data.Range(func(key, val any) bool {
		count++
		return true
	})
	return count
}

// ForgetfulCache retains nothing: Lookup always misses and Insert returns
// the cache unchanged. Plug it in to disable caching entirely.
type ForgetfulCache struct{}

func (ForgetfulCache) Lookup(ctx context.Context, key Key) (any, bool, error) {
	return nil, false, nil
}

func (f ForgetfulCache) Insert(ctx context.Context, key Key, val any) (Cache, error) {
	return f, nil
}
