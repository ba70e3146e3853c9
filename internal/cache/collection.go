// Package cache holds the read-through cache used for whole-collection reads.
package cache

import (
	"slices"
	"sync"
	"time"
)

// Collection caches one full list of rows for a fixed TTL. It has exactly one
// slot: there is no per-key storage and no eviction other than expiry and
// Invalidate.
//
// The mutex only guards the slot fields. It is never held while the caller
// queries the store, so two readers that miss at the same time both query and
// both Set. Each Invalidate bumps the version; a Set carrying a version read
// before the latest Invalidate is dropped, so a read that raced a mutation
// cannot put pre-mutation rows back in the slot.
type Collection[T any] struct {
	ttl time.Duration
	now func() time.Time

	mu          sync.Mutex
	rows        []T
	populated   bool
	populatedAt time.Time
	version     uint64
}

// New returns an empty collection cache. A nil clock means time.Now.
func New[T any](ttl time.Duration, now func() time.Time) *Collection[T] {
	if now == nil {
		now = time.Now
	}
	return &Collection[T]{ttl: ttl, now: now}
}

// Get returns a copy of the cached rows when the slot is fresh. On a miss the
// returned version must be passed to Set with the rows read from the store.
func (c *Collection[T]) Get() ([]T, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.populated || c.now().Sub(c.populatedAt) >= c.ttl {
		return nil, c.version, false
	}
	return slices.Clone(c.rows), c.version, true
}

// Set fills the slot and restarts the TTL. It reports false, leaving the slot
// alone, when the collection was invalidated after version was read.
func (c *Collection[T]) Set(rows []T, version uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if version != c.version {
		return false
	}
	c.rows = slices.Clone(rows)
	if c.rows == nil {
		c.rows = []T{}
	}
	c.populated = true
	c.populatedAt = c.now()
	return true
}

// Invalidate empties the slot.
func (c *Collection[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rows = nil
	c.populated = false
	c.populatedAt = time.Time{}
	c.version++
}
