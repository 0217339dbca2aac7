// Package model provides a deliberately simple, in-memory model of
// boundcache's observable behavior.
//
// The model keeps identities in a slice ordered oldest first. It favors
// clarity over performance and is meant for property tests only.
package model

import "slices"

// Cache mirrors boundcache.Cache for identities of type I.
type Cache[I comparable] struct {
	Capacity int
	Order    []I // oldest first
}

// New returns an empty model with the given capacity.
func New[I comparable](capacity int) *Cache[I] {
	return &Cache[I]{Capacity: capacity}
}

// Access models GetOrCreate with a Create that always succeeds. It reports
// whether id was a hit and, on an eviction, which identity was evicted.
func (c *Cache[I]) Access(id I) (hit bool, evicted I, didEvict bool) {
	if slices.Contains(c.Order, id) {
		return true, evicted, false
	}

	if len(c.Order) == c.Capacity {
		evicted, didEvict = c.Order[0], true
		c.Order = slices.Delete(c.Order, 0, 1)
	}

	c.Order = append(c.Order, id)

	return false, evicted, didEvict
}

// AccessFailing models GetOrCreate with a Create that fails. A hit is
// still served. On a miss the oldest identity is evicted if the model is
// full and nothing is added.
func (c *Cache[I]) AccessFailing(id I) (hit bool, evicted I, didEvict bool) {
	if slices.Contains(c.Order, id) {
		return true, evicted, false
	}

	if len(c.Order) == c.Capacity {
		evicted, didEvict = c.Order[0], true
		c.Order = slices.Delete(c.Order, 0, 1)
	}

	return false, evicted, didEvict
}

// Contains reports whether id is cached.
func (c *Cache[I]) Contains(id I) bool {
	return slices.Contains(c.Order, id)
}

// Purge empties the model and returns the identities oldest first.
func (c *Cache[I]) Purge() []I {
	out := c.Order
	c.Order = nil

	return out
}
