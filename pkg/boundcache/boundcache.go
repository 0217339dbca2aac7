// Package boundcache provides a fixed-capacity identity → resource cache that
// evicts the oldest inserted entry when full.
//
// The cache composes a [hashtable.Table] (lookup by identity hash) with a
// [minheap.Heap] (insertion order). Entries live in a slot array sized once
// at construction; an evicted entry's slot is reused in place.
//
// # Basic Usage
//
//	c, err := boundcache.New(boundcache.Options[label, *texture]{
//	    Capacity: 256,
//	    Hash:     func(l label) uint64 { return keys.HashString(l.text, uint64(l.font)) },
//	    Create:   render,
//	    Release:  func(t *texture) { t.destroy() },
//	})
//
//	tex, err := c.GetOrCreate(label{text: "score", font: 2})
//
// Hits do not refresh an entry's age: eviction order is insertion order.
//
// Caches are not safe for concurrent use.
package boundcache

import (
	"errors"
	"fmt"

	"github.com/calvinalkan/slabtable/pkg/hashtable"
	"github.com/calvinalkan/slabtable/pkg/minheap"
)

// ErrInvalidOptions indicates a non-positive capacity or a missing Hash or
// Create function.
var ErrInvalidOptions = errors.New("boundcache: invalid options")

// Options configures a [Cache].
type Options[I comparable, R any] struct {
	// Capacity is the number of entries. Slots, table nodes and heap items
	// are all provisioned with this size.
	Capacity int

	// Hash maps an identity to the table key. Equal identities must hash
	// equally; collisions are resolved by comparing identities with ==.
	// If I is an interface type, every identity's dynamic value must be
	// comparable (no slices, maps or funcs), or the comparison panics.
	Hash func(I) uint64

	// Create builds the resource for an identity on a miss.
	Create func(I) (R, error)

	// Release frees a resource when its entry is evicted or purged.
	// Optional.
	Release func(R)
}

// Stats counts cache traffic since construction.
type Stats struct {
	Len       int
	Cap       int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

type entry[I comparable, R any] struct {
	id   I
	res  R
	hash uint64
}

// Cache is a bounded, oldest-first evicting cache.
type Cache[I comparable, R any] struct {
	opts    Options[I, R]
	entries []entry[I, R]
	claimed int     // slots handed out at least once
	spare   []int32 // claimed slots currently unused
	table   *hashtable.Table[int32]
	age     *minheap.Heap[int32]
	seq     uint64
	stats   Stats
}

// New validates opts and provisions the slot array, table and heap.
//
// Possible errors:
//   - [ErrInvalidOptions]: Capacity < 1, or Hash or Create is nil
func New[I comparable, R any](opts Options[I, R]) (*Cache[I, R], error) {
	if opts.Capacity < 1 {
		return nil, fmt.Errorf("capacity must be >= 1, got %d: %w", opts.Capacity, ErrInvalidOptions)
	}

	if opts.Hash == nil {
		return nil, fmt.Errorf("hash function is required: %w", ErrInvalidOptions)
	}

	if opts.Create == nil {
		return nil, fmt.Errorf("create function is required: %w", ErrInvalidOptions)
	}

	table, err := hashtable.New[int32](opts.Capacity)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}

	age, err := minheap.New[int32](opts.Capacity)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}

	return &Cache[I, R]{
		opts:    opts,
		entries: make([]entry[I, R], opts.Capacity),
		table:   table,
		age:     age,
	}, nil
}

// Len returns the number of cached entries.
func (c *Cache[I, R]) Len() int {
	return c.table.Len()
}

// Cap returns the capacity.
func (c *Cache[I, R]) Cap() int {
	return len(c.entries)
}

// Stats returns traffic counters.
func (c *Cache[I, R]) Stats() Stats {
	st := c.stats
	st.Len = c.Len()
	st.Cap = c.Cap()

	return st
}

func (c *Cache[I, R]) lookup(id I, hash uint64) (int32, bool) {
	for slot, ok := c.table.Find(hash); ok; slot, ok = c.table.FindNext(hash) {
		if c.entries[slot].id == id {
			return slot, true
		}
	}

	return 0, false
}

// Get returns the cached resource for id without creating one. It does not
// change counters or ages.
func (c *Cache[I, R]) Get(id I) (R, bool) {
	slot, ok := c.lookup(id, c.opts.Hash(id))
	if !ok {
		var zero R

		return zero, false
	}

	return c.entries[slot].res, true
}

// GetOrCreate returns the cached resource for id, creating it on a miss.
//
// When the cache is full the oldest entry is evicted first and its resource
// released. If Create fails nothing is cached and the error is returned; an
// entry evicted to make room stays evicted.
func (c *Cache[I, R]) GetOrCreate(id I) (R, error) {
	hash := c.opts.Hash(id)

	if slot, ok := c.lookup(id, hash); ok {
		c.stats.Hits++

		return c.entries[slot].res, nil
	}

	c.stats.Misses++

	slot := c.claim()

	res, err := c.opts.Create(id)
	if err != nil {
		c.spare = append(c.spare, slot)

		var zero R

		return zero, fmt.Errorf("create entry: %w", err)
	}

	c.entries[slot] = entry[I, R]{id: id, res: res, hash: hash}

	// Slots, nodes and heap items are provisioned 1:1, so neither can be full.
	c.table.MustInsert(hash, slot)

	err = c.age.Push(c.seq, slot)
	if err != nil {
		panic(fmt.Sprintf("boundcache: age index out of sync with table: %v", err))
	}

	c.seq++

	return res, nil
}

// claim returns a slot for a new entry, evicting the oldest entry if every
// slot is in use.
func (c *Cache[I, R]) claim() int32 {
	if n := len(c.spare); n > 0 {
		slot := c.spare[n-1]
		c.spare = c.spare[:n-1]

		return slot
	}

	if c.claimed < len(c.entries) {
		slot := int32(c.claimed)
		c.claimed++

		return slot
	}

	slot, _ := c.evictOldest()
	c.stats.Evictions++

	return slot
}

// evictOldest removes the heap root from the table and the heap, releases
// its resource and clears its slot.
func (c *Cache[I, R]) evictOldest() (int32, bool) {
	oldest, ok := c.age.Peek()
	if !ok {
		return 0, false
	}

	slot := oldest.Value
	e := c.entries[slot]

	c.table.RemoveByValue(e.hash, slot)
	c.age.Pop()

	if c.opts.Release != nil {
		c.opts.Release(e.res)
	}

	c.entries[slot] = entry[I, R]{}

	return slot, true
}

// Purge evicts every entry, oldest first, releasing each resource. Counters
// and the insertion sequence are kept.
func (c *Cache[I, R]) Purge() {
	for {
		slot, ok := c.evictOldest()
		if !ok {
			break
		}

		c.spare = append(c.spare, slot)
	}
}
