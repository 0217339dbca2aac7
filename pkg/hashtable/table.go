package hashtable

import (
	"fmt"
	"iter"

	"github.com/calvinalkan/slabtable/pkg/slab"
)

// node is one chain link. Links are slab handles so a cursor that outlives
// its node is detected instead of dereferenced.
type node[V comparable] struct {
	key   uint64
	value V
	next  slab.Handle
}

// Table is a separate-chaining multi-map over a fixed slab of nodes.
type Table[V comparable] struct {
	buckets []slab.Handle
	page    *slab.Page[node[V]]
	cursor  slab.Handle
	count   int
}

// Stats describes the shape of a [Table].
type Stats struct {
	Len          int // live nodes
	Buckets      int // bucket count
	UsedBuckets  int // buckets with at least one node
	LongestChain int // nodes in the longest chain
}

// New creates a table with the given bucket count and one node per bucket.
//
// Sizing nodes 1:1 with buckets suits tables that hold at most one live
// entry per expected distinct key. Use [NewWithCapacity] when chains are
// expected to grow longer.
func New[V comparable](buckets int) (*Table[V], error) {
	return NewWithCapacity[V](buckets, buckets)
}

// NewWithCapacity creates a table with the given bucket count backed by a
// slab of nodes nodes.
//
// Possible errors:
//   - [ErrInvalidCapacity]: buckets or nodes < 1, or nodes above [slab.MaxCapacity]
func NewWithCapacity[V comparable](buckets, nodes int) (*Table[V], error) {
	if buckets < 1 {
		return nil, fmt.Errorf("buckets must be >= 1, got %d: %w", buckets, ErrInvalidCapacity)
	}

	page, err := slab.New[node[V]](nodes)
	if err != nil {
		return nil, fmt.Errorf("nodes %d: %w: %w", nodes, ErrInvalidCapacity, err)
	}

	t := &Table[V]{
		buckets: make([]slab.Handle, buckets),
		page:    page,
		cursor:  slab.Nil,
	}

	for i := range t.buckets {
		t.buckets[i] = slab.Nil
	}

	return t, nil
}

// Len returns the number of live nodes.
func (t *Table[V]) Len() int {
	return t.count
}

// Buckets returns the bucket count.
func (t *Table[V]) Buckets() int {
	return len(t.buckets)
}

// Cap returns the maximum number of simultaneously live nodes.
func (t *Table[V]) Cap() int {
	return t.page.Cap()
}

func (t *Table[V]) bucket(key uint64) int {
	return int(key % uint64(len(t.buckets)))
}

// Insert prepends a node for key to its bucket chain. Existing nodes with the
// same key are kept; the new one is found first.
//
// Possible errors:
//   - [ErrFull]: the node slab is exhausted (also matches [slab.ErrFull])
func (t *Table[V]) Insert(key uint64, value V) error {
	h, err := t.page.Acquire()
	if err != nil {
		return fmt.Errorf("insert key %d: %w: %w", key, ErrFull, err)
	}

	b := t.bucket(key)

	n := t.page.Get(h)
	n.key = key
	n.value = value
	n.next = t.buckets[b]

	t.buckets[b] = h
	t.count++

	return nil
}

// MustInsert is like [Table.Insert] but panics when the table is full.
func (t *Table[V]) MustInsert(key uint64, value V) {
	err := t.Insert(key, value)
	if err != nil {
		panic(err)
	}
}

// Find returns the value of the first node with key, in chain order, and
// makes that node the cursor for [Table.FindNext].
func (t *Table[V]) Find(key uint64) (V, bool) {
	return t.scan(key, t.buckets[t.bucket(key)])
}

// FindNext continues the scan started by [Table.Find] for the same key and
// returns the next node with key.
//
// Precondition: the last successful Find or FindNext on this table was for
// key. Without a cursor (no prior Find, or the cursor node was removed)
// FindNext reports not found.
func (t *Table[V]) FindNext(key uint64) (V, bool) {
	if !t.page.Valid(t.cursor) {
		t.cursor = slab.Nil

		var zero V

		return zero, false
	}

	return t.scan(key, t.page.Get(t.cursor).next)
}

func (t *Table[V]) scan(key uint64, from slab.Handle) (V, bool) {
	for h := from; !h.IsNil(); {
		n := t.page.Get(h)
		if n.key == key {
			t.cursor = h

			return n.value, true
		}

		h = n.next
	}

	var zero V

	return zero, false
}

// FindAll copies the values of every node with key into buf, up to len(buf),
// and returns how many were written. It clears the lookup cursor.
func (t *Table[V]) FindAll(key uint64, buf []V) int {
	t.cursor = slab.Nil

	n := 0

	for h := t.buckets[t.bucket(key)]; !h.IsNil() && n < len(buf); {
		nd := t.page.Get(h)
		if nd.key == key {
			buf[n] = nd.value
			n++
		}

		h = nd.next
	}

	return n
}

// Count returns the number of nodes with key.
func (t *Table[V]) Count(key uint64) int {
	n := 0

	for h := t.buckets[t.bucket(key)]; !h.IsNil(); {
		nd := t.page.Get(h)
		if nd.key == key {
			n++
		}

		h = nd.next
	}

	return n
}

// Remove unlinks the first node with key (the one [Table.Find] would return)
// and returns its value.
func (t *Table[V]) Remove(key uint64) (V, bool) {
	b := t.bucket(key)
	prev := slab.Nil

	for h := t.buckets[b]; !h.IsNil(); {
		n := t.page.Get(h)
		if n.key == key {
			value := n.value
			t.unlink(b, prev, h)

			return value, true
		}

		prev = h
		h = n.next
	}

	var zero V

	return zero, false
}

// RemoveByValue unlinks the first node whose key and value both match.
//
// It returns the number of nodes with key that existed when the chain was
// scanned, including the removed one. A result below 2 therefore means no
// node with key is left. When no node matches value nothing is removed and
// the count of nodes with key is still returned (0 if the key is absent).
//
// Values are compared with ==. If V is an interface type, value and every
// stored value under key must have comparable dynamic types, or it panics.
func (t *Table[V]) RemoveByValue(key uint64, value V) int {
	b := t.bucket(key)

	matches := 0
	target, targetPrev := slab.Nil, slab.Nil
	prev := slab.Nil

	for h := t.buckets[b]; !h.IsNil(); {
		n := t.page.Get(h)
		if n.key == key {
			matches++

			if target.IsNil() && n.value == value {
				target, targetPrev = h, prev
			}
		}

		prev = h
		h = n.next
	}

	if !target.IsNil() {
		t.unlink(b, targetPrev, target)
	}

	return matches
}

func (t *Table[V]) unlink(b int, prev, h slab.Handle) {
	next := t.page.Get(h).next

	if prev.IsNil() {
		t.buckets[b] = next
	} else {
		t.page.Get(prev).next = next
	}

	if h == t.cursor {
		t.cursor = slab.Nil
	}

	err := t.page.Release(h)
	if err != nil {
		panic(fmt.Sprintf("hashtable: releasing linked node: %v", err))
	}

	t.count--
}

// All yields every (key, value) pair in bucket order, and in chain order
// within a bucket. The table must not be modified during iteration.
func (t *Table[V]) All() iter.Seq2[uint64, V] {
	return func(yield func(uint64, V) bool) {
		for _, head := range t.buckets {
			for h := head; !h.IsNil(); {
				n := t.page.Get(h)
				if !yield(n.key, n.value) {
					return
				}

				h = n.next
			}
		}
	}
}

// Stats walks every chain and reports the table's shape.
func (t *Table[V]) Stats() Stats {
	st := Stats{Len: t.count, Buckets: len(t.buckets)}

	for _, head := range t.buckets {
		chain := 0

		for h := head; !h.IsNil(); h = t.page.Get(h).next {
			chain++
		}

		if chain > 0 {
			st.UsedBuckets++
		}

		st.LongestChain = max(st.LongestChain, chain)
	}

	return st
}
