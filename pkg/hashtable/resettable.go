package hashtable

import (
	"fmt"
	"iter"

	"github.com/calvinalkan/slabtable/pkg/slab"
)

const noNode = int32(-1)

type arenaNode[V comparable] struct {
	key   uint64
	value V
	next  int32
}

// head is a bucket's chain head and the generation that wrote it. A head
// whose birth differs from the table's tick is empty, whatever first holds.
type head struct {
	birth uint32
	first int32
}

// Resettable is a chained multi-map whose contents are discarded in bulk.
//
// Every insert takes the next arena slot; nodes are never freed one by one.
// [Resettable.Reset] starts a new generation, after which every bucket
// written in an earlier generation reads as empty.
type Resettable[V comparable] struct {
	buckets []head
	arena   []arenaNode[V]
	used    int
	tick    uint32
	cursor  int32
}

// NewResettable creates a table whose arena holds capacity inserts per
// generation. The bucket count equals capacity.
//
// Possible errors:
//   - [ErrInvalidCapacity]: capacity < 1 or above [slab.MaxCapacity]
func NewResettable[V comparable](capacity int) (*Resettable[V], error) {
	if capacity < 1 || capacity > slab.MaxCapacity {
		return nil, fmt.Errorf("capacity must be in [1, %d], got %d: %w", slab.MaxCapacity, capacity, ErrInvalidCapacity)
	}

	t := &Resettable[V]{
		buckets: make([]head, capacity),
		arena:   make([]arenaNode[V], capacity),
		cursor:  noNode,
	}

	t.clearBuckets()

	return t, nil
}

func (t *Resettable[V]) clearBuckets() {
	for i := range t.buckets {
		t.buckets[i] = head{birth: t.tick, first: noNode}
	}
}

// Len returns the number of inserts in the current generation.
func (t *Resettable[V]) Len() int {
	return t.used
}

// Cap returns the number of inserts allowed per generation.
func (t *Resettable[V]) Cap() int {
	return len(t.arena)
}

// Generation returns the current generation, starting at 0.
func (t *Resettable[V]) Generation() uint32 {
	return t.tick
}

func (t *Resettable[V]) bucket(key uint64) int {
	return int(key % uint64(len(t.buckets)))
}

// Insert prepends a node for key. A bucket last written in an older
// generation is treated as empty and its stale chain is dropped.
//
// Possible errors:
//   - [ErrFull]: the arena is exhausted for this generation
func (t *Resettable[V]) Insert(key uint64, value V) error {
	if t.used >= len(t.arena) {
		return fmt.Errorf("insert key %d: generation %d used all %d nodes: %w", key, t.tick, len(t.arena), ErrFull)
	}

	idx := int32(t.used)
	t.used++

	b := &t.buckets[t.bucket(key)]

	next := noNode
	if b.birth == t.tick {
		next = b.first
	}

	t.arena[idx] = arenaNode[V]{key: key, value: value, next: next}

	b.first = idx
	b.birth = t.tick

	return nil
}

// MustInsert is like [Resettable.Insert] but panics when the arena is full.
func (t *Resettable[V]) MustInsert(key uint64, value V) {
	err := t.Insert(key, value)
	if err != nil {
		panic(err)
	}
}

// Find returns the most recently inserted value for key in the current
// generation and sets the lookup cursor.
func (t *Resettable[V]) Find(key uint64) (V, bool) {
	b := t.buckets[t.bucket(key)]
	if b.birth != t.tick {
		var zero V

		return zero, false
	}

	return t.scan(key, b.first)
}

// FindNext continues the scan started by [Resettable.Find] for the same key.
//
// Precondition: as for [Table.FindNext]. After Reset the cursor is cleared
// and FindNext reports not found.
func (t *Resettable[V]) FindNext(key uint64) (V, bool) {
	if t.cursor == noNode {
		var zero V

		return zero, false
	}

	return t.scan(key, t.arena[t.cursor].next)
}

func (t *Resettable[V]) scan(key uint64, from int32) (V, bool) {
	for i := from; i != noNode; i = t.arena[i].next {
		if t.arena[i].key == key {
			t.cursor = i

			return t.arena[i].value, true
		}
	}

	var zero V

	return zero, false
}

// FindAll copies up to len(buf) values for key into buf and returns how many
// were written. It clears the lookup cursor.
func (t *Resettable[V]) FindAll(key uint64, buf []V) int {
	t.cursor = noNode

	b := t.buckets[t.bucket(key)]
	if b.birth != t.tick {
		return 0
	}

	n := 0

	for i := b.first; i != noNode && n < len(buf); i = t.arena[i].next {
		if t.arena[i].key == key {
			buf[n] = t.arena[i].value
			n++
		}
	}

	return n
}

// Reset ends the current generation in O(1): the arena is rewound and every
// bucket becomes stale. Values returned earlier are no longer reachable
// through the table.
func (t *Resettable[V]) Reset() {
	t.tick++
	t.used = 0
	t.cursor = noNode

	// Stamps from 2^32 generations ago would read as current again.
	if t.tick == 0 {
		t.clearBuckets()
	}
}

// All yields the current generation's (key, value) pairs in insertion order.
func (t *Resettable[V]) All() iter.Seq2[uint64, V] {
	return func(yield func(uint64, V) bool) {
		for i := range t.used {
			if !yield(t.arena[i].key, t.arena[i].value) {
				return
			}
		}
	}
}
