// Package minheap provides a fixed-capacity binary min-heap.
//
// The heap orders items by a uint64 priority. Used as an age index, the
// priority is an ever-increasing insertion sequence number and the root is
// always the oldest surviving item.
//
// Heaps are not safe for concurrent use.
package minheap

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by [Heap] operations.
var (
	// ErrFull indicates the heap holds Cap() items. The heap never grows;
	// size it to match the structure it indexes.
	ErrFull = errors.New("minheap: full")

	// ErrInvalidCapacity indicates a capacity below 1.
	ErrInvalidCapacity = errors.New("minheap: invalid capacity")
)

// Item is one heap entry.
type Item[V any] struct {
	Priority uint64
	Value    V
}

// Heap is an array-backed binary min-heap over [Item.Priority].
type Heap[V any] struct {
	items []Item[V]
	count int
}

// New creates an empty heap that holds at most capacity items.
//
// Possible errors:
//   - [ErrInvalidCapacity]: capacity < 1
func New[V any](capacity int) (*Heap[V], error) {
	if capacity < 1 {
		return nil, fmt.Errorf("capacity must be >= 1, got %d: %w", capacity, ErrInvalidCapacity)
	}

	return &Heap[V]{items: make([]Item[V], capacity)}, nil
}

// Len returns the number of items.
func (h *Heap[V]) Len() int {
	return h.count
}

// Cap returns the maximum number of items.
func (h *Heap[V]) Cap() int {
	return len(h.items)
}

// Push adds an item and restores the heap property by sifting it up.
//
// Possible errors:
//   - [ErrFull]: the heap already holds Cap() items
func (h *Heap[V]) Push(priority uint64, value V) error {
	if h.count >= len(h.items) {
		return fmt.Errorf("push priority %d: %w", priority, ErrFull)
	}

	i := h.count
	h.items[i] = Item[V]{Priority: priority, Value: value}
	h.count++

	for i > 0 {
		parent := (i - 1) / 2
		if h.items[parent].Priority <= h.items[i].Priority {
			break
		}

		h.items[parent], h.items[i] = h.items[i], h.items[parent]
		i = parent
	}

	return nil
}

// Peek returns the root (smallest priority) without removing it.
func (h *Heap[V]) Peek() (Item[V], bool) {
	if h.count == 0 {
		return Item[V]{}, false
	}

	return h.items[0], true
}

// Pop removes and returns the root. The last item replaces the root and is
// sifted down by priority. Pop on an empty heap reports false and changes
// nothing.
func (h *Heap[V]) Pop() (Item[V], bool) {
	if h.count == 0 {
		return Item[V]{}, false
	}

	root := h.items[0]

	h.count--
	h.items[0] = h.items[h.count]
	h.items[h.count] = Item[V]{}

	h.siftDown(0)

	return root, true
}

func (h *Heap[V]) siftDown(i int) {
	for {
		smallest := i

		left, right := 2*i+1, 2*i+2
		if left < h.count && h.items[left].Priority < h.items[smallest].Priority {
			smallest = left
		}

		if right < h.count && h.items[right].Priority < h.items[smallest].Priority {
			smallest = right
		}

		if smallest == i {
			return
		}

		h.items[i], h.items[smallest] = h.items[smallest], h.items[i]
		i = smallest
	}
}

// Items returns the live items in heap (array) order. The slice aliases the
// heap's storage and is valid until the next Push or Pop.
func (h *Heap[V]) Items() []Item[V] {
	return h.items[:h.count]
}
