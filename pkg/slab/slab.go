// Package slab provides a fixed-capacity block allocator.
//
// A [Page] owns a contiguous slice of blocks of one element type and hands
// them out in O(1) through a free list threaded through the unused slots.
// Blocks are addressed by [Handle] (slot index plus generation) instead of
// pointers, so a released block can be told apart from a live one even after
// its slot has been reused.
//
// # Basic Usage
//
//	page, err := slab.New[node](1024)
//	if err != nil {
//	    return err
//	}
//
//	h, err := page.Acquire()
//	if errors.Is(err, slab.ErrFull) {
//	    // page sized too small
//	}
//
//	n := page.Get(h)
//	n.key = 42
//
//	_ = page.Release(h)
//
// Pages are not safe for concurrent use.
package slab

import (
	"fmt"
	"math"
	"unsafe"
)

// MaxCapacity is the largest number of blocks a single page can hold.
const MaxCapacity = math.MaxInt32 - 1

// noSlot terminates the free list.
const noSlot = int32(-1)

// Handle identifies one block of a [Page].
//
// The zero Handle is never returned by [Page.Acquire]; use [Nil] for "no
// block".
type Handle struct {
	index int32
	gen   uint32
}

// Nil is the handle that refers to no block.
var Nil = Handle{index: noSlot}

// IsNil reports whether h refers to no block.
func (h Handle) IsNil() bool {
	return h.index < 0
}

// Index returns the slot index of h, or -1 for [Nil].
func (h Handle) Index() int {
	return int(h.index)
}

func (h Handle) String() string {
	if h.IsNil() {
		return "slab.Nil"
	}

	return fmt.Sprintf("slab.Handle(%d@%d)", h.index, h.gen)
}

// slot is one block plus its bookkeeping. gen is odd while the block is in
// use and even while it sits on the free list.
type slot[T any] struct {
	value T
	next  int32
	gen   uint32
}

// Page is a fixed-capacity pool of uniformly sized blocks.
type Page[T any] struct {
	slots []slot[T]
	free  int32
	inUse int
}

// New allocates a page of capacity blocks of T and links every block into the
// free list.
//
// Possible errors:
//   - [ErrInvalidCapacity]: capacity < 1 or capacity > [MaxCapacity]
func New[T any](capacity int) (*Page[T], error) {
	if capacity < 1 || capacity > MaxCapacity {
		return nil, fmt.Errorf("capacity must be in [1, %d], got %d: %w", MaxCapacity, capacity, ErrInvalidCapacity)
	}

	p := &Page[T]{slots: make([]slot[T], capacity)}

	// Thread the free list so blocks are handed out in index order.
	for i := range p.slots {
		p.slots[i].next = int32(i + 1)
	}

	p.slots[capacity-1].next = noSlot
	p.free = 0

	return p, nil
}

// Acquire takes one block off the free list. The block's value is zeroed.
//
// Possible errors:
//   - [ErrFull]: no free block remains
func (p *Page[T]) Acquire() (Handle, error) {
	if p.free == noSlot {
		return Nil, ErrFull
	}

	idx := p.free
	s := &p.slots[idx]

	p.free = s.next
	s.next = noSlot
	s.gen++

	var zero T
	s.value = zero

	p.inUse++

	return Handle{index: idx, gen: s.gen}, nil
}

// MustAcquire is like [Page.Acquire] but panics when the page is full. Use it
// where exhaustion means the page was provisioned wrong.
func (p *Page[T]) MustAcquire() Handle {
	h, err := p.Acquire()
	if err != nil {
		panic(fmt.Sprintf("slab: acquire on page of capacity %d: %v", len(p.slots), err))
	}

	return h
}

// Release returns the block identified by h to the free list.
//
// Possible errors:
//   - [ErrForeignHandle]: h does not index into this page
//   - [ErrStaleHandle]: the block is already free or h predates its reuse
func (p *Page[T]) Release(h Handle) error {
	s, err := p.lookup(h)
	if err != nil {
		return err
	}

	var zero T
	s.value = zero
	s.gen++
	s.next = p.free
	p.free = h.index
	p.inUse--

	return nil
}

// Get returns the address of the block identified by h. The address stays
// valid until the block is released.
//
// Get panics if h is foreign or stale.
func (p *Page[T]) Get(h Handle) *T {
	s, err := p.lookup(h)
	if err != nil {
		panic(fmt.Sprintf("slab: get %v: %v", h, err))
	}

	return &s.value
}

// Valid reports whether h currently identifies an in-use block of this page.
func (p *Page[T]) Valid(h Handle) bool {
	_, err := p.lookup(h)

	return err == nil
}

// Len returns the number of blocks in use.
func (p *Page[T]) Len() int {
	return p.inUse
}

// Cap returns the total number of blocks.
func (p *Page[T]) Cap() int {
	return len(p.slots)
}

// Free returns the number of blocks still available.
func (p *Page[T]) Free() int {
	return len(p.slots) - p.inUse
}

// ElemSize returns the size in bytes of one block's payload.
func (p *Page[T]) ElemSize() uintptr {
	var zero T

	return unsafe.Sizeof(zero)
}

func (p *Page[T]) lookup(h Handle) (*slot[T], error) {
	if h.index < 0 || int(h.index) >= len(p.slots) {
		return nil, fmt.Errorf("%v on page of capacity %d: %w", h, len(p.slots), ErrForeignHandle)
	}

	s := &p.slots[h.index]
	if s.gen != h.gen || s.gen%2 == 0 {
		return nil, fmt.Errorf("%v (slot generation %d): %w", h, s.gen, ErrStaleHandle)
	}

	return s, nil
}
