package spatial

import (
	"fmt"

	"github.com/calvinalkan/slabtable/pkg/hashtable"
)

// FrameIndex maps cells to entities for a single frame. Everything marked
// in a frame disappears when the next frame begins.
type FrameIndex[E comparable] struct {
	table *hashtable.Resettable[E]
}

// NewFrameIndex creates a frame index that accepts up to capacity marks per
// frame.
func NewFrameIndex[E comparable](capacity int) (*FrameIndex[E], error) {
	table, err := hashtable.NewResettable[E](capacity)
	if err != nil {
		return nil, fmt.Errorf("frame index: %w", err)
	}

	return &FrameIndex[E]{table: table}, nil
}

// BeginFrame discards every mark from the previous frame.
func (f *FrameIndex[E]) BeginFrame() {
	f.table.Reset()
}

// Frame returns the number of frames begun so far (mod 2^32).
func (f *FrameIndex[E]) Frame() uint32 {
	return f.table.Generation()
}

// Len returns the number of marks in the current frame.
func (f *FrameIndex[E]) Len() int {
	return f.table.Len()
}

// Mark records e at pos for the current frame.
//
// Possible errors:
//   - [hashtable.ErrFull]: the frame already holds capacity marks
func (f *FrameIndex[E]) Mark(pos Coord, e E) error {
	err := f.table.Insert(pos.Key(), e)
	if err != nil {
		return fmt.Errorf("mark %v: %w", pos, err)
	}

	return nil
}

// At returns the most recent mark at pos in the current frame.
func (f *FrameIndex[E]) At(pos Coord) (E, bool) {
	return f.table.Find(pos.Key())
}

// Each calls fn for every mark at pos, most recent first, until fn returns
// false.
func (f *FrameIndex[E]) Each(pos Coord, fn func(E) bool) {
	key := pos.Key()

	for e, ok := f.table.Find(key); ok; e, ok = f.table.FindNext(key) {
		if !fn(e) {
			return
		}
	}
}
