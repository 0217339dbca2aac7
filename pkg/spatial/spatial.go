// Package spatial indexes entities by the world cell they occupy.
//
// [Index] is the long-lived entity-by-location table: entities are placed,
// moved between cells and removed explicitly. [FrameIndex] is rebuilt once
// per frame (cover shadows, hover targets) and cleared in O(1) with
// [FrameIndex.BeginFrame].
package spatial

import (
	"fmt"

	"github.com/calvinalkan/slabtable/pkg/hashtable"
	"github.com/calvinalkan/slabtable/pkg/keys"
)

// Coord is a cell position in world space.
type Coord struct {
	X, Y, Z int
}

// Key returns the table key for c.
func (c Coord) Key() uint64 {
	return keys.PackCoords(c.X, c.Y, c.Z)
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.X, c.Y, c.Z)
}

// Index maps cells to the entities in them. A cell may hold several
// entities; the same entity must not be placed twice in one cell.
type Index[E comparable] struct {
	table *hashtable.Table[E]
}

// NewIndex creates an index for up to capacity placed entities.
func NewIndex[E comparable](capacity int) (*Index[E], error) {
	table, err := hashtable.New[E](capacity)
	if err != nil {
		return nil, fmt.Errorf("spatial index: %w", err)
	}

	return &Index[E]{table: table}, nil
}

// Len returns the number of placed entities.
func (idx *Index[E]) Len() int {
	return idx.table.Len()
}

// Cap returns the maximum number of placed entities.
func (idx *Index[E]) Cap() int {
	return idx.table.Cap()
}

// Place adds e to the cell at pos.
//
// Possible errors:
//   - [hashtable.ErrFull]: the index holds Cap() entities
func (idx *Index[E]) Place(pos Coord, e E) error {
	err := idx.table.Insert(pos.Key(), e)
	if err != nil {
		return fmt.Errorf("place at %v: %w", pos, err)
	}

	return nil
}

// Remove takes e out of the cell at pos. It reports whether the cell is now
// empty; a cell that never held e is reported empty only if it holds
// nothing at all.
func (idx *Index[E]) Remove(pos Coord, e E) bool {
	return idx.table.RemoveByValue(pos.Key(), e) < 2
}

// Move relocates e from one cell to another and reports whether the source
// cell was left empty. Moving within the same cell is a no-op.
//
// Possible errors:
//   - [hashtable.ErrFull]: cannot happen after a successful removal; returned
//     when e was not in from and the index is full
func (idx *Index[E]) Move(e E, from, to Coord) (bool, error) {
	if from == to {
		return false, nil
	}

	emptied := idx.Remove(from, e)

	err := idx.Place(to, e)
	if err != nil {
		return emptied, fmt.Errorf("move from %v: %w", from, err)
	}

	return emptied, nil
}

// Cell copies up to len(buf) entities at pos into buf, most recently placed
// first, and returns how many were written.
func (idx *Index[E]) Cell(pos Coord, buf []E) int {
	return idx.table.FindAll(pos.Key(), buf)
}

// First returns the most recently placed entity at pos.
func (idx *Index[E]) First(pos Coord) (E, bool) {
	return idx.table.Find(pos.Key())
}

// Occupancy returns the number of entities at pos.
func (idx *Index[E]) Occupancy(pos Coord) int {
	return idx.table.Count(pos.Key())
}

// Stats reports the shape of the underlying table.
func (idx *Index[E]) Stats() hashtable.Stats {
	return idx.table.Stats()
}

// Cells yields every (cell, entity) pair in table order.
func (idx *Index[E]) Cells(yield func(Coord, E) bool) {
	for k, e := range idx.table.All() {
		x, y, z := keys.UnpackCoords(k)
		if !yield(Coord{X: x, Y: y, Z: z}, e) {
			return
		}
	}
}
