package hashtable

import "errors"

// Sentinel errors returned by table operations.
var (
	// ErrFull indicates the table has no node left for an insert.
	//
	// For [Table] this wraps [slab.ErrFull]; for [Resettable] the arena is
	// exhausted until the next Reset. Recovery: size the table for the
	// worst case.
	ErrFull = errors.New("hashtable: full")

	// ErrInvalidCapacity indicates a bucket or node count below 1 or above
	// the slab limit.
	ErrInvalidCapacity = errors.New("hashtable: invalid capacity")
)
