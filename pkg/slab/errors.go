package slab

import "errors"

// Sentinel errors returned by [Page] operations.
//
// Callers should use [errors.Is] to check error types.
var (
	// ErrFull indicates every block of the page is in use.
	//
	// Pages never grow. Recovery: size the page for the worst-case number of
	// simultaneously live blocks.
	ErrFull = errors.New("slab: full")

	// ErrInvalidCapacity indicates a capacity outside [1, MaxCapacity].
	ErrInvalidCapacity = errors.New("slab: invalid capacity")

	// ErrForeignHandle indicates a handle whose index lies outside this page.
	//
	// This is a programming error.
	ErrForeignHandle = errors.New("slab: handle does not belong to page")

	// ErrStaleHandle indicates a handle to a block that was already released
	// (and possibly handed out again since).
	//
	// This is a programming error.
	ErrStaleHandle = errors.New("slab: stale handle")
)
