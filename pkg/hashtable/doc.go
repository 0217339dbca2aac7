// Package hashtable provides fixed-capacity multi-map hash tables keyed by
// uint64.
//
// Two variants share one lookup contract:
//
//   - [Table] resolves collisions by separate chaining. Nodes come from a
//     [slab.Page], so inserts never allocate and removed nodes are reused.
//   - [Resettable] stores nodes in a bump arena and stamps every bucket with
//     the generation that last wrote it. [Resettable.Reset] discards all
//     contents in O(1) by advancing the generation.
//
// Both are multi-maps: inserting an existing key adds another node, and the
// most recently inserted node for a key is found first.
//
// # Lookup Cursor
//
// Find records the node it returned; FindNext continues the scan from there.
// The cursor is table-wide, not per key, so interleaving Find/FindNext
// sequences for different keys on the same table is a misuse:
//
//	for v, ok := t.Find(k); ok; v, ok = t.FindNext(k) {
//	    // visit v
//	}
//
// # Values
//
// Tables store values, they never own what the values refer to. V is
// usually a pointer or a slot index. RemoveByValue compares values with ==.
//
// # Errors
//
// Capacity exhaustion is the only error path ([ErrFull]). A missing key is
// reported as (zero, false), never as an error.
//
// Tables are not safe for concurrent use.
package hashtable
