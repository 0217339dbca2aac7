// Package testutil turns fuzz input into deterministic table operations.
package testutil

// ByteStream reads bytes sequentially from a byte slice.
//
// When the stream is exhausted every read returns zero, so the same input
// always produces the same sequence of values.
type ByteStream struct {
	bytes []byte
	pos   int
}

// NewByteStream creates a stream over the given bytes.
func NewByteStream(b []byte) *ByteStream {
	return &ByteStream{bytes: b}
}

// HasMore reports whether unread bytes remain.
func (s *ByteStream) HasMore() bool {
	return s.pos < len(s.bytes)
}

// NextByte returns the next byte, or 0 if exhausted.
func (s *ByteStream) NextByte() byte {
	if s.pos >= len(s.bytes) {
		return 0
	}

	v := s.bytes[s.pos]
	s.pos++

	return v
}

// NextInt returns a value in [0, maxVal) derived from the next byte.
func (s *ByteStream) NextInt(maxVal int) int {
	if maxVal <= 0 {
		return 0
	}

	return int(s.NextByte()) % maxVal
}

// NextKey returns a table key in [0, keySpace).
//
// Small key spaces are intentional: with few buckets most keys alias and
// chains get long.
func (s *ByteStream) NextKey(keySpace int) uint64 {
	return uint64(s.NextInt(keySpace))
}
