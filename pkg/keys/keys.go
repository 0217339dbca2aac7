// Package keys derives uint64 table keys from world coordinates and strings.
package keys

import "math/bits"

// Field widths of a packed coordinate key. X and Z are the horizontal axes.
const (
	HorizontalBits = 24
	VerticalBits   = 64 - 2*HorizontalBits

	horizontalMask = 1<<HorizontalBits - 1
	verticalMask   = 1<<VerticalBits - 1
)

// Coordinate ranges that survive a PackCoords/UnpackCoords round trip.
const (
	MinHorizontal = -(1 << (HorizontalBits - 1))
	MaxHorizontal = 1<<(HorizontalBits-1) - 1
	MinVertical   = -(1 << (VerticalBits - 1))
	MaxVertical   = 1<<(VerticalBits-1) - 1
)

// PackCoords packs a cell position into a key: x in bits 0-23, z in bits
// 24-47 and y in bits 48-63. Each value is truncated to its field, so
// coordinates outside the Min/Max ranges alias.
func PackCoords(x, y, z int) uint64 {
	return uint64(x)&horizontalMask |
		(uint64(z)&horizontalMask)<<HorizontalBits |
		(uint64(y)&verticalMask)<<(2*HorizontalBits)
}

// UnpackCoords reverses [PackCoords], sign-extending each field.
func UnpackCoords(key uint64) (x, y, z int) {
	x = signExtend(key&horizontalMask, HorizontalBits)
	z = signExtend(key>>HorizontalBits&horizontalMask, HorizontalBits)
	y = signExtend(key>>(2*HorizontalBits), VerticalBits)

	return x, y, z
}

func signExtend(v uint64, width uint) int {
	shift := 64 - width

	return int(int64(v<<shift) >> shift)
}

// HashString hashes s with a rotate-and-add string hash. seed is folded into
// the initial state so the same text under different qualifiers (a font
// size, a style id) yields different keys.
func HashString(s string, seed uint64) uint64 {
	h := 5381 + seed

	for i := 0; i < len(s); i++ {
		h = bits.RotateLeft64(h, 5) + h + uint64(s[i])
	}

	return h
}
