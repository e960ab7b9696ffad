package simplpool

import (
	"math/bits"

	"github.com/cznic/mathutil"
)

// ffs returns the 1-based index of the least significant set bit of x, or 0
// if x is zero. Mirrors the source's ffs() built on __builtin_ffs. mathutil
// has no ffs-shaped helper anywhere in the pack, so this leaf stays on
// math/bits.
func ffs(x uint32) int {
	if x == 0 {
		return 0
	}
	return bits.TrailingZeros32(x) + 1
}

// fls returns the 1-based index of the most significant set bit of x, or 0
// if x is zero. Mirrors the source's fls() built on __builtin_clz, using
// mathutil.BitLen the same way the teacher's own size-class selection does
// (memory.go: log := uint(mathutil.BitLen(roundup(size, mallocAllign) - 1))).
func fls(x uint32) int {
	if x == 0 {
		return 0
	}
	return mathutil.BitLen(int(x))
}

// alignUp rounds v up to the next multiple of align, align a power of two.
func alignUp(v, align uint32) uint32 {
	mask := align - 1
	return (v + mask) &^ mask
}

// alignDown rounds v down to the previous multiple of align, align a power
// of two.
func alignDown(v, align uint32) uint32 {
	return v &^ (align - 1)
}
