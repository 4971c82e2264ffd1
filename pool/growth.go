// File: pool/growth.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Growth-cursor mechanics (spec.md §4.1.3): the hint for the next
// upstream block size, grown by GrowthFactor per successful acquisition
// and coarsely aligned so successive upstream blocks have a better chance
// of landing address-adjacent, which lets the free list coalesce across
// upstream-block boundaries once both sides are freed.

package pool

import "math/bits"

// ilog2 returns floor(log2(x)) for x > 0.
func ilog2(x uintptr) int {
	return bits.Len(uint(x)) - 1
}

// alignUp rounds ptr up to the next multiple of alignment (which must be
// a power of two; alignment == 0 is treated as 1).
func alignUp(ptr, alignment uintptr) uintptr {
	if alignment <= 1 {
		return ptr
	}
	return (ptr + alignment - 1) &^ (alignment - 1)
}

// growthCursor tracks next_block_size_ from spec.md §3/§4.1.3.
type growthCursor struct {
	next uintptr
}

func newGrowthCursor(minBlockSize uintptr) growthCursor {
	return growthCursor{next: minBlockSize}
}

// nextBlockSize computes the size for the next upstream block and
// updates the cursor, per spec.md §4.1.3:
//  1. actual = max(upcoming, next * growthFactor)
//  2. align actual up to 1 << max(ilog2(actual)-10, 12)
//  3. next = min(actual, maxBlockSize); return actual
func (g *growthCursor) nextBlockSize(upcoming uintptr, growthFactor float64, maxBlockSize uintptr) uintptr {
	grown := uintptr(float64(g.next) * growthFactor)
	actual := upcoming
	if grown > actual {
		actual = grown
	}

	shift := ilog2(actual) - 10
	if shift < 12 {
		shift = 12
	}
	alignment := uintptr(1) << uint(shift)
	actual = alignUp(actual, alignment)

	if actual > maxBlockSize {
		g.next = maxBlockSize
	} else {
		g.next = actual
	}
	return actual
}

// shrinkTo pins the cursor to blkSize after an upstream failure, per
// spec.md §4.1.1, preventing the next request from optimistically
// upsizing again.
func (g *growthCursor) shrinkTo(blkSize uintptr) {
	g.next = blkSize
}
