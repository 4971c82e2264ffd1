// File: pool/freelist.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// FreeList is the pool's external free-region contract (spec.md §2): a
// semantic set of disjoint (ptr, bytes) regions supporting best-fit
// extraction and address-adjacency coalescing on insert. It is treated
// as a black-box collaborator — PoolResource never inspects its internals
// and always calls it while holding pool_lock, so FreeList implementations
// need no locking of their own.
//
// CoalescingFreeList is the default implementation: a slice of disjoint
// regions kept sorted by address, searched and merged directly. It favors
// simplicity and correctness over the tree/bucket structures a production
// allocator might use — reimplementations are free to swap it out entirely
// (see PoolResource's FreeList type parameter).
package pool

import "sort"

// FreeList is the pluggable free-region store backing a PoolResource.
type FreeList interface {
	// Put inserts a region, coalescing with address-adjacent neighbors.
	Put(ptr, bytes uintptr)

	// Get extracts a region of at least bytes, aligned to at least
	// alignment. Returns ok=false if no region satisfies the request;
	// the free list is left unchanged in that case.
	Get(bytes, alignment uintptr) (ptr uintptr, ok bool)

	// RemoveIfInList removes the exact region (ptr, bytes) if present,
	// reporting whether it was found. Used to detect upstream blocks
	// that are wholly free.
	RemoveIfInList(ptr, bytes uintptr) bool

	// Clear empties the free list.
	Clear()
}

type region struct {
	ptr, bytes uintptr
}

// CoalescingFreeList is an address-sorted, coalescing FreeList.
type CoalescingFreeList struct {
	regions []region
}

// NewCoalescingFreeList creates an empty free list.
func NewCoalescingFreeList() *CoalescingFreeList {
	return &CoalescingFreeList{}
}

func (f *CoalescingFreeList) search(ptr uintptr) int {
	return sort.Search(len(f.regions), func(i int) bool {
		return f.regions[i].ptr >= ptr
	})
}

// Put inserts (ptr, bytes), merging with the preceding and/or following
// region when they are address-adjacent.
func (f *CoalescingFreeList) Put(ptr, bytes uintptr) {
	if bytes == 0 {
		return
	}
	i := f.search(ptr)
	merged := region{ptr, bytes}

	if i > 0 && f.regions[i-1].ptr+f.regions[i-1].bytes == merged.ptr {
		i--
		merged.ptr = f.regions[i].ptr
		merged.bytes += f.regions[i].bytes
		f.regions = append(f.regions[:i], f.regions[i+1:]...)
	}
	if i < len(f.regions) && merged.ptr+merged.bytes == f.regions[i].ptr {
		merged.bytes += f.regions[i].bytes
		f.regions = append(f.regions[:i], f.regions[i+1:]...)
	}

	f.regions = append(f.regions, region{})
	copy(f.regions[i+1:], f.regions[i:])
	f.regions[i] = merged
}

// Get performs a best-fit scan: the region leaving the least slack after
// alignment padding and the requested size wins.
func (f *CoalescingFreeList) Get(bytes, alignment uintptr) (uintptr, bool) {
	if bytes == 0 {
		return 0, false
	}
	best := -1
	var bestWaste uintptr
	for i, r := range f.regions {
		aligned := alignUp(r.ptr, alignment)
		pad := aligned - r.ptr
		if pad > r.bytes {
			continue
		}
		avail := r.bytes - pad
		if avail < bytes {
			continue
		}
		waste := avail - bytes
		if best == -1 || waste < bestWaste {
			best, bestWaste = i, waste
		}
	}
	if best == -1 {
		return 0, false
	}

	r := f.regions[best]
	f.regions = append(f.regions[:best], f.regions[best+1:]...)

	aligned := alignUp(r.ptr, alignment)
	if pad := aligned - r.ptr; pad > 0 {
		f.Put(r.ptr, pad)
	}
	tailStart := aligned + bytes
	if tailLen := r.ptr + r.bytes - tailStart; tailLen > 0 {
		f.Put(tailStart, tailLen)
	}
	return aligned, true
}

// RemoveIfInList removes an exact (ptr, bytes) region if present.
func (f *CoalescingFreeList) RemoveIfInList(ptr, bytes uintptr) bool {
	i := f.search(ptr)
	if i < len(f.regions) && f.regions[i].ptr == ptr && f.regions[i].bytes == bytes {
		f.regions = append(f.regions[:i], f.regions[i+1:]...)
		return true
	}
	return false
}

// Clear empties the free list.
func (f *CoalescingFreeList) Clear() {
	f.regions = nil
}

var _ FreeList = (*CoalescingFreeList)(nil)
