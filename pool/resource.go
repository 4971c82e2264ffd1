// File: pool/resource.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// PoolResource is the coalescing pool allocator core (spec.md §4.1):
// growth-cursor-driven upstream acquisition, a coalescing free list, and
// the retry/shrink/reclaim protocol for upstream exhaustion.
//
// Locking discipline (spec.md §4.1): upstreamLock is always a real mutex
// and serializes interaction with upstream and the owned-blocks list;
// poolLock (type parameter L, possibly a NoopLock) protects the free
// list. Lock order is always upstreamLock before poolLock; most
// allocations only ever take poolLock.
package pool

import (
	"fmt"
	"sync"

	"github.com/momentics/hioload-pool/api"
)

// Upstream is the external memory resource a PoolResource acquires
// blocks from.
type Upstream = api.MemoryResource

// PoolResource is parameterized over the free-list implementation F and
// the pool-lock implementation L (spec.md §9: "free list and lock type
// are type parameters in the source"), mirroring the teacher's existing
// use of Go generics for pluggable pool strategies
// (pool/base_bufferpool.go's baseBufferPool[T api.Buffer] in the teacher
// repo).
type PoolResource[F FreeList, L Lock] struct {
	upstream Upstream
	sync     Synchronizer
	options  Options

	upstreamLock sync.Mutex
	blocks       []ownedBlock
	cursor       growthCursor

	poolLock L
	freeList F

	// flushDeferred is called during upstream acquisition retries (step
	// 3 of §4.1.1) to give an attached deferred deallocator a chance to
	// release outstanding memory. nil in the base pool; wired by
	// NewDeferredPool to call the deferred pool's FlushDeferred. Go has
	// no virtual dispatch through embedding, so a hook function is the
	// idiomatic stand-in for the original's overridable flush_deferred().
	flushDeferred func()
}

// NewPoolResource creates a pool bound to upstream, using sync for
// execution-context synchronization, freeList for the free-region store,
// and poolLock for the free-list critical section.
func NewPoolResource[F FreeList, L Lock](upstream Upstream, sync Synchronizer, freeList F, poolLock L, opts Options) *PoolResource[F, L] {
	return &PoolResource[F, L]{
		upstream: upstream,
		sync:     sync,
		options:  opts,
		cursor:   newGrowthCursor(opts.MinBlockSize),
		poolLock: poolLock,
		freeList: freeList,
	}
}

// Allocate implements spec.md §4.1 allocate(bytes, alignment).
func (p *PoolResource[F, L]) Allocate(bytes, alignment uintptr) (uintptr, error) {
	if bytes == 0 {
		return 0, nil
	}
	if ptr, ok := p.TryAllocateFromFree(bytes, alignment); ok {
		return ptr, nil
	}

	if alignment < p.options.UpstreamAlignment {
		alignment = p.options.UpstreamAlignment
	}

	block, blkSize, err := p.acquireUpstreamBlock(bytes, alignment)
	if err != nil {
		return 0, err
	}

	if blkSize == bytes {
		// Exact fit: return as-is. There's no tail to insert, and
		// inserting an exact-fit block unmerged would pollute the free
		// list with a region unlikely ever to coalesce.
		return block, nil
	}

	p.poolLock.Lock()
	p.freeList.Put(block+bytes, blkSize-bytes)
	p.poolLock.Unlock()
	return block, nil
}

// TryAllocateFromFree attempts free-list extraction only, never touching
// upstream (spec.md §4.1 try_allocate_from_free).
func (p *PoolResource[F, L]) TryAllocateFromFree(bytes, alignment uintptr) (uintptr, bool) {
	if bytes == 0 {
		return 0, false
	}
	p.poolLock.Lock()
	defer p.poolLock.Unlock()
	return p.freeList.Get(bytes, alignment)
}

// Deallocate synchronizes per the configured scope, then inserts the
// region into the free list (spec.md §4.1 deallocate). The synchronize-
// before-insert rule is what lets Get callers assume returned memory is
// immediately usable.
func (p *PoolResource[F, L]) Deallocate(ptr, bytes, alignment uintptr) error {
	if ptr == 0 || bytes == 0 {
		return nil
	}
	if err := synchronizeScope(p.sync, p.options.Sync); err != nil {
		return fmt.Errorf("%w: %v", api.ErrSyncFailed, err)
	}
	p.DeallocateNoSync(ptr, bytes, alignment)
	return nil
}

// DeallocateNoSync places a region directly in the free list without
// synchronizing. The caller asserts no outstanding consumer (spec.md
// §4.1 deallocate_no_sync).
func (p *PoolResource[F, L]) DeallocateNoSync(ptr, bytes, alignment uintptr) {
	_ = alignment // the free list only needs the span
	p.poolLock.Lock()
	p.freeList.Put(ptr, bytes)
	p.poolLock.Unlock()
}

// BulkDeallocate performs a single coalesced synchronization covering
// every distinct device referenced in params, then inserts each region
// into the free list (spec.md §4.1 bulk_deallocate).
func (p *PoolResource[F, L]) BulkDeallocate(params []DeallocParams) error {
	if len(params) == 0 {
		return nil
	}
	if err := synchronizeBatch(p.sync, p.options.Sync, params); err != nil {
		return fmt.Errorf("%w: %v", api.ErrSyncFailed, err)
	}
	p.poolLock.Lock()
	for _, par := range params {
		p.freeList.Put(par.Ptr, par.Bytes)
	}
	p.poolLock.Unlock()
	return nil
}

// FreeAll releases every owned upstream block and clears both the
// owned-blocks list and the free list (spec.md §4.1 free_all).
func (p *PoolResource[F, L]) FreeAll() error {
	p.upstreamLock.Lock()
	defer p.upstreamLock.Unlock()
	p.poolLock.Lock()
	defer p.poolLock.Unlock()

	for _, blk := range p.blocks {
		if err := p.upstream.Deallocate(blk.ptr, blk.bytes, blk.alignment); err != nil {
			return err
		}
	}
	p.blocks = nil
	p.freeList.Clear()
	return nil
}

// GetContext forwards the upstream execution context (spec.md §6).
func (p *PoolResource[F, L]) GetContext() api.Context {
	return p.upstream.GetContext()
}

// IsEqual reports identity equality against another MemoryResource.
func (p *PoolResource[F, L]) IsEqual(other api.MemoryResource) bool {
	o, ok := other.(*PoolResource[F, L])
	return ok && o == p
}

// flush invokes the attached deferred deallocator's flush, if any.
func (p *PoolResource[F, L]) flush() {
	if p.flushDeferred != nil {
		p.flushDeferred()
	}
}

// acquireUpstreamBlock implements the upstream acquisition protocol from
// spec.md §4.1.1.
func (p *PoolResource[F, L]) acquireUpstreamBlock(minBytes, alignment uintptr) (uintptr, uintptr, error) {
	p.upstreamLock.Lock()
	defer p.upstreamLock.Unlock()

	blkSize := p.cursor.nextBlockSize(minBytes, p.options.GrowthFactor, p.options.MaxBlockSize)
	triedReclaim := false

	for {
		newBlock, err := p.upstream.Allocate(blkSize, alignment)
		if err == nil {
			if recErr := p.recordBlock(newBlock, blkSize, alignment); recErr != nil {
				if derr := p.upstream.Deallocate(newBlock, blkSize, alignment); derr != nil {
					return 0, 0, fmt.Errorf("%w (and upstream deallocate on rollback failed: %v)", recErr, derr)
				}
				return 0, 0, recErr
			}
			return newBlock, blkSize, nil
		}

		// Upstream allocation failed: give a deferred deallocator a
		// chance to release memory before giving up.
		p.flush()

		if !p.options.TrySmallerOnFailure {
			return 0, 0, fmt.Errorf("%w: %v", api.ErrAllocationFailed, err)
		}

		if blkSize == minBytes {
			if triedReclaim || !p.options.ReturnToUpstreamOnFailure || len(p.blocks) == 0 {
				return 0, 0, fmt.Errorf("%w: %v", api.ErrAllocationFailed, err)
			}
			freed, reclaimErr := p.reclaimFreeBlocks()
			if reclaimErr != nil {
				return 0, 0, reclaimErr
			}
			if freed == 0 {
				return 0, 0, fmt.Errorf("%w: %v", api.ErrAllocationFailed, err)
			}
			triedReclaim = true
			continue
		}

		blkSize = blkSize / 2
		if blkSize < minBytes {
			blkSize = minBytes
		}
		// Pin the cursor to the shrunken size so the next request
		// doesn't optimistically upsize again.
		p.cursor.shrinkTo(blkSize)
	}
}

// recordBlock appends a newly-acquired block to the owned-blocks list.
func (p *PoolResource[F, L]) recordBlock(ptr, bytes, alignment uintptr) error {
	p.blocks = append(p.blocks, ownedBlock{ptr: ptr, bytes: bytes, alignment: alignment})
	return nil
}

// reclaimFreeBlocks scans owned blocks for ones wholly covered by the
// free list and returns them to upstream, per spec.md §4.1.1's reclaim
// pass. Must be called with upstreamLock held; it takes and releases
// poolLock internally.
func (p *PoolResource[F, L]) reclaimFreeBlocks() (int, error) {
	removed := make([]bool, len(p.blocks))
	freedCount := 0

	p.poolLock.Lock()
	for i, blk := range p.blocks {
		if p.freeList.RemoveIfInList(blk.ptr, blk.bytes) {
			removed[i] = true
			freedCount++
		}
	}
	p.poolLock.Unlock()

	if freedCount == 0 {
		return 0, nil
	}

	// Erase in reverse index order to keep earlier indices stable while
	// deallocating and compacting the slice.
	for i := len(p.blocks) - 1; i >= 0; i-- {
		if !removed[i] {
			continue
		}
		blk := p.blocks[i]
		if err := p.upstream.Deallocate(blk.ptr, blk.bytes, blk.alignment); err != nil {
			return freedCount, err
		}
		p.blocks = append(p.blocks[:i], p.blocks[i+1:]...)
	}
	return freedCount, nil
}

var _ api.MemoryResource = (*PoolResource[*CoalescingFreeList, *sync.Mutex])(nil)
