// File: pool/dealloc_batch.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// DeallocParams, which BulkDeallocate takes as a slice, and the batch
// type the deferred worker collects them in before that call, adapted from the teacher's BufferBatch (pool/batch.go in
// momentics-hioload-ws): a minimal growable slice wrapper, reused here
// for the exact same reason the teacher used it — avoid per-item
// allocation churn on a hot bulk path.

package pool

// DeallocParams names one region to return to the pool in bulk (spec.md
// §3: deferred-deallocation queue entries / §4.1: bulk_deallocate params).
type DeallocParams struct {
	// SyncDevice is the device to synchronize before this region re-enters
	// the free list; < 0 means "resolve to the current device."
	SyncDevice int
	Ptr        uintptr
	Bytes      uintptr
	Alignment  uintptr
}

// deallocBatch is a zero-alloc-on-reuse growable slice of DeallocParams.
type deallocBatch struct {
	items []DeallocParams
}

func newDeallocBatch(capacity int) *deallocBatch {
	return &deallocBatch{items: make([]DeallocParams, 0, capacity)}
}

func (b *deallocBatch) append(p DeallocParams) {
	b.items = append(b.items, p)
}

func (b *deallocBatch) len() int { return len(b.items) }

func (b *deallocBatch) reset() { b.items = b.items[:0] }
