// File: pool/deferred.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// DeferredPool wraps a PoolResource with a background worker that
// performs synchronization and free-list insertion off the caller's
// thread (spec.md §4.2). Producers hand regions to a double-buffered
// queue pair and return immediately; the worker flips the active queue,
// drains the one it took over, and issues a single coalesced
// BulkDeallocate for the whole batch.
//
// Queue storage is github.com/eapache/queue.Queue, the same ring-buffer
// FIFO the rest of the pack reaches for when a growable, allocation-
// amortized queue is needed; it fits this double-buffer handoff better
// than a sorted structure would.
package pool

import (
	"log"
	"sync"

	"github.com/eapache/queue"

	"github.com/momentics/hioload-pool/api"
)

// DeferredPool adds deferred (background) deallocation on top of a
// PoolResource. The embedded *PoolResource supplies TryAllocateFromFree,
// BulkDeallocate, FreeAll and GetContext unchanged; Allocate (to apply
// backpressure) and IsEqual are shadowed below. Deallocate remains the
// synchronous path, and DeferredDeallocate is the additional opt-in
// asynchronous one.
type DeferredPool[F FreeList, L Lock] struct {
	*PoolResource[F, L]

	maxOutstanding int

	mu      sync.Mutex
	cv      sync.Cond // worker waits here for new work or stop
	ready   sync.Cond // flush/drain callers wait here for a batch to finish
	queues  [2]*queue.Queue
	active  int
	pending int // items enqueued but not yet processed, across both queues
	flushed int // generation counter, incremented after each processed batch
	stopped bool

	wg sync.WaitGroup
}

// NewDeferredPool wraps base with a deferred-deallocation worker.
// maxOutstanding <= 0 means unbounded (no backpressure).
func NewDeferredPool[F FreeList, L Lock](base *PoolResource[F, L], maxOutstanding int) *DeferredPool[F, L] {
	d := &DeferredPool[F, L]{
		PoolResource:   base,
		maxOutstanding: maxOutstanding,
		queues:         [2]*queue.Queue{queue.New(), queue.New()},
	}
	d.cv = *sync.NewCond(&d.mu)
	d.ready = *sync.NewCond(&d.mu)
	base.flushDeferred = d.FlushDeferred

	d.wg.Add(1)
	go d.run()
	return d
}

// DeferredDeallocate enqueues a region for asynchronous synchronization
// and free-list insertion. deviceID < 0 is resolved to the current
// device here, at call time, not later when the worker flushes: the
// producing goroutine's device context is what the later synchronization
// must wait on (spec.md §4.2; original_source's deferred_deallocate
// resolves cudaGetDevice before push_back for the same reason). It
// never blocks: MaxOutstandingDeallocations is enforced on the Allocate
// side (see Allocate below), matching the original's
// do_allocate/do_deallocate split.
func (d *DeferredPool[F, L]) DeferredDeallocate(ptr, bytes, alignment uintptr, deviceID int) error {
	if ptr == 0 || bytes == 0 {
		return nil
	}
	if deviceID < 0 {
		deviceID = d.sync.CurrentDevice()
	}
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return api.ErrPoolClosed
	}
	d.queues[d.active].Add(DeallocParams{SyncDevice: deviceID, Ptr: ptr, Bytes: bytes, Alignment: alignment})
	d.pending++
	d.cv.Signal()
	d.mu.Unlock()
	return nil
}

// Allocate shadows PoolResource.Allocate to apply backpressure: if more
// deallocations are outstanding than MaxOutstandingDeallocations, it
// waits for one batch to flush before delegating (spec.md §9
// polymorphism note; scenario 5).
func (d *DeferredPool[F, L]) Allocate(bytes, alignment uintptr) (uintptr, error) {
	if d.maxOutstanding > 0 && d.OutstandingDeallocCount() > d.maxOutstanding {
		d.FlushDeferred()
	}
	return d.PoolResource.Allocate(bytes, alignment)
}

// IsEqual reports identity equality against another MemoryResource.
func (d *DeferredPool[F, L]) IsEqual(other api.MemoryResource) bool {
	o, ok := other.(*DeferredPool[F, L])
	return ok && o == d
}

// OutstandingDeallocCount reports deferred regions not yet synchronized
// and inserted into the free list.
func (d *DeferredPool[F, L]) OutstandingDeallocCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// FlushDeferred blocks until at least one pending batch has been
// processed, or returns immediately if nothing is pending. This is the
// hook PoolResource.acquireUpstreamBlock calls on upstream exhaustion
// (spec.md §4.1.1 step 3) — it waits for one batch, not a full drain,
// so a slow worker can't wedge an allocation retry indefinitely.
func (d *DeferredPool[F, L]) FlushDeferred() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending == 0 || d.stopped {
		return
	}
	target := d.flushed + 1
	d.cv.Signal()
	for d.flushed < target && !d.stopped {
		d.ready.Wait()
	}
}

// DrainAll blocks until every deferred deallocation has been
// synchronized and merged into the free list. Unlike FlushDeferred,
// which returns after a single batch, DrainAll loops until the queues
// are fully empty.
func (d *DeferredPool[F, L]) DrainAll() {
	for {
		d.mu.Lock()
		if d.pending == 0 {
			d.mu.Unlock()
			return
		}
		d.mu.Unlock()
		d.FlushDeferred()
	}
}

// Close stops the worker after it finishes draining both queues and
// waits for it to exit.
func (d *DeferredPool[F, L]) Close() error {
	d.mu.Lock()
	d.stopped = true
	d.cv.Broadcast()
	d.ready.Broadcast()
	d.mu.Unlock()
	d.wg.Wait()
	return nil
}

// run is the background worker. The wait predicate below is the
// corrected form of the original: it waits while neither stopped nor
// the active queue has work, i.e. it wakes on (stopped || work
// available) rather than the inverted, buggy condition that would
// spin or miss wakeups.
func (d *DeferredPool[F, L]) run() {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		for !d.stopped && d.queues[d.active].Length() == 0 {
			d.cv.Wait()
		}
		if d.queues[0].Length() == 0 && d.queues[1].Length() == 0 {
			d.mu.Unlock()
			return
		}
		drain := d.queues[d.active]
		d.active = 1 - d.active
		d.mu.Unlock()

		n := d.processQueue(drain)

		d.mu.Lock()
		d.pending -= n
		d.flushed++
		d.ready.Broadcast()
		d.mu.Unlock()
	}
}

// processQueue drains every item currently in q into one batch and
// issues a single coalesced BulkDeallocate call for it. Returns the
// number of items processed.
func (d *DeferredPool[F, L]) processQueue(q *queue.Queue) int {
	n := q.Length()
	if n == 0 {
		return 0
	}
	batch := newDeallocBatch(n)
	for i := 0; i < n; i++ {
		batch.append(q.Remove().(DeallocParams))
	}
	if err := d.PoolResource.BulkDeallocate(batch.items); err != nil {
		log.Printf("pool: deferred deallocation batch of %d region(s) failed: %v", n, err)
	}
	return n
}

var _ api.MemoryResource = (*DeferredPool[*CoalescingFreeList, *sync.Mutex])(nil)
