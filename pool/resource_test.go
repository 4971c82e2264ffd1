// File: pool/resource_test.go
// Author: momentics <momentics@gmail.com>
//
// End-to-end scenarios against a fake upstream, mirroring the literal
// inputs from the requirements: tail retention, coalescing, shrink and
// reclaim, and bulk sync deduplication.

package pool

import (
	stdsync "sync"
	"testing"

	"github.com/momentics/hioload-pool/upstream"
)

func newTestPool(t *testing.T, up *upstream.FakeResource, synchronizer *upstream.FakeSynchronizer, opts Options) *PoolResource[*CoalescingFreeList, *stdsync.Mutex] {
	t.Helper()
	return NewPoolResource[*CoalescingFreeList, *stdsync.Mutex](up, synchronizer, NewCoalescingFreeList(), &stdsync.Mutex{}, opts)
}

func TestTailRetention(t *testing.T) {
	up := upstream.NewFakeResource(0x10000)
	sy := upstream.NewFakeSynchronizer(0)
	opts := Options{MinBlockSize: 4096, MaxBlockSize: UnboundedMaxBlockSize(), GrowthFactor: 2.0, TrySmallerOnFailure: true, ReturnToUpstreamOnFailure: true, UpstreamAlignment: 1}
	p := newTestPool(t, up, sy, opts)

	ptr1, err := p.Allocate(100, 1)
	if err != nil {
		t.Fatalf("Allocate(100) failed: %v", err)
	}
	allocated, _ := up.Stats()
	if allocated != 1 {
		t.Fatalf("expected exactly one upstream allocation, got %d", allocated)
	}

	ptr2, err := p.Allocate(200, 1)
	if err != nil {
		t.Fatalf("Allocate(200) failed: %v", err)
	}
	allocated, _ = up.Stats()
	if allocated != 1 {
		t.Fatalf("second allocation must come from the free-list tail, but upstream was called again (count=%d)", allocated)
	}
	if ptr2 != ptr1+100 {
		t.Fatalf("expected second allocation to land right after the first: got %#x, want %#x", ptr2, ptr1+100)
	}
}

func TestCoalescingAfterTailRetention(t *testing.T) {
	up := upstream.NewFakeResource(0x10000)
	sy := upstream.NewFakeSynchronizer(0)
	opts := Options{MinBlockSize: 4096, MaxBlockSize: UnboundedMaxBlockSize(), GrowthFactor: 2.0, TrySmallerOnFailure: true, ReturnToUpstreamOnFailure: true, UpstreamAlignment: 1}
	p := newTestPool(t, up, sy, opts)

	ptr1, _ := p.Allocate(100, 1)
	_, _ = p.Allocate(200, 1)

	if err := p.Deallocate(ptr1, 100, 1); err != nil {
		t.Fatalf("Deallocate(100) failed: %v", err)
	}
	if err := p.Deallocate(ptr1+100, 200, 1); err != nil {
		t.Fatalf("Deallocate(200) failed: %v", err)
	}

	ptr3, err := p.Allocate(4096, 1)
	if err != nil {
		t.Fatalf("Allocate(4096) failed: %v", err)
	}
	allocated, _ := up.Stats()
	if allocated != 1 {
		t.Fatalf("coalesced region should satisfy the 4096 request without another upstream call, count=%d", allocated)
	}
	if ptr3 != ptr1 {
		t.Fatalf("expected coalesced allocation to return the original block start %#x, got %#x", ptr1, ptr3)
	}
}

func TestShrinkAndReclaim(t *testing.T) {
	up := upstream.NewFakeResource(0x10000)
	sy := upstream.NewFakeSynchronizer(0)
	opts := Options{MinBlockSize: 4096, MaxBlockSize: UnboundedMaxBlockSize(), GrowthFactor: 2.0, TrySmallerOnFailure: true, ReturnToUpstreamOnFailure: true, UpstreamAlignment: 1}
	p := newTestPool(t, up, sy, opts)

	// Pool already holds one 8KiB block, fully free.
	held, err := p.Allocate(8192, 1)
	if err != nil {
		t.Fatalf("seed allocation failed: %v", err)
	}
	if err := p.Deallocate(held, 8192, 1); err != nil {
		t.Fatalf("seed deallocation failed: %v", err)
	}

	// Upstream refuses the next request of each of 16 KiB, 8 KiB and
	// 4 KiB, so only the reclaim pass can make room.
	up.FailSize(16384, 1)
	up.FailSize(8192, 1)
	up.FailSize(4096, 1)

	// Go straight to the upstream-acquisition protocol: through Allocate
	// the free 8 KiB block would satisfy a 4 KiB request from the free list.
	ptr, _, err := p.acquireUpstreamBlock(4096, 1)
	if err != nil {
		t.Fatalf("expected shrink-and-reclaim retry to succeed, got: %v", err)
	}
	if ptr == 0 {
		t.Fatalf("expected a non-zero pointer")
	}
	if len(p.blocks) != 1 {
		t.Fatalf("expected exactly one owned block after reclaim, got %d", len(p.blocks))
	}
	if p.blocks[0].bytes != 4096 {
		t.Fatalf("expected the surviving block to be 4096 bytes, got %d", p.blocks[0].bytes)
	}
	if len(p.freeList.regions) != 0 {
		t.Fatalf("expected an empty free list, got %d regions", len(p.freeList.regions))
	}
}

func TestBulkSyncDeduplication(t *testing.T) {
	up := upstream.NewFakeResource(0x10000)
	sy := upstream.NewFakeSynchronizer(0)
	opts := Options{MinBlockSize: 4096, MaxBlockSize: UnboundedMaxBlockSize(), GrowthFactor: 2.0, Sync: SyncDevice, UpstreamAlignment: 1}
	p := newTestPool(t, up, sy, opts)

	params := []DeallocParams{
		{SyncDevice: 2, Ptr: 0x1000, Bytes: 16},
		{SyncDevice: 2, Ptr: 0x2000, Bytes: 16},
		{SyncDevice: 5, Ptr: 0x3000, Bytes: 16},
		{SyncDevice: 2, Ptr: 0x4000, Bytes: 16},
	}
	if err := p.BulkDeallocate(params); err != nil {
		t.Fatalf("BulkDeallocate failed: %v", err)
	}
	if got := sy.CallsForDevice(2); got != 1 {
		t.Fatalf("expected device 2 to be synchronized exactly once, got %d", got)
	}
	if got := sy.CallsForDevice(5); got != 1 {
		t.Fatalf("expected device 5 to be synchronized exactly once, got %d", got)
	}
}

func TestDeallocateNoSyncSkipsSynchronization(t *testing.T) {
	up := upstream.NewFakeResource(0x10000)
	sy := upstream.NewFakeSynchronizer(0)
	opts := Options{MinBlockSize: 4096, MaxBlockSize: UnboundedMaxBlockSize(), GrowthFactor: 2.0, Sync: SyncDevice, UpstreamAlignment: 1}
	p := newTestPool(t, up, sy, opts)

	ptr, _ := p.Allocate(100, 1)
	p.DeallocateNoSync(ptr, 100, 1)
	if got := sy.CallsForDevice(0); got != 0 {
		t.Fatalf("DeallocateNoSync must not synchronize, got %d calls", got)
	}
}

func TestDeallocateSyncFailurePropagatesWithoutFreeing(t *testing.T) {
	up := upstream.NewFakeResource(0x10000)
	sy := upstream.NewFakeSynchronizer(0)
	opts := Options{MinBlockSize: 4096, MaxBlockSize: UnboundedMaxBlockSize(), GrowthFactor: 2.0, Sync: SyncDevice, UpstreamAlignment: 1}
	p := newTestPool(t, up, sy, opts)

	ptr, _ := p.Allocate(100, 1)
	sy.FailDevice(0)

	if err := p.Deallocate(ptr, 100, 1); err == nil {
		t.Fatalf("expected synchronization failure to propagate")
	}
	// The tail of the upstream block is already free; the 100-byte head
	// must stay out of the free list, so it cannot have merged with it.
	if len(p.freeList.regions) != 1 || p.freeList.regions[0].ptr != ptr+100 {
		t.Fatalf("a failed sync must not insert the region into the free list")
	}
}

func TestFreeAllReleasesEveryOwnedBlock(t *testing.T) {
	up := upstream.NewFakeResource(0x10000)
	sy := upstream.NewFakeSynchronizer(0)
	opts := Options{MinBlockSize: 4096, MaxBlockSize: UnboundedMaxBlockSize(), GrowthFactor: 2.0, UpstreamAlignment: 1}
	p := newTestPool(t, up, sy, opts)

	p.Allocate(100, 1)
	p.Allocate(1 << 20, 1)

	if err := p.FreeAll(); err != nil {
		t.Fatalf("FreeAll failed: %v", err)
	}
	if len(p.blocks) != 0 {
		t.Fatalf("expected no owned blocks after FreeAll, got %d", len(p.blocks))
	}
	if len(p.freeList.regions) != 0 {
		t.Fatalf("expected an empty free list after FreeAll")
	}
	allocated, freed := up.Stats()
	if freed != allocated {
		t.Fatalf("expected every allocated block to be freed, allocated=%d freed=%d", allocated, freed)
	}
}
