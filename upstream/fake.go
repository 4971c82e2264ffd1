// File: upstream/fake.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// FakeResource is a test-double api.MemoryResource with configurable
// failure injection, and FakeSynchronizer a test-double
// pool.Synchronizer with per-device synchronization call counters, both
// adapted from the teacher's fake/buffer.go counter-and-mutex pattern
// (there used to track pool Get/Put accounting; here to drive the
// pool's upstream-exhaustion and sync-dedup code paths deterministically
// in tests).
package upstream

import (
	"fmt"
	"sync"

	"github.com/momentics/hioload-pool/api"
)

// FakeResource hands out monotonically increasing fake addresses
// instead of real memory, so tests can exercise the pool's bookkeeping
// logic without mapping real pages.
type FakeResource struct {
	mu   sync.Mutex
	next uintptr

	allocated int64
	freed     int64

	// failNextAllocs makes the next N calls to Allocate fail, then
	// resumes succeeding. Used to drive the shrink-and-reclaim retry
	// path deterministically.
	failNextAllocs int

	// failSizes, if non-empty, makes Allocate fail only for requests of
	// exactly one of these sizes (once per occurrence), used to test
	// retrying with a smaller block size.
	failSizes map[uintptr]int

	syncCalls    map[int]int
	syncAllCalls int
	context      api.Context
}

// NewFakeResource creates a fake upstream starting addresses at base
// (must be non-zero so 0 stays reserved for "no allocation").
func NewFakeResource(base uintptr) *FakeResource {
	if base == 0 {
		base = 0x1000
	}
	return &FakeResource{
		next:      base,
		failSizes: make(map[uintptr]int),
		syncCalls: make(map[int]int),
	}
}

// FailNextAllocations makes the next n calls to Allocate return
// api.ErrAllocationFailed regardless of requested size.
func (f *FakeResource) FailNextAllocations(n int) {
	f.mu.Lock()
	f.failNextAllocs = n
	f.mu.Unlock()
}

// FailSize makes the next n Allocate calls requesting exactly size fail.
func (f *FakeResource) FailSize(size uintptr, n int) {
	f.mu.Lock()
	f.failSizes[size] = n
	f.mu.Unlock()
}

func (f *FakeResource) Allocate(bytes, alignment uintptr) (uintptr, error) {
	if bytes == 0 {
		return 0, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failNextAllocs > 0 {
		f.failNextAllocs--
		return 0, fmt.Errorf("%w: fake upstream exhausted", api.ErrAllocationFailed)
	}
	if n := f.failSizes[bytes]; n > 0 {
		f.failSizes[bytes] = n - 1
		return 0, fmt.Errorf("%w: fake upstream refuses size %d", api.ErrAllocationFailed, bytes)
	}

	ptr := f.next
	if alignment > 1 {
		ptr = (ptr + alignment - 1) &^ (alignment - 1)
	}
	f.next = ptr + bytes
	f.allocated++
	return ptr, nil
}

func (f *FakeResource) Deallocate(ptr, bytes, alignment uintptr) error {
	_ = ptr
	_ = bytes
	_ = alignment
	f.mu.Lock()
	f.freed++
	f.mu.Unlock()
	return nil
}

func (f *FakeResource) GetContext() api.Context { return f.context }

func (f *FakeResource) IsEqual(other api.MemoryResource) bool {
	o, ok := other.(*FakeResource)
	return ok && o == f
}

// Stats returns allocation/free counts for assertions.
func (f *FakeResource) Stats() (allocated, freed int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.allocated, f.freed
}

// FakeSynchronizer is a test-double pool.Synchronizer counting calls
// per device so tests can assert bulk_deallocate's dedup behavior.
type FakeSynchronizer struct {
	mu           sync.Mutex
	current      int
	perDevice    map[int]int
	allCalls     int
	failDeviceID int
	failAll      bool
}

// NewFakeSynchronizer creates a synchronizer resolving "current device"
// to currentDevice.
func NewFakeSynchronizer(currentDevice int) *FakeSynchronizer {
	return &FakeSynchronizer{
		current:      currentDevice,
		perDevice:    make(map[int]int),
		failDeviceID: -1,
	}
}

func (f *FakeSynchronizer) CurrentDevice() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// FailDevice makes the next SynchronizeDevice(id) call for id return an
// error.
func (f *FakeSynchronizer) FailDevice(id int) {
	f.mu.Lock()
	f.failDeviceID = id
	f.mu.Unlock()
}

func (f *FakeSynchronizer) SynchronizeDevice(deviceID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.perDevice[deviceID]++
	if f.failDeviceID == deviceID {
		f.failDeviceID = -1
		return fmt.Errorf("%w: device %d", api.ErrSyncFailed, deviceID)
	}
	return nil
}

func (f *FakeSynchronizer) SynchronizeAll() error {
	f.mu.Lock()
	f.allCalls++
	fail := f.failAll
	f.failAll = false
	f.mu.Unlock()
	if fail {
		return fmt.Errorf("%w: system-wide sync", api.ErrSyncFailed)
	}
	return nil
}

// FailNextSynchronizeAll makes the next SynchronizeAll call fail.
func (f *FakeSynchronizer) FailNextSynchronizeAll() {
	f.mu.Lock()
	f.failAll = true
	f.mu.Unlock()
}

// CallsForDevice reports how many times SynchronizeDevice(id) was
// invoked — used to assert the bulk-dedup property from spec.md §4.1.2.
func (f *FakeSynchronizer) CallsForDevice(id int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.perDevice[id]
}

// TotalSynchronizeAllCalls reports how many times SynchronizeAll ran.
func (f *FakeSynchronizer) TotalSynchronizeAllCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.allCalls
}

var _ api.MemoryResource = (*FakeResource)(nil)
