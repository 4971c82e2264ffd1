// Package upstream
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Concrete api.MemoryResource implementations a pool.PoolResource can sit
// on top of: a plain host heap backed by raw OS pages, a NUMA-pinned
// variant of the same, and a simulated device heap for tests and demos.
// Platform-specific page mapping lives in host_linux.go / host_windows.go
// / host_other.go, mirroring the teacher's existing *_linux.go /
// *_windows.go build-tag split (pool/bufferpool_linux.go /
// pool/bufferpool_windows.go in momentics-hioload-ws).
package upstream

import (
	"fmt"
	"sync"

	"github.com/momentics/hioload-pool/api"
)

// pageMapping is the platform hook host.go delegates to.
type pageMapping interface {
	mapPages(size uintptr) (uintptr, error)
	unmapPages(ptr, size uintptr) error
}

// HostResource is a host-heap upstream resource backed directly by
// anonymous OS page mappings (mmap on Linux, VirtualAlloc on Windows).
// It has no execution context to synchronize: GetContext returns nil and
// its Synchronizer methods are no-ops, matching a pool configured with
// pool.SyncNone.
type HostResource struct {
	mapper pageMapping

	mu      sync.Mutex
	regions map[uintptr]mappedRegion
}

type mappedRegion struct {
	base uintptr
	size uintptr
}

// NewHostResource creates a host-heap upstream using the platform page
// mapper for the current build target.
func NewHostResource() *HostResource {
	return &HostResource{
		mapper:  platformPageMapper(),
		regions: make(map[uintptr]mappedRegion),
	}
}

// Allocate reserves a page-backed region of at least bytes, aligned to
// alignment. Alignments wider than the page size are satisfied by
// over-mapping and handing back an interior pointer; the original
// mapping's base and size are retained so Deallocate can unmap exactly
// what was mapped.
func (h *HostResource) Allocate(bytes, alignment uintptr) (uintptr, error) {
	if bytes == 0 {
		return 0, nil
	}
	mapSize := bytes
	if alignment > 1 {
		mapSize += alignment - 1
	}

	base, err := h.mapper.mapPages(mapSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", api.ErrAllocationFailed, err)
	}

	aligned := base
	if alignment > 1 {
		aligned = (base + alignment - 1) &^ (alignment - 1)
	}

	h.mu.Lock()
	h.regions[aligned] = mappedRegion{base: base, size: mapSize}
	h.mu.Unlock()
	return aligned, nil
}

// Deallocate unmaps the region previously returned by Allocate.
func (h *HostResource) Deallocate(ptr, bytes, alignment uintptr) error {
	_ = bytes
	_ = alignment
	if ptr == 0 {
		return nil
	}
	h.mu.Lock()
	region, ok := h.regions[ptr]
	if ok {
		delete(h.regions, ptr)
	}
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: unknown host region %#x", api.ErrInvalidArgument, ptr)
	}
	return h.mapper.unmapPages(region.base, region.size)
}

// GetContext returns nil: the host heap has no execution context.
func (h *HostResource) GetContext() api.Context { return nil }

// IsEqual reports pointer identity.
func (h *HostResource) IsEqual(other api.MemoryResource) bool {
	o, ok := other.(*HostResource)
	return ok && o == h
}

// CurrentDevice always resolves to 0 for the host heap.
func (h *HostResource) CurrentDevice() int { return 0 }

// SynchronizeDevice is a no-op: host memory has no asynchronous producer.
func (h *HostResource) SynchronizeDevice(int) error { return nil }

// SynchronizeAll is a no-op for the same reason.
func (h *HostResource) SynchronizeAll() error { return nil }

var _ api.MemoryResource = (*HostResource)(nil)
