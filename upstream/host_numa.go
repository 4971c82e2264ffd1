// File: upstream/host_numa.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// NUMAResource is a host-heap upstream pinned to a specific NUMA node,
// adapted from the teacher's pool/numa_linux.go / pool/numa_windows.go /
// pool/numa_stub.go NUMAAllocator trio. The allocator there returned
// []byte directly to a buffer pool; here it backs an api.MemoryResource
// that hands out aligned uintptr addresses the same way HostResource
// does, tracking each allocation's original (unaligned) base so it can
// be freed exactly as it was obtained.
package upstream

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/momentics/hioload-pool/api"
	"github.com/momentics/hioload-pool/internal/concurrency"
)

// numaAllocator is the platform hook, one implementation per build tag
// (host_numa_linux.go, host_numa_windows.go, host_numa_stub.go).
type numaAllocator interface {
	alloc(size int, node int) ([]byte, error)
	free(buf []byte)
	nodes() (int, error)
}

// NUMAResource allocates from a single NUMA node via the platform's
// native NUMA allocator when available, falling back to ordinary heap
// memory when it is not (e.g. no libnuma, or an unsupported platform).
type NUMAResource struct {
	node  int
	alloc numaAllocator

	mu    sync.Mutex
	byPtr map[uintptr][]byte // keeps the backing slice alive and recovers it for free()
}

// NewNUMAResource creates an upstream pinned to node. node < 0 resolves
// to the calling thread's current NUMA node via
// internal/concurrency.CurrentNUMANodeID(), the same device_id < 0
// convention the pool's synchronization paths use.
func NewNUMAResource(node int) *NUMAResource {
	if node < 0 {
		node = concurrency.CurrentNUMANodeID()
		if node < 0 {
			node = 0
		}
	}
	return &NUMAResource{
		node:  node,
		alloc: platformNUMAAllocator(),
		byPtr: make(map[uintptr][]byte),
	}
}

// Nodes reports how many NUMA nodes the platform allocator sees.
func (n *NUMAResource) Nodes() (int, error) { return n.alloc.nodes() }

func (n *NUMAResource) Allocate(bytes, alignment uintptr) (uintptr, error) {
	if bytes == 0 {
		return 0, nil
	}
	size := int(bytes)
	if alignment > 1 {
		size += int(alignment) - 1
	}

	buf, err := n.alloc.alloc(size, n.node)
	if err != nil || len(buf) == 0 {
		return 0, fmt.Errorf("%w: %v", api.ErrAllocationFailed, err)
	}

	base := uintptr(unsafe.Pointer(&buf[0]))
	aligned := base
	if alignment > 1 {
		aligned = (base + alignment - 1) &^ (alignment - 1)
	}

	n.mu.Lock()
	n.byPtr[aligned] = buf
	n.mu.Unlock()
	return aligned, nil
}

func (n *NUMAResource) Deallocate(ptr, bytes, alignment uintptr) error {
	_ = bytes
	_ = alignment
	if ptr == 0 {
		return nil
	}
	n.mu.Lock()
	buf, ok := n.byPtr[ptr]
	if ok {
		delete(n.byPtr, ptr)
	}
	n.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: unknown NUMA region %#x", api.ErrInvalidArgument, ptr)
	}
	n.alloc.free(buf)
	return nil
}

func (n *NUMAResource) GetContext() api.Context { return n.node }

func (n *NUMAResource) IsEqual(other api.MemoryResource) bool {
	o, ok := other.(*NUMAResource)
	return ok && o == n
}

func (n *NUMAResource) CurrentDevice() int { return n.node }

func (n *NUMAResource) SynchronizeDevice(int) error { return nil }

func (n *NUMAResource) SynchronizeAll() error { return nil }

var _ api.MemoryResource = (*NUMAResource)(nil)
