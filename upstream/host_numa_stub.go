//go:build !linux && !windows

// File: upstream/host_numa_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub NUMA allocator for platforms with no NUMA binding at all,
// adapted from the teacher's pool/numa_stub.go.

package upstream

type stubNUMAAllocator struct{}

func platformNUMAAllocator() numaAllocator { return stubNUMAAllocator{} }

func (stubNUMAAllocator) alloc(size int, node int) ([]byte, error) {
	_ = node
	return make([]byte, size), nil
}

func (stubNUMAAllocator) free([]byte) {}

func (stubNUMAAllocator) nodes() (int, error) { return 1, nil }
