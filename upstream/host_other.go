//go:build !linux && !windows

// File: upstream/host_other.go
// Author: momentics <momentics@gmail.com>
//
// Fallback page mapping for platforms without a dedicated mmap/VirtualAlloc
// binding: a plain Go-heap allocation pinned in a package-level registry so
// the garbage collector never reclaims memory the pool still owns.

package upstream

import (
	"sync"
	"unsafe"
)

type heapPageMapper struct {
	mu  sync.Mutex
	pin map[uintptr][]byte
}

func platformPageMapper() pageMapping {
	return &heapPageMapper{pin: make(map[uintptr][]byte)}
}

func (h *heapPageMapper) mapPages(size uintptr) (uintptr, error) {
	b := make([]byte, size)
	ptr := uintptr(unsafe.Pointer(&b[0]))
	h.mu.Lock()
	h.pin[ptr] = b
	h.mu.Unlock()
	return ptr, nil
}

func (h *heapPageMapper) unmapPages(ptr, size uintptr) error {
	_ = size
	h.mu.Lock()
	delete(h.pin, ptr)
	h.mu.Unlock()
	return nil
}
