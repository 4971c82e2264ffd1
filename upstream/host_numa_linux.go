//go:build linux && cgo

// File: upstream/host_numa_linux.go
// Author: momentics <momentics@gmail.com>
//
// libnuma binding, adapted from the teacher's pool/numa_linux.go.

package upstream

/*
#cgo LDFLAGS: -lnuma
#include <numa.h>
#include <stdlib.h>
void* go_numa_alloc(int size, int node) {
	if (numa_available() == -1 || node < 0) {
		return malloc(size);
	}
	return numa_alloc_onnode(size, node);
}
void go_numa_free(void *mem, int size, int node) {
	if (numa_available() == -1 || node < 0) {
		free(mem);
		return;
	}
	numa_free(mem, size);
}
*/
import "C"
import (
	"fmt"
	"unsafe"
)

type linuxNUMAAllocator struct{}

func platformNUMAAllocator() numaAllocator { return linuxNUMAAllocator{} }

func (linuxNUMAAllocator) alloc(size int, node int) ([]byte, error) {
	ptr := C.go_numa_alloc(C.int(size), C.int(node))
	if ptr == nil {
		return nil, fmt.Errorf("numa_alloc_onnode(node=%d) failed", node)
	}
	return unsafe.Slice((*byte)(ptr), size), nil
}

func (linuxNUMAAllocator) free(buf []byte) {
	if len(buf) == 0 {
		return
	}
	// Any node >= 0 selects numa_free when libnuma is available and free
	// otherwise, the counterpart of what alloc used for NUMAResource's
	// (always non-negative) node.
	C.go_numa_free(unsafe.Pointer(&buf[0]), C.int(len(buf)), 0)
}

func (linuxNUMAAllocator) nodes() (int, error) {
	n := C.numa_max_node()
	if n < 0 {
		return 1, fmt.Errorf("NUMA not available")
	}
	return int(n + 1), nil
}
