//go:build windows

// File: upstream/host_numa_windows.go
// Author: momentics <momentics@gmail.com>
//
// VirtualAllocExNuma binding, adapted from the teacher's
// pool/numa_windows.go to use golang.org/x/sys/windows's lazy DLL
// loader instead of the standard library's.

package upstream

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	memReserve     = 0x00002000
	memCommit      = 0x00001000
	pageReadWrite  = 0x04
	memReleaseFlag = 0x8000
)

var (
	numaKernel32              = windows.NewLazySystemDLL("kernel32.dll")
	procVirtualAllocExNuma    = numaKernel32.NewProc("VirtualAllocExNuma")
	procVirtualFreeForNUMA    = numaKernel32.NewProc("VirtualFree")
	procGetCurrentProcessNUMA = numaKernel32.NewProc("GetCurrentProcess")
)

type windowsNUMAAllocator struct{}

func platformNUMAAllocator() numaAllocator { return windowsNUMAAllocator{} }

func (windowsNUMAAllocator) alloc(size int, node int) ([]byte, error) {
	hProc, _, _ := procGetCurrentProcessNUMA.Call()
	ptr, _, err := procVirtualAllocExNuma.Call(
		hProc,
		0,
		uintptr(size),
		uintptr(memReserve|memCommit),
		uintptr(pageReadWrite),
		uintptr(node),
	)
	if ptr == 0 {
		return nil, fmt.Errorf("VirtualAllocExNuma(node=%d): %w", node, err)
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(ptr)), size), nil
}

func (windowsNUMAAllocator) free(buf []byte) {
	if len(buf) == 0 {
		return
	}
	addr := uintptr(unsafe.Pointer(&buf[0]))
	procVirtualFreeForNUMA.Call(addr, 0, uintptr(memReleaseFlag))
}

func (windowsNUMAAllocator) nodes() (int, error) { return 1, nil }
