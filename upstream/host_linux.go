//go:build linux

// File: upstream/host_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux page mapping via golang.org/x/sys/unix, the same dependency the
// teacher already carries for its epoll/io_uring transport plumbing.

package upstream

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

type unixPageMapper struct{}

func platformPageMapper() pageMapping { return unixPageMapper{} }

func (unixPageMapper) mapPages(size uintptr) (uintptr, error) {
	b, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return 0, err
	}
	return uintptr(unsafe.Pointer(&b[0])), nil
}

func (unixPageMapper) unmapPages(ptr, size uintptr) error {
	b := unsafe.Slice((*byte)(unsafe.Pointer(ptr)), int(size))
	return unix.Munmap(b)
}
