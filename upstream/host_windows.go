//go:build windows

// File: upstream/host_windows.go
// Author: momentics <momentics@gmail.com>
//
// Windows page mapping via golang.org/x/sys/windows, mirroring the
// teacher's pool/bufferpool_windows.go use of the same module.

package upstream

import (
	"fmt"

	"golang.org/x/sys/windows"
)

type windowsPageMapper struct{}

func platformPageMapper() pageMapping { return windowsPageMapper{} }

func (windowsPageMapper) mapPages(size uintptr) (uintptr, error) {
	addr, err := windows.VirtualAlloc(0, size, windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return 0, fmt.Errorf("VirtualAlloc: %w", err)
	}
	return addr, nil
}

func (windowsPageMapper) unmapPages(ptr, size uintptr) error {
	_ = size
	return windows.VirtualFree(ptr, 0, windows.MEM_RELEASE)
}
