//go:build linux && !cgo
// +build linux,!cgo

// File: internal/concurrency/device_linux_nocgo.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Pure-Go fallback for Linux builds with CGO disabled: no libnuma, so no
// NUMA topology is visible and pinning is a no-op beyond locking the
// goroutine to its OS thread.

package concurrency

import "runtime"

func platformPreferredCPUID(numaNode int) int { return 0 }

func platformCurrentNUMANodeID() int { return -1 }

func platformNUMANodes() int { return 1 }

func platformPinCurrentThread(numaNode, cpuID int) error {
	runtime.LockOSThread()
	return nil
}

func platformUnpinCurrentThread() error {
	runtime.UnlockOSThread()
	return nil
}
