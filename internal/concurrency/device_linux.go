//go:build linux && cgo
// +build linux,cgo

// File: internal/concurrency/device_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux NUMA/CPU affinity via libnuma, merging what the teacher repo had
// split (inconsistently) across affinity_linux.go and pin_linux.go.

package concurrency

// #cgo LDFLAGS: -lnuma
// #define _GNU_SOURCE
// #include <numa.h>
// #include <sched.h>
// #include <pthread.h>
// #include <string.h>
//
// int check_numa_avail() {
//     return numa_available();
// }
import "C"

import (
	"fmt"
	"runtime"
	"sync"
)

var (
	numaAvailOnce sync.Once
	numaAvailable bool
)

func isNumaAvailable() bool {
	numaAvailOnce.Do(func() {
		numaAvailable = C.check_numa_avail() != -1
	})
	return numaAvailable
}

func platformPreferredCPUID(numaNode int) int {
	return 0
}

func platformCurrentNUMANodeID() int {
	if !isNumaAvailable() {
		return -1
	}
	cpu := C.sched_getcpu()
	if cpu < 0 {
		return -1
	}
	return int(C.numa_node_of_cpu(cpu))
}

func platformNUMANodes() int {
	if !isNumaAvailable() {
		return 1
	}
	return int(C.numa_num_configured_nodes())
}

func platformPinCurrentThread(numaNode, cpuID int) error {
	runtime.LockOSThread()
	if !isNumaAvailable() {
		return fmt.Errorf("numa not available")
	}
	if numaNode >= 0 {
		if ret := C.numa_run_on_node(C.int(numaNode)); ret != 0 {
			return fmt.Errorf("numa_run_on_node failed")
		}
	}
	if cpuID >= 0 {
		var mask C.cpu_set_t
		C.CPU_ZERO(&mask)
		C.CPU_SET(C.int(cpuID), &mask)
		if ret, _ := C.pthread_setaffinity_np(C.pthread_self(), C.size_t(C.sizeof_cpu_set_t), &mask); ret != 0 {
			return fmt.Errorf("pthread_setaffinity_np failed")
		}
	}
	return nil
}

func platformUnpinCurrentThread() error {
	if isNumaAvailable() {
		C.numa_run_on_node(-1)
	}
	runtime.UnlockOSThread()
	return nil
}
