// File: cmd/poolbench/main.go
// Author: momentics <momentics@gmail.com>

package main

import (
	"fmt"
	"log"

	"github.com/momentics/hioload-pool/internal/concurrency"
	"github.com/momentics/hioload-pool/pool"
	"github.com/momentics/hioload-pool/upstream"
)

func main() {
	node := concurrency.CurrentNUMANodeID()
	fmt.Printf("current NUMA node: %d\n", node)

	host := upstream.NewHostResource()
	sync := noopSynchronizer{}

	base := pool.NewPoolResource[*pool.CoalescingFreeList, pool.NoopLock](
		host, sync, pool.NewCoalescingFreeList(), pool.NoopLock{}, pool.DefaultHostOptions(),
	)

	const bufSize = 8192
	const count = 10000

	ptrs := make([]uintptr, 0, count)
	for i := 0; i < count; i++ {
		ptr, err := base.Allocate(bufSize, 64)
		if err != nil {
			log.Fatalf("allocate failed at iteration %d: %v", i, err)
		}
		ptrs = append(ptrs, ptr)
	}
	fmt.Printf("allocated %d buffers of %d bytes\n", count, bufSize)

	for _, ptr := range ptrs {
		if err := base.Deallocate(ptr, bufSize, 64); err != nil {
			log.Fatalf("deallocate failed: %v", err)
		}
	}
	fmt.Println("stress test completed: all buffers returned to the pool")

	if err := base.FreeAll(); err != nil {
		log.Fatalf("free_all failed: %v", err)
	}
	fmt.Println("all upstream blocks released")
}

// noopSynchronizer satisfies pool.Synchronizer for a host pool
// configured with pool.SyncNone, where synchronization is never invoked.
type noopSynchronizer struct{}

func (noopSynchronizer) CurrentDevice() int         { return 0 }
func (noopSynchronizer) SynchronizeDevice(int) error { return nil }
func (noopSynchronizer) SynchronizeAll() error       { return nil }
