// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types shared by the pool and upstream packages.
package api

import "fmt"

// Sentinel errors returned by MemoryResource implementations.
var (
	// ErrAllocationFailed indicates upstream could not satisfy a request,
	// even after the pool's retry/reclaim protocol ran its course.
	ErrAllocationFailed = fmt.Errorf("allocation failed")

	// ErrBookkeepingFailed indicates a newly acquired upstream block could
	// not be recorded in the owned-blocks list; the block must be (and
	// was) returned to upstream before this error propagates.
	ErrBookkeepingFailed = fmt.Errorf("failed to record upstream block")

	// ErrSyncFailed indicates the execution-context synchronization that
	// must precede reuse of freed memory failed.
	ErrSyncFailed = fmt.Errorf("execution context synchronization failed")

	// ErrInvalidArgument indicates a malformed request (e.g. deallocating
	// a region the resource did not hand out).
	ErrInvalidArgument = fmt.Errorf("invalid argument")

	// ErrPoolClosed indicates an operation was attempted against a pool
	// whose background worker has already been stopped.
	ErrPoolClosed = fmt.Errorf("pool closed")
)
