// Package api
// Author: momentics <momentics@gmail.com>
//
// Defines the abstract memory-resource contract that the coalescing pool
// allocator sits on top of, and that it in turn implements for its own
// callers. Concrete upstream resources (host heap, NUMA-pinned host heap,
// device heap) live in package upstream; this package only fixes the
// interface shape.
package api

// Context is an opaque execution-context handle forwarded from an upstream
// memory resource (e.g. a device/stream handle). The pool never inspects
// it; GetContext is purely pass-through.
type Context any

// MemoryResource is the abstract allocator contract every upstream
// resource and every pool resource implements.
type MemoryResource interface {
	// Allocate returns bytes aligned to at least alignment, or an error
	// if the request cannot be satisfied. Allocate(0, *) returns a nil
	// pointer and no error.
	Allocate(bytes, alignment uintptr) (uintptr, error)

	// Deallocate returns a previously-allocated region. The pool resources
	// treat Deallocate of a nil pointer or zero bytes as a no-op. From a
	// pool resource, an error signals that execution-context
	// synchronization failed and the region was not made available for
	// reuse (spec.md §7) — the C++ original propagates
	// this via an exception from its CUDA_CALL wrapper; an explicit error
	// return is the idiomatic Go equivalent.
	Deallocate(ptr, bytes, alignment uintptr) error

	// GetContext returns the opaque execution context associated with
	// this resource, typically forwarded from upstream.
	GetContext() Context

	// IsEqual reports whether other refers to the same underlying
	// resource (identity comparison).
	IsEqual(other MemoryResource) bool
}
