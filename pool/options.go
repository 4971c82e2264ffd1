// File: pool/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Pool configuration (spec.md §3).

package pool

// SyncScope is the extent of execution-context synchronization performed
// before a freed region becomes reusable (spec.md §4.1.2).
type SyncScope int

const (
	// SyncNone performs no synchronization.
	SyncNone SyncScope = iota
	// SyncDevice synchronizes each distinct device referenced by a
	// deallocation batch exactly once.
	SyncDevice
	// SyncSystem synchronizes every device in the system once.
	SyncSystem
)

func (s SyncScope) String() string {
	switch s {
	case SyncNone:
		return "none"
	case SyncDevice:
		return "device"
	case SyncSystem:
		return "system"
	default:
		return "unknown"
	}
}

// Options configures a PoolResource. Zero-value fields are not
// automatically defaulted — use DefaultHostOptions/DefaultDeviceOptions
// as starting points, mirroring the teacher's pattern of typed Options
// structs with named default constructors (compare
// azargarov-wpool's Options.FillDefaults).
type Options struct {
	// MaxBlockSize bounds block sizes requested from upstream.
	MaxBlockSize uintptr
	// MinBlockSize seeds the growth cursor.
	MinBlockSize uintptr
	// GrowthFactor multiplies the growth cursor per upstream acquisition.
	GrowthFactor float64
	// TrySmallerOnFailure retries with a halved request on upstream failure.
	TrySmallerOnFailure bool
	// ReturnToUpstreamOnFailure scans owned blocks for fully-free ones
	// and returns them to upstream when retry bottoms out.
	ReturnToUpstreamOnFailure bool
	// Sync is the synchronization scope applied before reuse.
	Sync SyncScope
	// EnableDeferredDeallocation is the configuration flag for the
	// background deallocator. PoolResource and DeferredPool do not read
	// it: deferred deallocation happens only through DeferredDeallocate on
	// a pool wrapped with NewDeferredPool, and Deallocate stays
	// synchronous whatever its value.
	EnableDeferredDeallocation bool
	// MaxOutstandingDeallocations is the deferred-deallocator backpressure
	// threshold.
	MaxOutstandingDeallocations int
	// UpstreamAlignment is the minimum alignment passed to upstream.
	UpstreamAlignment uintptr
}

// DefaultHostOptions mirrors default_host_pool_opts in the original
// implementation (original_source/include/dali/core/mm/pool_resource.h).
func DefaultHostOptions() Options {
	return Options{
		MaxBlockSize:                1 << 28,
		MinBlockSize:                1 << 12,
		GrowthFactor:                2.0,
		TrySmallerOnFailure:         true,
		ReturnToUpstreamOnFailure:   true,
		Sync:                        SyncNone,
		EnableDeferredDeallocation:  false,
		MaxOutstandingDeallocations: 16,
		UpstreamAlignment:           256,
	}
}

// DefaultDeviceOptions mirrors default_device_pool_opts: a larger block
// ceiling, a 1 MiB growth floor, device-scope sync, and deferred
// deallocation enabled by default, since device synchronization is the
// expensive operation deferred deallocation exists to amortize.
func DefaultDeviceOptions() Options {
	o := DefaultHostOptions()
	o.MaxBlockSize = 1 << 32
	o.MinBlockSize = 1 << 20
	o.Sync = SyncDevice
	o.EnableDeferredDeallocation = true
	return o
}

// UnboundedMaxBlockSize is the "no limit" sentinel for MaxBlockSize.
func UnboundedMaxBlockSize() uintptr { return ^uintptr(0) }
