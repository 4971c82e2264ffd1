// File: pool/sync.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Execution-context synchronization (spec.md §4.1.2). The synchronization
// primitives themselves are an out-of-scope external collaborator (§1);
// Synchronizer fixes the small interface the pool needs from it.

package pool

// Synchronizer is the opaque device-synchronization collaborator. It is
// typically implemented by the same type as the upstream resource (see
// package upstream), since the execution context and the memory it backs
// usually come from the same device/stream handle.
type Synchronizer interface {
	// CurrentDevice resolves "the current device" for device_id < 0.
	CurrentDevice() int

	// SynchronizeDevice blocks until all outstanding work on deviceID has
	// completed.
	SynchronizeDevice(deviceID int) error

	// SynchronizeAll blocks until every device in the system has
	// completed outstanding work.
	SynchronizeAll() error
}

// synchronizeScope applies the single-region synchronization rule used by
// Deallocate: none is a no-op, device synchronizes the current device,
// system synchronizes everything.
func synchronizeScope(sync Synchronizer, scope SyncScope) error {
	switch scope {
	case SyncNone:
		return nil
	case SyncDevice:
		return sync.SynchronizeDevice(sync.CurrentDevice())
	case SyncSystem:
		return sync.SynchronizeAll()
	default:
		return nil
	}
}

// maxBitsetDevices is the constant-size dedup bitset width from spec.md
// §4.1.2; device IDs at or beyond this fall back to last-seen comparison.
const maxBitsetDevices = 256

// deviceBitset deduplicates device IDs in the realistic 0..255 range.
type deviceBitset [maxBitsetDevices / 32]uint32

func (b *deviceBitset) testAndSet(dev int) (alreadySeen bool) {
	bin := dev >> 5
	mask := uint32(1) << uint(dev&31)
	if b[bin]&mask != 0 {
		return true
	}
	b[bin] |= mask
	return false
}

// synchronizeBatch implements the bulk-deallocate sync policy from
// spec.md §4.1.2: a single coalesced synchronization covering every
// distinct device referenced by params.
func synchronizeBatch(sync Synchronizer, scope SyncScope, params []DeallocParams) error {
	switch scope {
	case SyncNone:
		return nil
	case SyncSystem:
		return sync.SynchronizeAll()
	case SyncDevice:
		var bits deviceBitset
		prev := -1
		for _, p := range params {
			dev := p.SyncDevice
			if dev < 0 {
				dev = sync.CurrentDevice()
			}
			if dev < maxBitsetDevices {
				if bits.testAndSet(dev) {
					continue
				}
			} else if dev == prev {
				continue
			}
			if err := sync.SynchronizeDevice(dev); err != nil {
				return err
			}
			prev = dev
		}
		return nil
	default:
		return nil
	}
}
