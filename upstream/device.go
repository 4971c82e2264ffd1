// File: upstream/device.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A simulated device heap and its synchronization hub, standing in for
// a real accelerator (GPU/NPU) upstream in tests and demos. Allocate and
// Deallocate each model launching one asynchronous operation against the
// device (an init/memset on alloc, an unregister on free); SynchronizeDevice
// drains the outstanding operations recorded for that device, exactly as
// a CUDA-style device synchronize would wait for a stream to drain.
package upstream

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/momentics/hioload-pool/api"
)

// completionRing is a lock-free fixed-capacity ring buffer, adapted
// from the teacher's pool/ring.go RingBuffer[T]. Here it tracks
// outstanding asynchronous device operations rather than cross-thread
// buffer handoff, but the mechanics are unchanged.
type completionRing[T any] struct {
	data []T
	mask uint64
	head uint64
	tail uint64
}

func newCompletionRing[T any](size uint64) *completionRing[T] {
	if size == 0 || (size&(size-1)) != 0 {
		panic("completion ring size must be a power of two")
	}
	return &completionRing[T]{
		data: make([]T, size),
		mask: size - 1,
	}
}

func (r *completionRing[T]) Enqueue(val T) bool {
	head := atomic.LoadUint64(&r.head)
	tail := atomic.LoadUint64(&r.tail)
	if (tail - head) == uint64(len(r.data)) {
		return false
	}
	r.data[tail&r.mask] = val
	atomic.AddUint64(&r.tail, 1)
	return true
}

func (r *completionRing[T]) Dequeue() (res T, ok bool) {
	head := atomic.LoadUint64(&r.head)
	tail := atomic.LoadUint64(&r.tail)
	if head == tail {
		return res, false
	}
	res = r.data[head&r.mask]
	atomic.AddUint64(&r.head, 1)
	return res, true
}

// DeviceHub tracks outstanding asynchronous work per device ID and
// implements pool.Synchronizer against the whole fleet of devices that
// have submitted work through it.
type DeviceHub struct {
	mu      sync.Mutex
	rings   map[int]*completionRing[struct{}]
	current int
}

// NewDeviceHub creates an empty hub. current defaults to device 0.
func NewDeviceHub() *DeviceHub {
	return &DeviceHub{rings: make(map[int]*completionRing[struct{}])}
}

func (h *DeviceHub) ringFor(dev int) *completionRing[struct{}] {
	h.mu.Lock()
	r, ok := h.rings[dev]
	if !ok {
		r = newCompletionRing[struct{}](1024)
		h.rings[dev] = r
	}
	h.mu.Unlock()
	return r
}

// SubmitAsync records one unit of outstanding work against dev.
func (h *DeviceHub) SubmitAsync(dev int) {
	h.ringFor(dev).Enqueue(struct{}{})
}

// SetCurrentDevice changes what CurrentDevice resolves to.
func (h *DeviceHub) SetCurrentDevice(dev int) {
	h.mu.Lock()
	h.current = dev
	h.mu.Unlock()
}

func (h *DeviceHub) CurrentDevice() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

func (h *DeviceHub) SynchronizeDevice(dev int) error {
	r := h.ringFor(dev)
	for {
		if _, ok := r.Dequeue(); !ok {
			return nil
		}
	}
}

func (h *DeviceHub) SynchronizeAll() error {
	h.mu.Lock()
	devices := make([]int, 0, len(h.rings))
	for d := range h.rings {
		devices = append(devices, d)
	}
	h.mu.Unlock()
	for _, d := range devices {
		if err := h.SynchronizeDevice(d); err != nil {
			return err
		}
	}
	return nil
}

// DeviceResource is a simulated per-device memory heap. Multiple
// DeviceResource values sharing one DeviceHub model a multi-GPU system
// for exercising bulk_deallocate's per-device synchronization dedup.
type DeviceResource struct {
	id  int
	hub *DeviceHub

	mu      sync.Mutex
	regions map[uintptr][]byte
}

// NewDeviceResource creates a resource for device id backed by hub.
func NewDeviceResource(id int, hub *DeviceHub) *DeviceResource {
	return &DeviceResource{id: id, hub: hub, regions: make(map[uintptr][]byte)}
}

func (d *DeviceResource) Allocate(bytes, alignment uintptr) (uintptr, error) {
	if bytes == 0 {
		return 0, nil
	}
	size := int(bytes)
	if alignment > 1 {
		size += int(alignment) - 1
	}
	buf := make([]byte, size)
	base := uintptr(unsafe.Pointer(&buf[0]))
	aligned := base
	if alignment > 1 {
		aligned = (base + alignment - 1) &^ (alignment - 1)
	}

	d.mu.Lock()
	d.regions[aligned] = buf
	d.mu.Unlock()
	d.hub.SubmitAsync(d.id)
	return aligned, nil
}

func (d *DeviceResource) Deallocate(ptr, bytes, alignment uintptr) error {
	_ = bytes
	_ = alignment
	if ptr == 0 {
		return nil
	}
	d.mu.Lock()
	_, ok := d.regions[ptr]
	if ok {
		delete(d.regions, ptr)
	}
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: unknown device region %#x", api.ErrInvalidArgument, ptr)
	}
	d.hub.SubmitAsync(d.id)
	return nil
}

func (d *DeviceResource) GetContext() api.Context { return d.id }

func (d *DeviceResource) IsEqual(other api.MemoryResource) bool {
	o, ok := other.(*DeviceResource)
	return ok && o == d
}

var _ api.MemoryResource = (*DeviceResource)(nil)
