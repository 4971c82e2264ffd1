// File: upstream/fake_test.go
// Author: momentics <momentics@gmail.com>

package upstream

import "testing"

func TestFakeResourceFailNextAllocations(t *testing.T) {
	f := NewFakeResource(0x1000)
	f.FailNextAllocations(2)

	if _, err := f.Allocate(64, 1); err == nil {
		t.Fatalf("expected first injected failure")
	}
	if _, err := f.Allocate(64, 1); err == nil {
		t.Fatalf("expected second injected failure")
	}
	if _, err := f.Allocate(64, 1); err != nil {
		t.Fatalf("expected allocation to succeed once the injected failures are exhausted, got %v", err)
	}
}

func TestFakeResourceFailSize(t *testing.T) {
	f := NewFakeResource(0x1000)
	f.FailSize(4096, 1)

	if _, err := f.Allocate(4096, 1); err == nil {
		t.Fatalf("expected the targeted size to fail once")
	}
	if _, err := f.Allocate(4096, 1); err != nil {
		t.Fatalf("expected the second request for the same size to succeed, got %v", err)
	}
	if _, err := f.Allocate(2048, 1); err != nil {
		t.Fatalf("a different size should never be affected, got %v", err)
	}
}

func TestFakeResourceStats(t *testing.T) {
	f := NewFakeResource(0x1000)
	ptr, _ := f.Allocate(64, 1)
	f.Deallocate(ptr, 64, 1)

	allocated, freed := f.Stats()
	if allocated != 1 || freed != 1 {
		t.Fatalf("got allocated=%d freed=%d, want 1 and 1", allocated, freed)
	}
}

func TestFakeSynchronizerFailDeviceFiresOnce(t *testing.T) {
	sy := NewFakeSynchronizer(0)
	sy.FailDevice(3)

	if err := sy.SynchronizeDevice(3); err == nil {
		t.Fatalf("expected the injected failure")
	}
	if err := sy.SynchronizeDevice(3); err != nil {
		t.Fatalf("expected the failure to fire only once, got %v", err)
	}
}
