// File: pool/options_test.go
// Author: momentics <momentics@gmail.com>

package pool

import "testing"

func TestDefaultHostOptions(t *testing.T) {
	o := DefaultHostOptions()
	if o.Sync != SyncNone {
		t.Errorf("host pool default sync scope = %v, want SyncNone", o.Sync)
	}
	if o.EnableDeferredDeallocation {
		t.Errorf("host pool should not enable deferred deallocation by default")
	}
}

func TestDefaultDeviceOptions(t *testing.T) {
	o := DefaultDeviceOptions()
	if o.Sync != SyncDevice {
		t.Errorf("device pool default sync scope = %v, want SyncDevice", o.Sync)
	}
	if !o.EnableDeferredDeallocation {
		t.Errorf("device pool should enable deferred deallocation by default")
	}
	if o.MaxBlockSize <= DefaultHostOptions().MaxBlockSize {
		t.Errorf("device pool should have a larger max block size than host")
	}
}

func TestSyncScopeString(t *testing.T) {
	cases := map[SyncScope]string{
		SyncNone:       "none",
		SyncDevice:     "device",
		SyncSystem:     "system",
		SyncScope(999): "unknown",
	}
	for scope, want := range cases {
		if got := scope.String(); got != want {
			t.Errorf("SyncScope(%d).String() = %q, want %q", scope, got, want)
		}
	}
}

func TestUnboundedMaxBlockSize(t *testing.T) {
	max := UnboundedMaxBlockSize()
	if max+1 != 0 {
		t.Errorf("UnboundedMaxBlockSize should be the maximum representable uintptr")
	}
}
