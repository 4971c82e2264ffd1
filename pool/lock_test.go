// File: pool/lock_test.go
// Author: momentics <momentics@gmail.com>

package pool

import "testing"

func TestNoopLockIsSafeToCall(t *testing.T) {
	var l NoopLock
	l.Lock()
	l.Lock() // must not deadlock, unlike a real mutex
	l.Unlock()
	l.Unlock()
}
