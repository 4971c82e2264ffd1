// File: pool/lock.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Pluggable lock strategy for PoolResource's free-list critical section.
// The free-list lock (pool_lock) may be a dummy no-op in single-threaded
// mode or a real mutex; upstream_lock is always a real sync.Mutex (see
// resource.go) and is not parameterized.

package pool

import "sync"

// Lock is the minimal mutex-shaped contract PoolResource needs for its
// free-list critical section.
type Lock interface {
	Lock()
	Unlock()
}

// NoopLock is a zero-cost Lock for single-threaded callers that don't
// need (and don't want to pay for) real mutual exclusion.
type NoopLock struct{}

func (NoopLock) Lock()   {}
func (NoopLock) Unlock() {}

var (
	_ Lock = (*sync.Mutex)(nil)
	_ Lock = NoopLock{}
)
