// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// CPU/NUMA affinity and NUMA-node detection. upstream.NewNUMAResource
// uses CurrentNUMANodeID to pick a node when the caller does not name
// one; the pool's own device_id < 0 handling (bulk-sync deduplication and
// deferred deallocation) goes through pool.Synchronizer.CurrentDevice
// instead of this package.
//
// All implementations are cross-platform (Linux/Windows), with a pure-Go
// fallback for everything else.
package concurrency
