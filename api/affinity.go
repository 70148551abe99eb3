// File: api/affinity.go
// Package api defines a deliberately thin CPU affinity contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The teacher's NUMA/DPDK affinity machinery is out of scope for this
// module (see DESIGN.md); what remains is a best-effort, cross-platform
// hint that a thread-pool worker should stay pinned to one OS thread, which
// is cheap to provide via runtime.LockOSThread and useful for the worker
// loop in core/concurrency.

package api

type Affinity interface {
	// Pin locks the calling goroutine to its current OS thread for the
	// remainder of its lifetime. cpuID is advisory only on platforms
	// without a real pinning syscall wired in.
	Pin(cpuID int) error
	// Unpin releases any pinning previously established by Pin.
	Unpin()
}
