// File: core/concurrency/affinity.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// OSThreadAffinity is this module's implementation of api.Affinity: a
// portable, best-effort pin backed by runtime.LockOSThread. It replaces the
// teacher's NUMA/DPDK pinning machinery (transport/tcp/affinity_*.go,
// affinity/affinity_*.go), which this module does not carry — see
// DESIGN.md for why that syscall-level machinery has no home here.

package concurrency

import (
	"runtime"

	"github.com/momentics/wscore/api"
)

// OSThreadAffinity pins the calling goroutine to its current OS thread.
// cpuID is accepted for api.Affinity compliance but is advisory only: this
// module has no real CPU-pinning syscall wired in.
type OSThreadAffinity struct{}

var _ api.Affinity = OSThreadAffinity{}

// Pin locks the calling goroutine to its current OS thread.
func (OSThreadAffinity) Pin(cpuID int) error {
	runtime.LockOSThread()
	return nil
}

// Unpin releases a prior Pin.
func (OSThreadAffinity) Unpin() {
	runtime.UnlockOSThread()
}
