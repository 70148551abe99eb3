// File: adapters/affinity_adapter.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package adapters

import (
	"github.com/momentics/wscore/api"
	"github.com/momentics/wscore/core/concurrency"
)

// NewAffinityAdapter returns this module's api.Affinity implementation, an
// OS-thread pin backed by runtime.LockOSThread.
func NewAffinityAdapter() api.Affinity {
	return concurrency.OSThreadAffinity{}
}
