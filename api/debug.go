// Package api
// Author: momentics
//
// Live debug and introspection support.

package api

// Debug exposes runtime introspection for production diagnostics.
type Debug interface {
	DumpState() map[string]any
	RegisterProbe(name string, fn func() any)
}
