// File: api/control.go
// Package api
// Author: momentics
//
// Runtime configuration, statistics, hot-reload and debug contract.

package api

// Control exposes live configuration, metrics and debug hooks for a
// running component (thread pool, event loop, WebSocket server/client).
type Control interface {
	// GetConfig returns a snapshot of all configuration settings.
	GetConfig() map[string]any
	// SetConfig atomically merges new configuration settings.
	SetConfig(cfg map[string]any) error
	// Stats returns current aggregated runtime metrics.
	Stats() map[string]any
	// OnReload registers a callback invoked after SetConfig or a file-watch
	// triggered reload.
	OnReload(fn func())
	// RegisterDebugProbe registers a named debug probe invoked on demand.
	RegisterDebugProbe(name string, fn func() any)
}
