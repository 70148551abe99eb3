// File: api/context.go
// Package api
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A lightweight, explicitly-scoped key/value context carried alongside a
// WebSocket connection or session. Distinct from the standard
// context.Context, which is used for cancellation plumbing instead.

package api

// Context is a per-connection key/value store with explicit propagation.
type Context interface {
	Set(key string, value any, propagated bool)
	Get(key string) (any, bool)
	Delete(key string)
	Clone() Context
	IsPropagated(key string) bool
	Keys() []string
}

// ContextFactory constructs fresh Context instances for new sessions.
type ContextFactory interface {
	NewContext() Context
}
