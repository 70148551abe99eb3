// File: ws/options.go
// Package ws implements the RFC 6455 connection state machine wired onto
// core/eventloop (spec.md §4.8, §6.3).
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package ws

import "github.com/momentics/wscore/wsproto"

// Options configures a Server or Client's handshake limits, message limits,
// and which control-frame kinds the engine handles automatically versus
// delivering to the application (spec.md §6.3).
type Options struct {
	// MaxHandshakeSize bounds the accumulated handshake request/response
	// buffer before the connection fails.
	MaxHandshakeSize uint64
	// MaxMessageSize bounds the aggregate payload across a message's
	// fragments; exceeding it closes the connection with code 1009.
	MaxMessageSize uint64
	// HandlePing, if true, delivers Ping messages to OnMessage instead of
	// the engine auto-replying with Pong.
	HandlePing bool
	// HandlePong, if true, delivers Pong messages to OnMessage instead of
	// silently discarding them.
	HandlePong bool
	// HandleClose, if true, delivers Close messages to OnMessage instead of
	// the engine running the RFC 6455 close protocol itself.
	HandleClose bool

	// OnMessage is invoked for every completed Text/Binary message, and for
	// Ping/Pong/Close messages when the corresponding HandleX flag is set.
	OnMessage func(*Conn, wsproto.Message)
	// OnConnected is invoked once a connection reaches ReadMessage state.
	OnConnected func(*Conn)
	// OnDisconnected is invoked when a connection transitions to Closed or
	// Failed, carrying the triggering error (nil for a clean close).
	OnDisconnected func(*Conn, error)
}

// DefaultOptions returns the spec's default limits (1 KiB handshake, 64 MiB
// message, all control frames handled by the engine).
func DefaultOptions() Options {
	return Options{
		MaxHandshakeSize: 1024,
		MaxMessageSize:   64 * 1024 * 1024,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxHandshakeSize == 0 {
		o.MaxHandshakeSize = 1024
	}
	if o.MaxMessageSize == 0 {
		o.MaxMessageSize = 64 * 1024 * 1024
	}
	return o
}
