// File: core/eventloop/event.go
// Package eventloop implements the reactor-style, single-threaded-per-loop
// async runtime (spec.md §3.6/§3.7/§4.4): non-blocking event sources,
// cooperatively scheduled event threads, and the loop ops table that binds
// them together.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package eventloop

import "net"

// Event is a tagged value delivered to an EventThread's Handle method. The
// interface is sealed: only this package may implement it, matching the
// teacher's pattern of modelling a closed event union with an unexported
// marker method instead of a Go type switch over interface{}.
type Event interface {
	isEvent()
}

// Start is delivered once to a thread right after AddThread registers it.
type Start struct{}

func (Start) isEvent() {}

// Read carries the bytes a source's registered read completed with. A
// zero-length slice means the peer performed an orderly shutdown.
type Read struct {
	Source *Source
	Data   []byte
}

func (Read) isEvent() {}

// Write reports how many bytes of the head outbound entry were confirmed
// written by the kernel.
type Write struct {
	Source  *Source
	Written int
}

func (Write) isEvent() {}

// Accept carries a newly accepted connection on a listening source.
type Accept struct {
	Source *Source
	Conn   net.Conn
}

func (Accept) isEvent() {}

// Error reports a failure associated with a source. The loop delivers it to
// the source's thread and leaves closing the source to that thread (ws.Conn
// does so through its teardown).
type Error struct {
	Source *Source
	Err    error
}

func (Error) isEvent() {}

// Closed marks a source whose underlying connection has been torn down.
// Neither poller emits it: a peer shutdown arrives as a zero-length Read
// (epoll poller) or as an Error (portable poller).
type Closed struct {
	Source *Source
}

func (Closed) isEvent() {}
