// File: core/eventloop/source.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package eventloop

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/momentics/wscore/core/concurrency"
)

// outboundEntry is one pending write: the owned bytes plus how much of it
// the kernel has already confirmed transferred.
type outboundEntry struct {
	data      []byte
	sent      int
	scheduled bool
}

// Source is an event source: a non-blocking socket registered with exactly
// one EventLoop, plus its outbound write FIFO (spec.md §3.6). The loop and
// its poller must only ever touch the underlying net.Conn through a
// Source's methods, never directly.
type Source struct {
	conn     net.Conn
	listener net.Listener

	loopRef atomic.Pointer[EventLoop] // weak back-reference; cleared on removal

	mu      sync.Mutex
	outFIFO *concurrency.Ring[*outboundEntry]
	head    *outboundEntry
	closed  bool
	thread  EventThread
}

// NewSource wraps conn as an event source with the given outbound queue
// capacity (must be a power of two).
func NewSource(conn net.Conn, outboundCapacity uint64) *Source {
	return &Source{
		conn:    conn,
		outFIFO: concurrency.NewRing[*outboundEntry](outboundCapacity),
	}
}

// NewListenerSource wraps a listening socket as an accept-only event
// source; it has no outbound FIFO.
func NewListenerSource(ln net.Listener) *Source {
	return &Source{listener: ln}
}

// Conn returns the underlying connection, or nil for a listener source.
// Only the owning loop's poller may call Read/Write on it directly;
// application code should go through EventLoop.Write.
func (s *Source) Conn() net.Conn { return s.conn }

// Listener returns the underlying listener, or nil for a connection source.
func (s *Source) Listener() net.Listener { return s.listener }

func (s *Source) setLoop(l *EventLoop) { s.loopRef.Store(l) }

// Loop returns the owning loop, or nil if the source has been removed.
func (s *Source) Loop() *EventLoop { return s.loopRef.Load() }

// SetThread binds the EventThread that owns this source's completion
// events. Must be set before the loop arms any operation on the source.
func (s *Source) SetThread(t EventThread) {
	s.mu.Lock()
	s.thread = t
	s.mu.Unlock()
}

// Thread returns the source's bound EventThread, if any.
func (s *Source) Thread() EventThread {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.thread
}

// enqueueWrite appends bytes to the outbound FIFO, scheduling it as the
// head entry if nothing is currently in flight. Returns false if the
// source is closed or the FIFO is full.
func (s *Source) enqueueWrite(data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	e := &outboundEntry{data: data}
	if s.head == nil {
		s.head = e
		e.scheduled = true
		return true
	}
	return s.outFIFO.Enqueue(e)
}

// pendingWrite returns the current head-of-line outbound entry, if any.
func (s *Source) pendingWrite() *outboundEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.head
}

// advanceWrite records that n more bytes of the head entry were sent; if
// it has fully drained, pops the next FIFO entry (if any) and returns it
// newly scheduled, along with whether the head is now fully drained.
func (s *Source) advanceWrite(n int) (drained bool, next *outboundEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.head == nil {
		return true, nil
	}
	s.head.sent += n
	if s.head.sent < len(s.head.data) {
		return false, nil
	}
	if nxt, ok := s.outFIFO.Dequeue(); ok {
		nxt.scheduled = true
		s.head = nxt
		return true, nxt
	}
	s.head = nil
	return true, nil
}

// PendingOutboundBytes sums the unsent bytes across the head entry and the
// queued FIFO. Nothing in this module calls it; ws.Conn gates teardown on
// its own pending-outbound counter.
func (s *Source) PendingOutboundBytes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	if s.head != nil {
		total += len(s.head.data) - s.head.sent
	}
	for i := 0; i < s.outFIFO.Len(); i++ {
		if e, ok := s.outFIFO.Dequeue(); ok {
			total += len(e.data) - e.sent
			s.outFIFO.Enqueue(e)
		}
	}
	return total
}

// Close half-closes the socket (shutdown read+write where supported) then
// releases the descriptor, per spec.md §3.6's destruction order.
func (s *Source) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	if s.listener != nil {
		return s.listener.Close()
	}
	if c, ok := s.conn.(interface{ CloseWrite() error }); ok {
		_ = c.CloseWrite()
	}
	if c, ok := s.conn.(interface{ CloseRead() error }); ok {
		_ = c.CloseRead()
	}
	return s.conn.Close()
}
