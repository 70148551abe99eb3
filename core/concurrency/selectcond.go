// File: core/concurrency/selectcond.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// SelectCond is the synchronisation object a blocking Select call registers
// with every channel it is waiting on (spec.md §3.3). It accepts at most one
// undelivered "ready" signal at a time; the taker drains one event per
// WaitForEventAndClose call and, when the outcome is a lost race (tryFire
// returns Empty), re-registers the very same cond to keep waiting on that
// case alongside the others — so the cond itself must stay open across
// multiple deliveries for the lifetime of one Select call. Only the owning
// Select call's own completion (firing a case, or every case closing) closes
// it via Close, which wakes any producer still blocked delivering to it.
// Deregistration after Select completes is the caller's responsibility (see
// select.go), matching the scoped-resource design note in spec.md §9.

package concurrency

import "sync"

// selectEvent is the one-shot payload delivered to a blocked Select call.
type selectEvent struct {
	index    int
	signaled bool
	closed   bool
}

func (e selectEvent) isSignaled() bool { return e.signaled }

// SelectCond is registered with every channel a pending Select call is
// waiting on; exactly one channel may deliver a real "ready" event to it.
type SelectCond struct {
	mu         sync.Mutex
	waitCond   *sync.Cond
	deliverCond *sync.Cond
	event      selectEvent
	closed     bool
}

// NewSelectCond allocates a fresh, unsignaled SelectCond.
func NewSelectCond() *SelectCond {
	sc := &SelectCond{}
	sc.waitCond = sync.NewCond(&sc.mu)
	sc.deliverCond = sync.NewCond(&sc.mu)
	return sc
}

// TrySignalReady attempts to deliver a non-blocking "case index is ready"
// signal. Returns false if the cond already carries an undelivered event or
// has already been closed by its Select call, in which case the
// caller (a channel's wake logic) should try another registered waiter.
func (sc *SelectCond) TrySignalReady(index int) bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.event.isSignaled() || sc.closed {
		return false
	}
	sc.event = selectEvent{index: index, signaled: true}
	sc.waitCond.Signal()
	return true
}

// SignalReady blocks until it can deliver a "case index is ready" signal
// (i.e. until the previous undelivered event, if any, is drained by the
// select taker), returning false if the cond was closed in the meantime.
func (sc *SelectCond) SignalReady(index int) bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	for sc.event.isSignaled() && !sc.closed {
		sc.deliverCond.Wait()
	}
	if sc.closed {
		return false
	}
	sc.event = selectEvent{index: index, signaled: true}
	sc.waitCond.Signal()
	return true
}

// SignalClose blocks the same way as SignalReady but delivers a close
// notification for the given case index instead of a ready notification.
func (sc *SelectCond) SignalClose(index int) bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	for sc.event.isSignaled() && !sc.closed {
		sc.deliverCond.Wait()
	}
	if sc.closed {
		return false
	}
	sc.event = selectEvent{index: index, signaled: true, closed: true}
	sc.waitCond.Signal()
	return true
}

// WaitForEventAndClose blocks until an event has been signaled and consumes
// it, waking any producer blocked in SignalReady/SignalClose so it can
// deliver its own event (or observe the cond closed, once Close has been
// called). Despite the name, it does not itself close the cond — see the
// type doc: only the owning Select call decides when no more deliveries
// will ever be accepted, since a lost-race (Empty) outcome requires this
// same cond to keep accepting events for a re-registered case.
func (sc *SelectCond) WaitForEventAndClose() (index int, closed bool) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	for !sc.event.isSignaled() {
		sc.waitCond.Wait()
	}
	ev := sc.event
	sc.event = selectEvent{}
	sc.deliverCond.Broadcast()
	return ev.index, ev.closed
}

// Close marks the cond closed and wakes any producer blocked delivering to
// it; used when the Select call itself is abandoning this cond (e.g. on
// deregistration after a handler has already run for a different case).
func (sc *SelectCond) Close() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.closed = true
	sc.deliverCond.Broadcast()
}

// reset clears a closed SelectCond back to its fresh state so it can be
// handed out again by selectCondPool; sc.mu/waitCond/deliverCond stay bound
// and reusable across the cond's lifetime.
func (sc *SelectCond) reset() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.event = selectEvent{}
	sc.closed = false
}
