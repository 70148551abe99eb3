// File: core/concurrency/select.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Select implements a one-shot, randomised multiplex over N channel
// send/recv cases plus an optional default case, per spec.md §4.2. Exactly
// one case's handler runs, unless every non-default case's channel closed
// before any of them ever became ready, in which case Select returns
// without running anything.

package concurrency

import "math/rand"

// SelectCase is one arm of a Select call, built with Recv, Send or Default.
// The interface is intentionally sealed: only this package can implement
// it, so the only way to build one is through the exported constructors.
type SelectCase interface {
	probe() bool
	tryFire() ChanStatus
	register(sc *SelectCond, idx int)
	unregister(sc *SelectCond)
	isDefault() bool
}

type recvCase[T any] struct {
	ch      *Chan[T]
	handler func(T)
}

func (c *recvCase[T]) probe() bool { return c.ch.readyForRecv() }
func (c *recvCase[T]) tryFire() ChanStatus {
	v, status := c.ch.TryRecv()
	if status == StatusOK {
		c.handler(v)
	}
	return status
}
func (c *recvCase[T]) register(sc *SelectCond, idx int)   { c.ch.registerRecvSelect(sc, idx) }
func (c *recvCase[T]) unregister(sc *SelectCond)          { c.ch.unregisterRecvSelect(sc) }
func (c *recvCase[T]) isDefault() bool                    { return false }

type sendCase[T any] struct {
	ch      *Chan[T]
	value   T
	handler func()
}

func (c *sendCase[T]) probe() bool { return c.ch.readyForSend() }
func (c *sendCase[T]) tryFire() ChanStatus {
	status := c.ch.TrySend(c.value)
	if status == StatusOK {
		c.handler()
	}
	return status
}
func (c *sendCase[T]) register(sc *SelectCond, idx int) { c.ch.registerSendSelect(sc, idx) }
func (c *sendCase[T]) unregister(sc *SelectCond)        { c.ch.unregisterSendSelect(sc) }
func (c *sendCase[T]) isDefault() bool                  { return false }

type defaultCase struct {
	handler func()
}

func (d *defaultCase) probe() bool                    { return false }
func (d *defaultCase) tryFire() ChanStatus             { d.handler(); return StatusOK }
func (d *defaultCase) register(sc *SelectCond, idx int) {}
func (d *defaultCase) unregister(sc *SelectCond)        {}
func (d *defaultCase) isDefault() bool                  { return true }

// Recv builds a receive case: when ch yields a value, handler runs with it.
func Recv[T any](ch *Chan[T], handler func(T)) SelectCase {
	return &recvCase[T]{ch: ch, handler: handler}
}

// Send builds a send case: when ch accepts value, handler runs.
func Send[T any](ch *Chan[T], value T, handler func()) SelectCase {
	return &sendCase[T]{ch: ch, value: value, handler: handler}
}

// Default builds the fallback case run when no other case is immediately
// ready. At most one Default case may be passed to Select.
func Default(handler func()) SelectCase {
	return &defaultCase{handler: handler}
}

// Select evaluates cases in randomised order, preferring any that are
// immediately ready; falls back to Default if present; otherwise blocks
// until exactly one case becomes ready or every case's channel closes.
func Select(cases ...SelectCase) {
	n := len(cases)
	if n == 0 {
		return
	}

	// Step 1: immediate readiness scan in a uniformly random order.
	closedAtScan := make([]bool, n)
	for _, i := range rand.Perm(n) {
		c := cases[i]
		if c.isDefault() || !c.probe() {
			continue
		}
		status := c.tryFire()
		if status == StatusOK {
			return
		}
		if status == StatusClosed {
			closedAtScan[i] = true
		}
		// Closed or Empty (lost a race): keep scanning the remaining cases.
	}

	// Step 2: default.
	for _, c := range cases {
		if c.isDefault() {
			c.tryFire()
			return
		}
	}

	// Step 3: block, registered with every non-default case. sc comes from
	// selectCondPool (an api.ObjectPool[*SelectCond]) rather than a fresh
	// allocation, since every contended Select call under load hits this
	// path.
	sc := selectCondPool.Get()
	sc.reset()
	active := make([]int, 0, n)
	for i, c := range cases {
		if c.isDefault() || closedAtScan[i] {
			continue
		}
		c.register(sc, i)
		active = append(active, i)
	}
	if len(active) == 0 {
		return
	}
	// Returning sc to the pool must be the last thing that happens to it
	// (deferred first so it runs last, defers being LIFO): another Select
	// call could Get() and reset() it from the pool the instant it's
	// returned, so every channel-side registration must already be torn
	// down and the cond already closed beforehand, or that new owner would
	// collide with this call's in-flight signalling.
	defer selectCondPool.Put(sc)
	// sc must only close once this Select call is fully committed to
	// returning: a StatusEmpty tryFire result below re-registers this same
	// sc to keep waiting, so closing it any earlier would silently drop
	// that re-registration and hang forever (every later TrySignalReady/
	// SignalReady on a closed sc fails without waking anything). Close runs
	// before unregister (defers are LIFO) so any producer still blocked
	// delivering to sc is released before its channel-side registration is
	// torn down.
	defer func() {
		for _, i := range active {
			cases[i].unregister(sc)
		}
	}()
	defer sc.Close()

	for len(active) > 0 {
		idx, closed := sc.WaitForEventAndClose()
		if closed {
			active = removeIndex(active, idx)
			continue
		}
		switch status := cases[idx].tryFire(); status {
		case StatusOK:
			active = removeIndex(active, idx)
			return
		case StatusClosed:
			active = removeIndex(active, idx)
		case StatusEmpty:
			// Lost the race to another waker; the channel already dropped
			// our registration when it signalled, so re-register and keep
			// waiting for this case alongside the others.
			cases[idx].register(sc, idx)
		}
	}
}

func removeIndex(s []int, v int) []int {
	for i, x := range s {
		if x == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}
