// File: core/eventloop/poller.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// poller abstracts the per-platform completion mechanism behind the ops
// table of spec.md §4.4: Linux gets a real epoll backend that performs the
// read/write itself and synthesizes completion events (poller_linux.go);
// other platforms fall back to one short-lived blocking goroutine per armed
// operation (poller_portable.go). Either way, the EventLoop's own goroutine is the
// only place a handler ever runs.

package eventloop

// poller is the loop-private multiplexer contract.
type poller interface {
	register(src *Source) error
	armRead(src *Source) error
	armWrite(src *Source) error
	armAccept(src *Source) error
	run()
	stop()
}

func deliver(l *EventLoop, src *Source, ev Event) {
	l.push(src, src.Thread(), ev)
}
