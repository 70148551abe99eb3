// File: core/eventloop/loop.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// EventLoop is a single-OS-thread reactor: one goroutine drains a batched
// inbox of Events and dispatches each to its owning EventThread, so no two
// handlers for the same loop ever run concurrently (spec.md §4.4's
// "single-threaded cooperative" scheduling model). A poller goroutine feeds
// the inbox from the kernel multiplexer (or, on platforms without one, from
// per-source blocking reads) and must never touch a Source's net.Conn
// directly outside of EventLoop's own Read/Write/Accept calls.

package eventloop

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// routedEvent pairs a registered EventThread with an event addressed to
// it; events carry their Source, so routing is really keyed by source, but
// an EventThread can also receive application-level Send events with no
// Source attached.
type routedEvent struct {
	thread EventThread
	event  Event
}

// EventThread is a logical, cooperatively scheduled thread pinned to one
// EventLoop (spec.md §3.7). Handle always runs on its loop's goroutine.
type EventThread interface {
	Handle(ev Event) error
}

// EventLoop batches and dispatches events to registered EventThreads,
// exactly mirroring the teacher's adaptive-backoff EventLoop.Run shape
// (core/concurrency/eventloop.go) generalised from a flat handler list to
// per-source thread routing plus the ops table of spec.md §4.4.
type EventLoop struct {
	log *zap.Logger

	inbox     chan routedEvent
	batchSize int

	poller poller

	mu      sync.Mutex
	sources map[*Source]struct{}
	threads map[EventThread]struct{}

	group *Group

	quit    chan struct{}
	done    chan struct{}
	running atomic.Bool
}

// NewEventLoop creates a loop with the given inbox capacity and per-cycle
// batch size, using the default poller for the current platform.
func NewEventLoop(batchSize, ringCapacity int, log *zap.Logger) *EventLoop {
	if log == nil {
		log = zap.NewNop()
	}
	l := &EventLoop{
		log:       log,
		inbox:     make(chan routedEvent, ringCapacity),
		batchSize: batchSize,
		sources:   make(map[*Source]struct{}),
		threads:   make(map[EventThread]struct{}),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	l.poller = newPoller(l)
	return l
}

// RegisterSocket wraps conn as a Source owned by this loop and registers it
// with the loop's poller (spec.md §4.4 registerSocket).
func (l *EventLoop) RegisterSocket(conn net.Conn) (*Source, error) {
	src := NewSource(conn, 64)
	src.setLoop(l)
	if err := l.poller.register(src); err != nil {
		return nil, fmt.Errorf("eventloop: register socket: %w", err)
	}
	l.mu.Lock()
	l.sources[src] = struct{}{}
	l.mu.Unlock()
	return src, nil
}

// RegisterListener wraps ln as a listening event source owned by this loop.
func (l *EventLoop) RegisterListener(ln net.Listener) (*Source, error) {
	src := NewListenerSource(ln)
	src.setLoop(l)
	if err := l.poller.register(src); err != nil {
		return nil, fmt.Errorf("eventloop: register listener: %w", err)
	}
	l.mu.Lock()
	l.sources[src] = struct{}{}
	l.mu.Unlock()
	return src, nil
}

// Read arms a single pending read on src (spec.md §4.4 read).
func (l *EventLoop) Read(src *Source) error {
	return l.poller.armRead(src)
}

// Write appends bytes to src's outbound FIFO, scheduling it with the
// poller if nothing is already in flight (spec.md §4.4 write).
func (l *EventLoop) Write(src *Source, data []byte) error {
	if !src.enqueueWrite(data) {
		return fmt.Errorf("eventloop: source closed or outbound queue full")
	}
	if e := src.pendingWrite(); e != nil && e.data != nil && len(e.data) == len(data) && e.sent == 0 {
		return l.poller.armWrite(src)
	}
	return nil
}

// Accept arms a single pending accept on a listening source.
func (l *EventLoop) Accept(src *Source) error {
	return l.poller.armAccept(src)
}

// AddThread registers thread and synthesises its Start event.
func (l *EventLoop) AddThread(thread EventThread) {
	l.mu.Lock()
	l.threads[thread] = struct{}{}
	l.mu.Unlock()
	l.Send(Start{}, thread)
}

// Send enqueues event for delivery to thread on this loop's goroutine. Safe
// to call from any goroutine.
func (l *EventLoop) Send(event Event, thread EventThread) {
	select {
	case l.inbox <- routedEvent{thread: thread, event: event}:
	case <-l.quit:
	}
}

// push is the poller's non-application entry point for delivering a
// completion event to the thread that owns a source.
func (l *EventLoop) push(src *Source, thread EventThread, event Event) bool {
	select {
	case l.inbox <- routedEvent{thread: thread, event: event}:
		return true
	default:
		l.log.Warn("eventloop: inbox full, dropping event", zap.Any("event", event))
		return false
	}
}

// Run drains the inbox in batches with adaptive backoff when idle, exactly
// following the teacher's EventLoop.Run shape. It blocks until Stop.
func (l *EventLoop) Run() {
	if !l.running.CompareAndSwap(false, true) {
		return
	}
	defer func() {
		close(l.done)
		l.running.Store(false)
	}()

	go l.poller.run()

	batch := make([]routedEvent, 0, l.batchSize)
	backoff := time.Microsecond
	const maxBackoff = time.Millisecond

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		batch = batch[:0]
	drain:
		for i := 0; i < l.batchSize; i++ {
			select {
			case re := <-l.inbox:
				batch = append(batch, re)
			default:
				break drain
			}
		}

		if len(batch) == 0 {
			timer.Reset(backoff)
			select {
			case <-l.quit:
				if !timer.Stop() {
					<-timer.C
				}
				return
			case re := <-l.inbox:
				if !timer.Stop() {
					<-timer.C
				}
				batch = append(batch, re)
				backoff = time.Microsecond
			case <-timer.C:
				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
				continue
			}
		}

		for _, re := range batch {
			if re.thread == nil {
				continue
			}
			if err := re.thread.Handle(re.event); err != nil {
				l.log.Warn("eventloop: handler returned error", zap.Error(err))
			}
		}
		backoff = time.Microsecond
	}
}

// Stop drains and tears down the loop: cancels the poller, clears all
// source/thread registrations, and waits for Run to return.
func (l *EventLoop) Stop() {
	select {
	case <-l.quit:
	default:
		close(l.quit)
	}
	l.poller.stop()

	if l.running.Load() {
		<-l.done
	}

	l.mu.Lock()
	for src := range l.sources {
		src.Close()
		delete(l.sources, src)
	}
	for t := range l.threads {
		delete(l.threads, t)
	}
	l.mu.Unlock()
}

// StopAllLoops forwards to the owning Group's StopAll if this loop belongs
// to one, else just stops itself (spec.md §4.4 stopAllLoops).
func (l *EventLoop) StopAllLoops() {
	if l.group != nil {
		l.group.StopAll()
		return
	}
	l.Stop()
}
