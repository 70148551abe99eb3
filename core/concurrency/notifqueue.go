// File: core/concurrency/notifqueue.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// NotificationQueue is the per-worker mutex-guarded FIFO of pending jobs
// backing the thread pool (spec.md §3.5). Each entry optionally carries the
// ExecutionQueue it was submitted through, so the worker can hand the next
// queued job back to the pool once the current one finishes (§4.3). The
// FIFO storage itself is github.com/eapache/queue, the same dependency the
// teacher pulls in for exactly this purpose.

package concurrency

import (
	"sync"

	"github.com/eapache/queue"
)

// TaskFunc is a zero-argument unit of work submitted to the thread pool.
type TaskFunc func()

type notificationEntry struct {
	task      TaskFunc
	execQueue *ExecutionQueue
}

// notificationQueue is a blocking FIFO of notificationEntry values.
type notificationQueue struct {
	mu   sync.Mutex
	cond *sync.Cond
	q    *queue.Queue
	done bool
}

func newNotificationQueue() *notificationQueue {
	nq := &notificationQueue{q: queue.New()}
	nq.cond = sync.NewCond(&nq.mu)
	return nq
}

// markDone marks the queue as shutting down and wakes any blocked pop.
func (nq *notificationQueue) markDone() {
	nq.mu.Lock()
	nq.done = true
	nq.cond.Broadcast()
	nq.mu.Unlock()
}

// pop blocks until an entry is available or the queue is done; ok is false
// only once the queue is both empty and done.
func (nq *notificationQueue) pop() (notificationEntry, bool) {
	nq.mu.Lock()
	defer nq.mu.Unlock()
	for nq.q.Length() == 0 && !nq.done {
		nq.cond.Wait()
	}
	if nq.q.Length() == 0 {
		return notificationEntry{}, false
	}
	e := nq.q.Peek().(notificationEntry)
	nq.q.Remove()
	return e, true
}

// tryPop is the non-blocking variant of pop, used for work stealing.
func (nq *notificationQueue) tryPop() (notificationEntry, bool) {
	if !nq.mu.TryLock() {
		return notificationEntry{}, false
	}
	defer nq.mu.Unlock()
	if nq.q.Length() == 0 {
		return notificationEntry{}, false
	}
	e := nq.q.Peek().(notificationEntry)
	nq.q.Remove()
	return e, true
}

// push appends an entry, blocking only for the internal mutex.
func (nq *notificationQueue) push(e notificationEntry) {
	nq.mu.Lock()
	nq.q.Add(e)
	nq.cond.Signal()
	nq.mu.Unlock()
}

// tryPush appends an entry only if the mutex is immediately available.
func (nq *notificationQueue) tryPush(e notificationEntry) bool {
	if !nq.mu.TryLock() {
		return false
	}
	nq.q.Add(e)
	nq.cond.Signal()
	nq.mu.Unlock()
	return true
}
