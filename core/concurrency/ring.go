// File: core/concurrency/ring.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Ring is a bounded, lock-free, single-producer/single-consumer circular
// buffer. It backs each EventSource's outbound write FIFO (spec.md §3.6),
// where exactly one event thread enqueues writes and exactly one poller
// goroutine drains them, so the lock-free discipline is safe without extra
// synchronization.

package concurrency

import (
	"sync/atomic"

	"github.com/momentics/wscore/api"
)

var _ api.Ring[any] = (*Ring[any])(nil)

// Ring is a fixed-capacity SPSC circular buffer.
type Ring[T any] struct {
	data []T
	mask uint64
	head atomic.Uint64
	_    [64]byte
	tail atomic.Uint64
	_    [64]byte
}

// NewRing allocates a ring of the given power-of-two capacity.
func NewRing[T any](capacity uint64) *Ring[T] {
	if capacity == 0 || capacity&(capacity-1) != 0 {
		panic("concurrency: ring capacity must be a power of two")
	}
	return &Ring[T]{data: make([]T, capacity), mask: capacity - 1}
}

// Enqueue adds item; returns false if the ring is full.
func (r *Ring[T]) Enqueue(item T) bool {
	head := r.head.Load()
	tail := r.tail.Load()
	if tail-head >= uint64(len(r.data)) {
		return false
	}
	r.data[tail&r.mask] = item
	r.tail.Store(tail + 1)
	return true
}

// Dequeue removes and returns the oldest item; ok is false if the ring is
// empty.
func (r *Ring[T]) Dequeue() (item T, ok bool) {
	head := r.head.Load()
	tail := r.tail.Load()
	if head >= tail {
		var zero T
		return zero, false
	}
	v := r.data[head&r.mask]
	r.head.Store(head + 1)
	return v, true
}

// Len returns the number of items currently buffered.
func (r *Ring[T]) Len() int {
	return int(r.tail.Load() - r.head.Load())
}

// Cap returns the fixed ring capacity.
func (r *Ring[T]) Cap() int { return len(r.data) }
