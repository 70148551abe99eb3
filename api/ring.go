// Package api
// Author: momentics
//
// Fast, lock-free ring buffer contract for cross-thread data transfer.

package api

// Ring is a fixed-capacity, lock-free concurrent FIFO contract.
type Ring[T any] interface {
	// Enqueue adds item, returns false if the buffer is full.
	Enqueue(item T) bool

	// Dequeue removes and returns the oldest item; ok is false if empty.
	Dequeue() (item T, ok bool)

	// Len returns the number of items currently buffered.
	Len() int

	// Cap returns the fixed buffer capacity.
	Cap() int
}
