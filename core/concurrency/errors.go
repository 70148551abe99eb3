// File: core/concurrency/errors.go
// Package concurrency implements the CSP channel, select, thread pool and
// execution-queue primitives (spec components C/D/E).
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import "errors"

var (
	// ErrExecutorClosed indicates the thread pool has been shut down.
	ErrExecutorClosed = errors.New("thread pool is closed")

	// ErrInvalidWorkerCount indicates an invalid worker count configuration.
	ErrInvalidWorkerCount = errors.New("invalid worker count")
)

// ChanStatus is the tri-state status returned by channel operations,
// playing the role of spec.md §3.1's empty|value|error Result for Chan[T].
type ChanStatus int

const (
	// StatusOK indicates the operation completed normally.
	StatusOK ChanStatus = iota
	// StatusClosed indicates the channel is closed.
	StatusClosed
	// StatusEmpty indicates a non-blocking operation could not proceed
	// immediately (trySend on a full buffer, tryRecv on an empty one, or
	// trySend on an unbuffered channel with no waiting receiver).
	StatusEmpty
)

func (s ChanStatus) String() string {
	switch s {
	case StatusClosed:
		return "closed"
	case StatusEmpty:
		return "empty"
	default:
		return "ok"
	}
}
