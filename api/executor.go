// Package api
// Author: momentics
//
// Executor contract for parallel task dispatch, implemented over the thread
// pool by adapters.ExecutorAdapter.

package api

// Executor abstracts parallel task dispatch.
type Executor interface {
	// Submit schedules a task for execution. Returns an error if the
	// executor has been closed.
	Submit(task func()) error

	// NumWorkers returns the current number of active worker goroutines.
	NumWorkers() int

	// Flush blocks until all submitted tasks (and any tasks they
	// transitively queued through an execution queue) have completed.
	Flush()
}
