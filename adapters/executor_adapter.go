// File: adapters/executor_adapter.go
// Package adapters bridges this module's concrete runtime components to
// the generic api contracts, the way the teacher's own adapters/ package
// does (one file per interface, a thin delegating wrapper).
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package adapters

import (
	"github.com/momentics/wscore/api"
	"github.com/momentics/wscore/core/concurrency"
)

// ExecutorAdapter wraps a concurrency.ThreadPool to satisfy api.Executor.
// The wrapping is needed because ThreadPool.Submit takes the named
// concurrency.TaskFunc type rather than a bare func(), which otherwise
// wouldn't satisfy api.Executor's method set.
type ExecutorAdapter struct {
	pool *concurrency.ThreadPool
}

var _ api.Executor = (*ExecutorAdapter)(nil)

// NewExecutorAdapter wraps an already-running ThreadPool.
func NewExecutorAdapter(pool *concurrency.ThreadPool) *ExecutorAdapter {
	return &ExecutorAdapter{pool: pool}
}

// Submit schedules task for execution on the underlying pool.
func (e *ExecutorAdapter) Submit(task func()) error {
	return e.pool.Submit(concurrency.TaskFunc(task))
}

// NumWorkers returns the pool's fixed worker count.
func (e *ExecutorAdapter) NumWorkers() int { return e.pool.NumWorkers() }

// Flush blocks until every submitted task has completed.
func (e *ExecutorAdapter) Flush() { e.pool.Flush() }
