// File: core/concurrency/objectpool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// syncObjectPool adapts a sync.Pool to api.ObjectPool[T], used to reuse the
// SelectCond a blocking Select call allocates rather than letting every
// multi-way Select under contention churn the garbage collector.

package concurrency

import (
	"sync"

	"github.com/momentics/wscore/api"
)

type syncObjectPool[T any] struct {
	pool sync.Pool
}

var _ api.ObjectPool[*SelectCond] = (*syncObjectPool[*SelectCond])(nil)

func newSyncObjectPool[T any](newFn func() T) *syncObjectPool[T] {
	return &syncObjectPool[T]{pool: sync.Pool{New: func() any { return newFn() }}}
}

func (p *syncObjectPool[T]) Get() T    { return p.pool.Get().(T) }
func (p *syncObjectPool[T]) Put(obj T) { p.pool.Put(obj) }

var selectCondPool = newSyncObjectPool(func() *SelectCond { return NewSelectCond() })
