// File: core/buffer/bufferpool.go
// Package buffer implements size-classed pooling of api.Buffer values. It is
// a standalone component: no other package of this module allocates from it.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package buffer

import (
	"sync"
	"sync/atomic"

	"github.com/momentics/wscore/api"
)

// sizeClasses are the power-of-two buffer sizes a Pool allocates from;
// a request is rounded up to the smallest class that fits it.
var sizeClasses = [...]int{
	1 * 1024,
	2 * 1024,
	4 * 1024,
	8 * 1024,
	16 * 1024,
	32 * 1024,
	64 * 1024,
	128 * 1024,
}

func classFor(size int) int {
	for _, c := range sizeClasses {
		if size <= c {
			return c
		}
	}
	return size
}

// Pool is a api.BufferPool implementation backed by one sync.Pool per size
// class. Buffers released through Release go back to their class's pool;
// buffers larger than the biggest class are allocated directly and simply
// dropped on release.
type Pool struct {
	classes map[int]*sync.Pool

	alloc int64
	free  int64
	inUse int64
}

// NewPool builds an empty Pool with one sync.Pool per size class.
func NewPool() *Pool {
	p := &Pool{classes: make(map[int]*sync.Pool, len(sizeClasses))}
	for _, c := range sizeClasses {
		c := c
		p.classes[c] = &sync.Pool{New: func() any {
			return make([]byte, c)
		}}
	}
	return p
}

// Get returns a Buffer with at least size bytes of capacity.
func (p *Pool) Get(size int) api.Buffer {
	class := classFor(size)
	atomic.AddInt64(&p.alloc, 1)
	atomic.AddInt64(&p.inUse, 1)

	sp, pooled := p.classes[class]
	var data []byte
	if pooled {
		data = sp.Get().([]byte)[:size]
	} else {
		data = make([]byte, size)
	}
	return api.Buffer{Data: data, Pool: p, Class: class}
}

// Put returns a Buffer to its owning size-class pool. Implements
// api.Releaser so that api.Buffer.Release can call back into the pool.
func (p *Pool) Put(b api.Buffer) {
	atomic.AddInt64(&p.free, 1)
	atomic.AddInt64(&p.inUse, -1)
	sp, ok := p.classes[b.Class]
	if !ok {
		return
	}
	sp.Put(b.Data[:cap(b.Data)])
}

// Stats reports cumulative allocation counters.
func (p *Pool) Stats() api.BufferPoolStats {
	return api.BufferPoolStats{
		TotalAlloc: atomic.LoadInt64(&p.alloc),
		TotalFree:  atomic.LoadInt64(&p.free),
		InUse:      atomic.LoadInt64(&p.inUse),
	}
}
