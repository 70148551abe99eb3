// File: core/eventloop/group.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Group is the ThreadedEventLoop of spec.md §4.4: a parent dispatcher
// owning N independent EventLoops, handing out the next one round-robin so
// that registering connections spreads across loops while each connection's
// events still only ever run on its own loop's goroutine.

package eventloop

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// Group owns a fixed set of EventLoops and balances Next() across them.
type Group struct {
	loops []*EventLoop
	next  atomic.Uint64
}

// NewGroup creates n loops, each with the given batch size and inbox
// capacity, and returns the Group owning them. Callers must call Run (via
// StartAll) before routing any work to the group.
func NewGroup(n, batchSize, ringCapacity int, log *zap.Logger) *Group {
	g := &Group{loops: make([]*EventLoop, n)}
	for i := range g.loops {
		l := NewEventLoop(batchSize, ringCapacity, log)
		l.group = g
		g.loops[i] = l
	}
	return g
}

// StartAll runs every loop's Run method on its own goroutine.
func (g *Group) StartAll() {
	for _, l := range g.loops {
		go l.Run()
	}
}

// Next round-robins across the group's loops.
func (g *Group) Next() *EventLoop {
	i := g.next.Add(1) - 1
	return g.loops[i%uint64(len(g.loops))]
}

// StopAll stops every loop in the group.
func (g *Group) StopAll() {
	for _, l := range g.loops {
		l.Stop()
	}
}

// Len returns the number of loops in the group.
func (g *Group) Len() int { return len(g.loops) }
