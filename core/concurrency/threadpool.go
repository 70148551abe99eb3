// File: core/concurrency/threadpool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// ThreadPool is a fixed-size work-stealing pool of worker goroutines, each
// backed by its own NotificationQueue (spec.md §3.4/§3.5). Submit spreads
// jobs round-robin across queues, trying a non-blocking push on several
// candidates before giving up and blocking on one; idle workers steal from
// their siblings before parking on their own queue. ExecutionQueue layers
// serial ordering on top by draining its own backlog on whichever worker
// happened to run its first job, never re-entering the pool mid-chain.

package concurrency

import (
	"sync"
	"sync/atomic"

	"github.com/momentics/wscore/api"
)

// stealAttempts is how many queues Submit tries with a non-blocking push
// before falling back to a blocking push on the target queue. Idle workers
// do not use it: they try every sibling queue once before parking.
const stealAttempts = 4

// ThreadPool runs submitted TaskFuncs across a fixed set of worker
// goroutines. Create one with NewThreadPool and stop it with Stop.
type ThreadPool struct {
	queues   []*notificationQueue
	next     uint64
	wg       sync.WaitGroup
	pending  sync.WaitGroup
	stopped  atomic.Bool
	affinity api.Affinity
}

// NewThreadPool starts a pool of numWorkers worker goroutines. numWorkers
// must be positive.
func NewThreadPool(numWorkers int) (*ThreadPool, error) {
	return newThreadPool(numWorkers, nil)
}

// NewThreadPoolWithAffinity starts a pool whose worker goroutines Pin
// themselves via aff before entering their run loop, keeping each worker on
// one OS thread for the rest of the pool's lifetime.
func NewThreadPoolWithAffinity(numWorkers int, aff api.Affinity) (*ThreadPool, error) {
	return newThreadPool(numWorkers, aff)
}

func newThreadPool(numWorkers int, aff api.Affinity) (*ThreadPool, error) {
	if numWorkers <= 0 {
		return nil, ErrInvalidWorkerCount
	}
	p := &ThreadPool{queues: make([]*notificationQueue, numWorkers), affinity: aff}
	for i := range p.queues {
		p.queues[i] = newNotificationQueue()
	}
	for i := range p.queues {
		p.wg.Add(1)
		go p.workerLoop(i)
	}
	return p, nil
}

// NumWorkers returns the fixed worker count the pool was created with.
func (p *ThreadPool) NumWorkers() int { return len(p.queues) }

// Submit hands fn to the pool for execution on some worker. Returns
// ErrExecutorClosed if the pool has already been stopped.
func (p *ThreadPool) Submit(fn TaskFunc) error {
	if p.stopped.Load() {
		return ErrExecutorClosed
	}
	p.pending.Add(1)
	p.dispatch(notificationEntry{task: fn})
	return nil
}

// Flush blocks until every job submitted so far (including an
// ExecutionQueue's full backlog at the time of submission) has run.
func (p *ThreadPool) Flush() { p.pending.Wait() }

// Stop signals every worker to drain its remaining queue and exit, then
// waits for them to do so. After Stop returns, Submit always fails.
func (p *ThreadPool) Stop() {
	if !p.stopped.CompareAndSwap(false, true) {
		return
	}
	for _, q := range p.queues {
		q.markDone()
	}
	p.wg.Wait()
}

// runFromExecutionQueue is ExecutionQueue's hook for submitting the first
// job of a previously-idle chain; subsequent jobs in the same chain are run
// directly by the worker draining it, never re-entering the pool.
func (p *ThreadPool) runFromExecutionQueue(fn TaskFunc, eq *ExecutionQueue) {
	p.pending.Add(1)
	p.dispatch(notificationEntry{task: fn, execQueue: eq})
}

// dispatch round-robins across queues, trying a handful of non-blocking
// pushes before committing to a blocking push on one of them.
func (p *ThreadPool) dispatch(e notificationEntry) {
	n := len(p.queues)
	start := int(atomic.AddUint64(&p.next, 1)) % n
	attempts := stealAttempts
	if attempts > n {
		attempts = n
	}
	for i := 0; i < attempts; i++ {
		q := p.queues[(start+i)%n]
		if q.tryPush(e) {
			return
		}
	}
	p.queues[start].push(e)
}

func (p *ThreadPool) workerLoop(self int) {
	defer p.wg.Done()
	if p.affinity != nil {
		if err := p.affinity.Pin(self); err == nil {
			defer p.affinity.Unpin()
		}
	}
	n := len(p.queues)
	for {
		e, ok := p.queues[self].tryPop()
		if !ok {
			ok = false
			for i := 1; i < n && !ok; i++ {
				e, ok = p.queues[(self+i)%n].tryPop()
			}
		}
		if !ok {
			e, ok = p.queues[self].pop()
		}
		if !ok {
			return
		}
		p.runChain(e)
	}
}

// runChain executes e.task and, if it belongs to an ExecutionQueue, keeps
// draining that queue's backlog in place until it goes idle.
func (p *ThreadPool) runChain(e notificationEntry) {
	for {
		e.task()
		if e.execQueue == nil {
			p.pending.Done()
			return
		}
		next, ok := e.execQueue.signalFuncExecutionFinishedAndTryPop()
		if !ok {
			p.pending.Done()
			return
		}
		e = notificationEntry{task: next, execQueue: e.execQueue}
	}
}
