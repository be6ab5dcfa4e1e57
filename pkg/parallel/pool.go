// Package parallel runs data-parallel voxel passes on a pool of goroutines.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool runs batches of independent tasks, typically X slabs of a
// voxel pass, on a fixed set of goroutines.
//
// Workers and the submitting goroutine claim tasks from a shared cursor,
// so a slab that is mostly outside the solid frees its worker for the next
// slab at once. The submitter always takes part, which keeps nested
// batches from deadlocking when every worker is busy.
//
// WorkerPool is safe for concurrent use.
type WorkerPool struct {
	workers int
	batches chan *batch
	done    chan struct{}
	wg      sync.WaitGroup

	mu      sync.RWMutex // orders batch submission against Close
	running atomic.Bool
}

// batch is one ExecuteAll call.
type batch struct {
	work    []func()
	next    atomic.Int64
	pending sync.WaitGroup
}

// run claims and runs tasks until none are left.
func (b *batch) run() {
	for {
		i := int(b.next.Add(1) - 1)
		if i >= len(b.work) {
			return
		}
		b.work[i]()
		b.pending.Done()
	}
}

// NewWorkerPool starts a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	p := &WorkerPool{
		workers: workers,
		batches: make(chan *batch, workers),
		done:    make(chan struct{}),
	}
	p.running.Store(true)
	p.wg.Add(workers)
	for range workers {
		go p.worker()
	}
	return p
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for {
		select {
		case b := <-p.batches:
			b.run()
		case <-p.done:
			return
		}
	}
}

// ExecuteAll runs every item of work and returns when all have finished.
// After Close, work runs on the calling goroutine alone.
func (p *WorkerPool) ExecuteAll(work []func()) {
	if len(work) == 0 {
		return
	}
	b := &batch{work: work}
	b.pending.Add(len(work))

	p.mu.RLock()
	if p.running.Load() {
		// Wake at most one helper per remaining task; busy workers are not
		// waited for.
		for range min(p.workers, len(work)-1) {
			select {
			case p.batches <- b:
			default:
			}
		}
	}
	p.mu.RUnlock()

	b.run()
	b.pending.Wait()
}

// Close stops the workers once they finish their current batch. Safe to
// call more than once.
func (p *WorkerPool) Close() {
	p.mu.Lock()
	if !p.running.CompareAndSwap(true, false) {
		p.mu.Unlock()
		return
	}
	close(p.done)
	p.mu.Unlock()
	p.wg.Wait()
}

// Workers returns the number of workers.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// IsRunning reports whether the pool still hands work to its workers.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}
