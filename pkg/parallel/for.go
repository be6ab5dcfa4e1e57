package parallel

import "sync"

var (
	defaultOnce sync.Once
	defaultPool *WorkerPool
)

// Default returns the shared pool sized by GOMAXPROCS. It lives for the
// lifetime of the process.
func Default() *WorkerPool {
	defaultOnce.Do(func() {
		defaultPool = NewWorkerPool(0)
	})
	return defaultPool
}

// For splits [0, n) into contiguous chunks and runs fn(lo, hi) for each
// chunk on the pool, returning once every chunk is done. Chunks never
// overlap, so fn may write its own range without synchronization.
func (p *WorkerPool) For(n int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	chunks := min(n, p.workers*4)
	if chunks <= 1 {
		fn(0, n)
		return
	}
	work := make([]func(), 0, chunks)
	for c := range chunks {
		lo := c * n / chunks
		hi := (c + 1) * n / chunks
		if lo == hi {
			continue
		}
		work = append(work, func() { fn(lo, hi) })
	}
	p.ExecuteAll(work)
}

// For runs fn over [0, n) on the default pool.
func For(n int, fn func(lo, hi int)) {
	Default().For(n, fn)
}
