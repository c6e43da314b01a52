// Package parallel provides a fixed-size worker pool with a blocking,
// chunked parallel-for.
package parallel

import (
	"sync"
)

// DefaultWorkers matches the batch width the engine was tuned with.
const DefaultWorkers = 4

// chunksPerWorker oversubscribes the pool a little so one slow chunk does
// not idle the remaining workers.
const chunksPerWorker = 4

// minChunk keeps tiny ranges from being split into per-element tasks.
const minChunk = 64

type task struct {
	lo, hi int
	fn     func(lo, hi int)
	done   *sync.WaitGroup
}

// Pool runs range chunks on a fixed set of goroutines.
//
// Each For call partitions [0, n) into disjoint half-open chunks, so callers
// that only write index i while handling i never race.
type Pool struct {
	workers int
	tasks   chan task
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewPool starts a pool with the given number of workers. A pool with one
// worker starts no goroutines and runs everything inline.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{workers: workers}
	if workers == 1 {
		return p
	}

	p.tasks = make(chan task, workers*chunksPerWorker)
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.run()
	}
	return p
}

func (p *Pool) run() {
	defer p.wg.Done()
	for t := range p.tasks {
		t.fn(t.lo, t.hi)
		t.done.Done()
	}
}

// Workers returns the pool size.
func (p *Pool) Workers() int {
	return p.workers
}

// For calls fn over disjoint chunks covering [0, n) and returns once every
// chunk has completed. After Close, or for single-worker pools and small
// ranges, fn runs on the calling goroutine.
func (p *Pool) For(n int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed || p.workers == 1 || n <= minChunk {
		fn(0, n)
		return
	}

	var done sync.WaitGroup
	for _, c := range Chunks(n, ChunkSize(n, p.workers)) {
		done.Add(1)
		p.tasks <- task{lo: c[0], hi: c[1], fn: fn, done: &done}
	}
	done.Wait()
}

// Close stops the workers. It is safe to call more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	if p.tasks != nil {
		close(p.tasks)
	}
	p.mu.Unlock()

	p.wg.Wait()
}

// ChunkSize returns the chunk length used to split n items across workers.
func ChunkSize(n, workers int) int {
	if workers < 1 {
		workers = 1
	}
	size := (n + workers*chunksPerWorker - 1) / (workers * chunksPerWorker)
	if size < minChunk {
		size = minChunk
	}
	return size
}

// Chunks splits [0, n) into consecutive [lo, hi) ranges of at most size items.
func Chunks(n, size int) [][2]int {
	if n <= 0 {
		return nil
	}
	if size < 1 {
		size = 1
	}
	out := make([][2]int, 0, (n+size-1)/size)
	for lo := 0; lo < n; lo += size {
		out = append(out, [2]int{lo, min(lo+size, n)})
	}
	return out
}
