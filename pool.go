// pool.go - process-wide worker pool (used by dedup's hashing stages)
//
// (c) 2024 Sudhi Herle <sudhi@herle.net>
//
// Licensing Terms: GPLv2
//
// If you need a commercial license for this work, please contact
// the author.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package fsx

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Dispatcher is a long-lived pool of goroutines that run caller
// submitted closures. Unlike WorkPool, a Dispatcher is never closed;
// its lifetime is the process's, per the shared-pool design in §5 of
// the toolkit's concurrency model.
type Dispatcher struct {
	ch chan func()
	wg sync.WaitGroup
}

func newDispatcher(n int) *Dispatcher {
	if n <= 0 {
		n = runtime.NumCPU()
	}

	d := &Dispatcher{
		ch: make(chan func(), n),
	}

	d.wg.Add(n)
	for i := 0; i < n; i++ {
		go d.worker()
	}
	return d
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for fn := range d.ch {
		fn()
	}
}

// Go submits fn to be run on a pool worker. It may block if all
// workers are busy and the queue is full.
func (d *Dispatcher) Go(fn func()) {
	d.ch <- fn
}

var (
	poolOnce sync.Once
	poolSize atomic.Int64
	pool     *Dispatcher
)

// SetPoolSize configures the size of the process-wide pool returned by
// Pool(). It has no effect once Pool() has been called for the first
// time; set it at process startup if the default (runtime.NumCPU())
// isn't desired.
func SetPoolSize(n int) {
	poolSize.Store(int64(n))
}

// Pool returns the process-wide worker pool. It is initialized lazily
// on first use and lives for the lifetime of the process. Within this
// module only dedup submits work to it; walk, hash and xfer start
// their own per-call workers and do not use it.
func Pool() *Dispatcher {
	poolOnce.Do(func() {
		pool = newDispatcher(int(poolSize.Load()))
	})
	return pool
}
