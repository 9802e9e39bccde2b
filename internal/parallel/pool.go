// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package parallel provides the goroutine plumbing behind pgview: a fixed
// worker pool that fills pixel bands, and a serial Loop that plays the role
// of the single UI-affine execution context.
package parallel

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool is a fixed set of goroutines draining one shared work queue.
//
// Several generations may use the pool at once (a superseded generation keeps
// running until it notices it is stale), so ExecuteAll may be called from
// many goroutines concurrently.
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool struct {
	workers int
	queue   chan func()
	done    chan struct{}
	wg      sync.WaitGroup

	// mu orders enqueueing against Close so that nothing lands in the
	// queue after the workers have drained it.
	mu      sync.RWMutex
	running atomic.Bool
}

// NewWorkerPool creates a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	queueSize := max(workers*4, 8)

	p := &WorkerPool{
		workers: workers,
		queue:   make(chan func(), queueSize),
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
		case <-p.done:
			p.drain()
			return
		case work := <-p.queue:
			work()
		}
	}
}

// drain runs whatever is still queued at shutdown so that ExecuteAll callers
// waiting on those items are released.
func (p *WorkerPool) drain() {
	for {
		select {
		case work := <-p.queue:
			work()
		default:
			return
		}
	}
}

// ErrPoolClosed is returned by ExecuteAll after Close.
var ErrPoolClosed = errors.New("parallel: pool closed")

// PanicError carries a panic recovered from a work item.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("parallel: work item panicked: %v", e.Value)
}

// ExecuteAll runs every item on the pool and waits for all of them.
// It returns ErrPoolClosed without running anything if the pool is closed.
// A panicking item is recovered on its worker; the other items still run
// and ExecuteAll returns a *PanicError holding the first panic value.
func (p *WorkerPool) ExecuteAll(work []func()) error {
	if len(work) == 0 {
		if !p.running.Load() {
			return ErrPoolClosed
		}
		return nil
	}

	p.mu.RLock()
	if !p.running.Load() {
		p.mu.RUnlock()
		return ErrPoolClosed
	}

	var (
		wg      sync.WaitGroup
		failure atomic.Pointer[PanicError]
	)
	wg.Add(len(work))
	for _, fn := range work {
		p.queue <- func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					failure.CompareAndSwap(nil, &PanicError{Value: r})
				}
			}()
			fn()
		}
	}
	p.mu.RUnlock()

	wg.Wait()
	if pe := failure.Load(); pe != nil {
		return pe
	}
	return nil
}

// Close stops accepting work, lets the workers finish what is queued and
// waits for them to exit. Close is safe to call multiple times.
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

// Workers returns the number of workers in the pool.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// IsRunning reports whether the pool still accepts work.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}
