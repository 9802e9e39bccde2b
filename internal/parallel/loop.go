// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package parallel

import (
	"sync"
	"sync/atomic"
)

// DefaultLoopDepth is the queue depth used when NewLoop is given a
// non-positive depth.
const DefaultLoopDepth = 64

// Loop is a single-consumer task queue. Every function posted to a Loop runs
// on the same goroutine, one at a time, in posting order. State that is only
// touched from inside posted functions needs no further synchronization.
//
// Functions must not call Invoke or Close on their own Loop: both wait for the
// loop goroutine and would deadlock.
type Loop struct {
	queue   chan func()
	done    chan struct{}
	stopped chan struct{}
	onPanic func(any)

	mu      sync.RWMutex
	running atomic.Bool
	dropped atomic.Uint64
}

// NewLoop starts a loop with the given queue depth. A panic inside a posted
// function is recovered and handed to onPanic (if non-nil); the loop keeps
// running.
func NewLoop(depth int, onPanic func(any)) *Loop {
	if depth <= 0 {
		depth = DefaultLoopDepth
	}
	l := &Loop{
		queue:   make(chan func(), depth),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		onPanic: onPanic,
	}
	l.running.Store(true)
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.stopped)
	for {
		select {
		case <-l.done:
			for {
				select {
				case fn := <-l.queue:
					l.call(fn)
				default:
					return
				}
			}
		case fn := <-l.queue:
			l.call(fn)
		}
	}
}

func (l *Loop) call(fn func()) {
	defer func() {
		if r := recover(); r != nil && l.onPanic != nil {
			l.onPanic(r)
		}
	}()
	fn()
}

// Post queues fn without blocking. It returns false, and counts a drop, if
// the queue is full; it returns false without counting if the loop is closed.
func (l *Loop) Post(fn func()) bool {
	if fn == nil {
		return false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if !l.running.Load() {
		return false
	}
	select {
	case l.queue <- fn:
		return true
	default:
		l.dropped.Add(1)
		return false
	}
}

// Invoke queues fn and waits until it has run. It returns false if the loop
// is closed before fn could be queued.
func (l *Loop) Invoke(fn func()) bool {
	if fn == nil {
		return false
	}
	ran := make(chan struct{})
	wrapped := func() {
		defer close(ran)
		fn()
	}

	l.mu.RLock()
	if !l.running.Load() {
		l.mu.RUnlock()
		return false
	}
	select {
	case l.queue <- wrapped:
	case <-l.stopped:
		l.mu.RUnlock()
		return false
	}
	l.mu.RUnlock()

	<-ran
	return true
}

// Close stops accepting work, runs what is already queued and waits for the
// loop goroutine to exit. Close is safe to call multiple times.
func (l *Loop) Close() {
	l.mu.Lock()
	if l.running.CompareAndSwap(true, false) {
		close(l.done)
	}
	l.mu.Unlock()
	<-l.stopped
}

// Dropped returns how many Post calls were rejected because the queue was
// full.
func (l *Loop) Dropped() uint64 {
	return l.dropped.Load()
}

// IsRunning reports whether the loop still accepts work.
func (l *Loop) IsRunning() bool {
	return l.running.Load()
}
