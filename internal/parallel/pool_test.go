package parallel

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
)

// =============================================================================
// WorkerPool Creation Tests
// =============================================================================

func TestWorkerPool_Create(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	if pool.Workers() != 4 {
		t.Errorf("Workers() = %d, want 4", pool.Workers())
	}
	if !pool.IsRunning() {
		t.Error("pool should be running after creation")
	}
}

func TestWorkerPool_DefaultWorkers(t *testing.T) {
	for _, n := range []int{0, -3} {
		pool := NewWorkerPool(n)
		if got, want := pool.Workers(), runtime.GOMAXPROCS(0); got != want {
			t.Errorf("NewWorkerPool(%d).Workers() = %d, want %d", n, got, want)
		}
		pool.Close()
	}
}

// =============================================================================
// ExecuteAll Tests
// =============================================================================

func TestWorkerPool_ExecuteAll(t *testing.T) {
	pool := NewWorkerPool(3)
	defer pool.Close()

	// More items than the queue holds, so enqueueing has to wait on workers.
	const n = 200
	var counter atomic.Int64
	work := make([]func(), n)
	for i := range work {
		work[i] = func() { counter.Add(1) }
	}

	if err := pool.ExecuteAll(work); err != nil {
		t.Fatalf("ExecuteAll: %v", err)
	}
	if counter.Load() != n {
		t.Errorf("counter = %d, want %d", counter.Load(), n)
	}
}

func TestWorkerPool_ExecuteAll_Empty(t *testing.T) {
	pool := NewWorkerPool(2)
	defer pool.Close()

	if err := pool.ExecuteAll(nil); err != nil {
		t.Errorf("ExecuteAll(nil) on a running pool = %v", err)
	}
}

func TestWorkerPool_ExecuteAll_Concurrent(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	var counter atomic.Int64
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			work := make([]func(), 50)
			for i := range work {
				work[i] = func() { counter.Add(1) }
			}
			_ = pool.ExecuteAll(work)
		}()
	}
	wg.Wait()

	if counter.Load() != 400 {
		t.Errorf("counter = %d, want 400", counter.Load())
	}
}

// =============================================================================
// Close Tests
// =============================================================================

func TestWorkerPool_CloseIdempotent(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Close()
	pool.Close()

	if pool.IsRunning() {
		t.Error("pool should not be running after close")
	}
}

func TestWorkerPool_ExecuteAfterClose(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Close()

	var executed atomic.Bool
	if err := pool.ExecuteAll([]func(){func() { executed.Store(true) }}); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("ExecuteAll on a closed pool = %v, want ErrPoolClosed", err)
	}
	if err := pool.ExecuteAll(nil); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("ExecuteAll(nil) on a closed pool = %v, want ErrPoolClosed", err)
	}
	if executed.Load() {
		t.Error("work ran on a closed pool")
	}
}

// =============================================================================
// Panic Tests
// =============================================================================

func TestWorkerPool_PanicRecovered(t *testing.T) {
	pool := NewWorkerPool(2)
	defer pool.Close()

	var ran atomic.Int64
	work := []func(){
		func() { ran.Add(1) },
		func() { panic("fill row boom") },
		func() { ran.Add(1) },
		func() { ran.Add(1) },
	}

	err := pool.ExecuteAll(work)
	var pe *PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("ExecuteAll = %v, want *PanicError", err)
	}
	if pe.Value != "fill row boom" {
		t.Errorf("panic value = %v", pe.Value)
	}
	if ran.Load() != 3 {
		t.Errorf("%d other items ran, want 3", ran.Load())
	}

	// The workers survive and keep serving.
	if err := pool.ExecuteAll([]func(){func() { ran.Add(1) }}); err != nil {
		t.Errorf("ExecuteAll after panic: %v", err)
	}
	if ran.Load() != 4 {
		t.Errorf("ran = %d, want 4", ran.Load())
	}
}
