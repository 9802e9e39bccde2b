// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pgview

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/pgview/internal/parallel"
)

// GenerationState is the state of a Generator.
type GenerationState int32

const (
	// StateUninitialized means no sequence has been requested yet, or the
	// only attempt so far failed.
	StateUninitialized GenerationState = iota

	// StateGenerating means a background generation is in flight.
	StateGenerating

	// StateComplete means the published sequence is the latest requested one.
	StateComplete
)

func (s GenerationState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateGenerating:
		return "generating"
	case StateComplete:
		return "complete"
	default:
		return fmt.Sprintf("GenerationState(%d)", int32(s))
	}
}

// MatchStatus tells a render pass whether it can draw.
type MatchStatus int

const (
	// Regenerating means no frame of the requested size is available yet;
	// the pass should leave its surface unchanged.
	Regenerating MatchStatus = iota

	// AlreadyCurrent means Match.Frame holds the frame at the cursor.
	AlreadyCurrent
)

func (m MatchStatus) String() string {
	if m == AlreadyCurrent {
		return "current"
	}
	return "regenerating"
}

// Match is the result of Generator.RequestSequence.
type Match struct {
	Status MatchStatus
	Frame  *Frame
	Index  int // cursor position within the sequence
	Count  int // sequence length
}

// bandRows is the number of master rows one pool job fills.
const bandRows = 32

// Generator produces looping frame sequences on background goroutines.
//
// Each generation captures the epoch current when it started. Starting a new
// generation, or closing the generator, bumps the epoch; a worker whose
// captured epoch is no longer current stops at the next row and never
// publishes. Publishing happens under mu, so readers see either the old
// sequence or the new one.
//
// RequestSequence, Advance and Cursor belong to the UI context and must not
// be called concurrently with each other. State and Sequence may be called
// from anywhere.
type Generator struct {
	opts options
	pool *parallel.WorkerPool

	epoch atomic.Uint64
	wg    sync.WaitGroup

	mu          sync.Mutex
	state       GenerationState
	target      Size
	seq         *Sequence
	closed      bool
	onPublished func(*Sequence)

	// cursor is owned by the UI context.
	cursor int

	// beforePublish, when set, runs after a sequence is built and before it
	// is published.
	beforePublish func(Size)

	// beforeBand, when set, runs on the pool worker before each band fill.
	beforeBand func(size Size, y0 int)
}

// NewGenerator creates an idle generator.
func NewGenerator(opts ...Option) *Generator {
	o := buildOptions(opts)
	return &Generator{
		opts: o,
		pool: parallel.NewWorkerPool(o.workers),
	}
}

// SetPublishedHandler registers fn to run, on the worker goroutine, after each
// successful publish. It replaces any previous handler.
func (g *Generator) SetPublishedHandler(fn func(*Sequence)) {
	g.mu.Lock()
	g.onPublished = fn
	g.mu.Unlock()
}

// RequestSequence returns the frame at the cursor if the published sequence
// has the requested size. Otherwise it makes sure a generation for size is in
// flight, superseding any generation for another size, and returns
// Regenerating.
func (g *Generator) RequestSequence(size Size) (Match, error) {
	if !size.Valid() {
		return Match{}, fmt.Errorf("%w: %v", ErrInvalidSize, size)
	}

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return Match{}, ErrClosed
	}

	var start bool
	switch g.state {
	case StateUninitialized:
		start = true
	case StateGenerating:
		start = g.target != size
	case StateComplete:
		start = g.seq == nil || g.seq.Size() != size
	}

	if !start {
		var m Match
		if g.state == StateComplete {
			n := g.seq.Len()
			m = Match{
				Status: AlreadyCurrent,
				Frame:  g.seq.Frame(g.cursor),
				Index:  g.cursor % n,
				Count:  n,
			}
		}
		g.mu.Unlock()
		return m, nil
	}

	prev, prevTarget := g.state, g.target
	epoch := g.epoch.Add(1)
	g.state = StateGenerating
	g.target = size
	g.wg.Add(1)
	g.mu.Unlock()

	if prev == StateGenerating {
		Logger().Debug("generation superseded", "old", prevTarget, "new", size)
	}
	go g.generate(epoch, size)
	return Match{Status: Regenerating}, nil
}

func (g *Generator) generate(epoch uint64, size Size) {
	defer g.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			g.fail(epoch, size, fmt.Errorf("pgview: generation panicked: %v", r))
		}
	}()

	start := time.Now()
	stale := func() bool { return g.epoch.Load() != epoch }

	seq, err := g.build(size, stale)
	if errors.Is(err, errStale) {
		Logger().Debug("generation discarded", "size", size)
		return
	}
	if err != nil {
		g.fail(epoch, size, err)
		return
	}

	if g.beforePublish != nil {
		g.beforePublish(size)
	}

	g.mu.Lock()
	if g.closed || g.epoch.Load() != epoch {
		g.mu.Unlock()
		Logger().Debug("generation discarded", "size", size)
		return
	}
	g.seq = seq
	g.state = StateComplete
	onPublished := g.onPublished
	g.mu.Unlock()

	Logger().Info("sequence published",
		"size", size,
		"frames", seq.Len(),
		"format", seq.Format(),
		"elapsed", time.Since(start))

	if onPublished != nil {
		onPublished(seq)
	}
}

// build renders the master buffer on the pool and slices it into frames.
func (g *Generator) build(size Size, stale func() bool) (*Sequence, error) {
	count := g.opts.frameCount
	bpp := g.opts.format.BytesPerPixel()
	rows := size.Height + count - 1
	master := make([]uint8, size.Width*rows*bpp)

	work := make([]func(), 0, (rows+bandRows-1)/bandRows)
	for y0 := 0; y0 < rows; y0 += bandRows {
		y1 := min(y0+bandRows, rows)
		work = append(work, func() {
			if g.beforeBand != nil {
				g.beforeBand(size, y0)
			}
			fillRows(master, size.Width, bpp, y0, y1, g.opts.rowShift, stale)
		})
	}
	err := g.pool.ExecuteAll(work)
	if errors.Is(err, parallel.ErrPoolClosed) || stale() {
		return nil, errStale
	}
	if err != nil {
		return nil, fmt.Errorf("pgview: fill %v: %w", size, err)
	}

	return sliceSequence(master, size, g.opts.format, count, stale)
}

// fail puts a still-current generation back into a state from which the next
// request retries. The published sequence, if any, stays.
func (g *Generator) fail(epoch uint64, size Size, err error) {
	g.mu.Lock()
	current := !g.closed && g.epoch.Load() == epoch
	if current {
		if g.seq != nil {
			g.state = StateComplete
		} else {
			g.state = StateUninitialized
		}
	}
	g.mu.Unlock()

	if current {
		Logger().Error("generation failed", "size", size, "err", err)
	}
}

// Advance moves the cursor one frame forward, modulo the length of the
// published sequence. It does nothing while no sequence is published.
func (g *Generator) Advance() {
	n := g.Sequence().Len()
	if n == 0 {
		return
	}
	g.cursor = (g.cursor + 1) % n
}

// Cursor returns the raw cursor value. Readers of a sequence reduce it modulo
// that sequence's length, so a replacement of another length keeps the
// animation position instead of restarting it.
func (g *Generator) Cursor() int {
	return g.cursor
}

// Current returns the published frame at the cursor without starting any
// work, or nil if nothing is published.
func (g *Generator) Current() *Frame {
	return g.Sequence().Frame(g.cursor)
}

// State returns the current generation state.
func (g *Generator) State() GenerationState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Sequence returns the published sequence, or nil.
func (g *Generator) Sequence() *Sequence {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}

// Close cancels any generation in flight, waits for the workers to exit and
// releases the pool. Later requests fail with ErrClosed.
func (g *Generator) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	g.epoch.Add(1)
	g.mu.Unlock()

	g.wg.Wait()
	g.pool.Close()
}
