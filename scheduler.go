// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pgview

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/pgview/internal/parallel"
)

// Scheduler is the animated view: it registers with the host pipeline, mirrors
// the display flags from the state store, paces the animation with a ticker
// and draws frames produced by its Generator.
//
// Everything that touches UI-owned state (cursor, pointer position, client
// size) runs on one serial loop. The ticker, the generator and store
// notifications only post work to it. The pipeline is expected to call the
// View methods on that loop as well, which the Invoke method makes possible
// for hosts without their own UI thread.
type Scheduler struct {
	name string
	opts options
	host Host
	gen  *Generator
	loop *parallel.Loop
	cfg  *DisplayConfig

	label lazyLabel

	// Owned by the loop.
	clientSize     Size
	mouseX, mouseY int

	cancels    []func()
	hasCommand bool

	stop      chan struct{}
	stopped   chan struct{}
	started   atomic.Bool
	closed    atomic.Bool
	closeOnce sync.Once

	ticks            atomic.Uint64
	droppedTicks     atomic.Uint64
	renders          atomic.Uint64
	dispatches       atomic.Uint64
	dispatchFailures atomic.Uint64
}

// Stats are cumulative scheduler counters.
type Stats struct {
	Ticks            uint64
	DroppedTicks     uint64
	Renders          uint64
	Dispatches       uint64
	DispatchFailures uint64
}

// NewScheduler creates the view, registers it with host.Pipeline, mirrors the
// display flags from host.Store (writing defaults for flags the store does
// not hold yet) and registers the Screenshot command if host.Commands is set.
// The ticker does not run until Start.
func NewScheduler(host Host, opts ...Option) (*Scheduler, error) {
	if host.Store == nil || host.Pipeline == nil {
		return nil, errors.New("pgview: host needs a state store and a view pipeline")
	}

	o := buildOptions(opts)
	s := &Scheduler{
		name:       o.viewName,
		opts:       o,
		host:       host,
		cfg:        newDisplayConfig(),
		clientSize: o.defaultSize,
		stop:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
	s.loop = parallel.NewLoop(o.loopDepth, func(r any) {
		Logger().Error("recovered panic on UI loop", "view", s.name, "panic", r)
	})
	s.gen = NewGenerator(opts...)
	s.gen.SetPublishedHandler(func(*Sequence) {
		s.loop.Post(s.renderDeferred)
	})

	if err := host.Pipeline.RegisterView(s.name, s, ViewOptions{Interactive: true, Format: o.format}); err != nil {
		s.gen.Close()
		s.loop.Close()
		return nil, fmt.Errorf("pgview: register view %q: %w", s.name, err)
	}

	for _, f := range Flags() {
		s.cancels = append(s.cancels, host.Store.Subscribe(f.Path(), func(_ string, v any) {
			s.onStoreChanged(f, v)
		}))
	}
	s.cancels = append(s.cancels, host.Pipeline.OnViewRendered(s.OnRenderCompleted))

	if host.Commands != nil {
		if err := host.Commands.AddHandler(ScreenshotCommand, s.handleScreenshot); err != nil {
			s.Close()
			return nil, fmt.Errorf("pgview: register %s command: %w", ScreenshotCommand, err)
		}
		s.hasCommand = true
	}

	for _, f := range Flags() {
		if v, ok := host.Store.Get(f.Path()); ok {
			if b, ok := asBool(v); ok {
				s.cfg.Set(f, b)
				continue
			}
		}
		if err := host.Store.Set(f.Path(), s.cfg.Get(f)); err != nil {
			Logger().Warn("cannot publish flag default", "view", s.name, "flag", f, "err", err)
		}
	}
	return s, nil
}

// Name returns the name the view is registered under.
func (s *Scheduler) Name() string {
	return s.name
}

// Generator returns the view's frame generator.
func (s *Scheduler) Generator() *Generator {
	return s.gen
}

// Config returns the cached display flags.
func (s *Scheduler) Config() *DisplayConfig {
	return s.cfg
}

// Start runs the ticker until ctx is done or Close is called.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if s.started.CompareAndSwap(false, true) {
		go s.run(ctx)
	}
	return nil
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.stopped)

	t := time.NewTicker(s.opts.tickPeriod)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-t.C:
			s.ticks.Add(1)
			if !s.loop.Post(s.tick) {
				s.droppedTicks.Add(1)
			}
		}
	}
}

// Invoke runs fn on the view's UI loop and waits for it. It must not be
// called from the loop itself.
func (s *Scheduler) Invoke(fn func()) error {
	if !s.loop.Invoke(fn) {
		return ErrClosed
	}
	return nil
}

// tick advances the animation and requests a render while async generation
// is on.
func (s *Scheduler) tick() {
	if s.cfg.Get(FlagAsyncGeneration) {
		s.advanceRendering()
	}
}

func (s *Scheduler) advanceRendering() {
	s.gen.Advance()
	_ = s.render()
}

// render requests one render, deferred or immediate depending on the flag's
// value right now.
func (s *Scheduler) render() error {
	return s.dispatch(!s.cfg.Get(FlagDeferredRendering))
}

func (s *Scheduler) renderDeferred() {
	_ = s.dispatch(false)
}

func (s *Scheduler) dispatch(immediate bool) error {
	var err error
	if immediate {
		err = s.host.Pipeline.RenderImmediate(s.name)
	} else {
		err = s.host.Pipeline.RenderDeferred(s.name)
	}
	s.dispatches.Add(1)
	if err == nil {
		return nil
	}

	s.dispatchFailures.Add(1)
	Logger().Warn("render dispatch failed", "view", s.name, "immediate", immediate, "err", err)
	return &DispatchError{View: s.name, Immediate: immediate, Err: err}
}

// RenderView implements View. It copies the frame at the cursor into target
// when a sequence of target's size is published, otherwise leaves target
// untouched while generation runs. The cursor marker and frame label are
// drawn over the copied frame when enabled.
func (s *Scheduler) RenderView(target *image.RGBA) {
	start := time.Now()
	size := SizeOf(target.Bounds())

	m, err := s.gen.RequestSequence(size)
	switch {
	case err != nil:
		Logger().Warn("render pass skipped", "view", s.name, "size", size, "err", err)
	case m.Status == AlreadyCurrent:
		m.Frame.CopyTo(target)
		if s.cfg.Get(FlagShowFrameInfo) {
			if l, err := s.label.get(); err == nil {
				l.draw(target, m.Index, m.Count)
			}
		}
		if s.cfg.Get(FlagShowCursorMarker) {
			drawMarker(target, s.mouseX, s.mouseY)
		}
	}

	s.renders.Add(1)
	Logger().Debug("render pass",
		"view", s.name,
		"size", size,
		"status", m.Status,
		"elapsed", time.Since(start))
}

// SetClientSize implements View: the client's surface changed size. The new
// size drives generation only while use-client-size is on.
func (s *Scheduler) SetClientSize(size Size) {
	s.clientSize = size
}

// ActualSize implements View.
func (s *Scheduler) ActualSize() Size {
	if s.cfg.Get(FlagUseClientSize) {
		return s.clientSize
	}
	return s.opts.defaultSize
}

// OnModeFlagChanged updates the cached flag. Turning use-client-size on or
// off requests a render right away so the new sizing shows without waiting
// for a tick.
func (s *Scheduler) OnModeFlagChanged(f Flag, v bool) {
	if !s.cfg.Set(f, v) {
		return
	}
	Logger().Info("flag changed", "view", s.name, "flag", f, "value", v)

	if f == FlagUseClientSize {
		s.loop.Post(func() { _ = s.render() })
	}
}

// onStoreChanged runs inside the store's notification. The cache is updated
// before it returns.
func (s *Scheduler) onStoreChanged(f Flag, v any) {
	b, ok := asBool(v)
	if !ok {
		fresh, found := s.host.Store.Get(f.Path())
		if b, ok = asBool(fresh); !found || !ok {
			Logger().Warn("ignoring non-boolean flag value", "view", s.name, "flag", f, "value", v)
			return
		}
	}
	s.OnModeFlagChanged(f, b)
}

// OnRenderCompleted is the pipeline's render-completed callback. With rapid
// generation on, it queues the next advance and render at once.
func (s *Scheduler) OnRenderCompleted(name string) {
	if name != s.name || !s.cfg.Get(FlagRapidGeneration) {
		return
	}
	s.loop.Post(s.advanceRendering)
}

// Stats returns the scheduler counters.
func (s *Scheduler) Stats() Stats {
	return Stats{
		Ticks:            s.ticks.Load(),
		DroppedTicks:     s.droppedTicks.Load(),
		Renders:          s.renders.Load(),
		Dispatches:       s.dispatches.Load(),
		DispatchFailures: s.dispatchFailures.Load(),
	}
}

// Close stops the ticker, detaches from the host, cancels generation and
// stops the UI loop. It must not be called from the loop.
func (s *Scheduler) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.stop)
		if s.started.Load() {
			<-s.stopped
		}

		for _, cancel := range s.cancels {
			cancel()
		}
		if s.hasCommand {
			s.host.Commands.RemoveHandler(ScreenshotCommand)
		}
		s.host.Pipeline.UnregisterView(s.name)

		s.gen.Close()
		s.loop.Close()
		if s.label.label != nil {
			s.label.label.close()
		}
	})
}
