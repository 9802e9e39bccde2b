// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package memhost

import (
	"errors"
	"fmt"
	"image"
	"sort"
	"sync"

	"github.com/gogpu/pgview"
)

// ErrUnknownView is returned for requests naming an unregistered view.
var ErrUnknownView = errors.New("memhost: unknown view")

// ViewCounts are per-view pipeline counters.
type ViewCounts struct {
	Deferred  uint64 // RenderDeferred requests
	Immediate uint64 // RenderImmediate requests
	Renders   uint64 // RenderView calls
}

type viewEntry struct {
	view        pgview.View
	opts        pgview.ViewOptions
	pending     bool
	interacting bool
	target      *image.RGBA
	counts      ViewCounts
}

// Pipeline is a loopback render pipeline. Deferred requests only mark a view
// pending; Flush renders every pending view once, so any number of deferred
// requests between two flushes cost a single render. Immediate requests
// render before returning.
//
// The render target of a view is kept between renders, so a pass that draws
// nothing leaves the previous image in place, as a remote surface would.
//
// Pipeline calls View methods on the goroutine that called RenderImmediate,
// Flush or Resize; callers must make that the view's UI context.
type Pipeline struct {
	mu       sync.Mutex
	views    map[string]*viewEntry
	rendered map[int]func(string)
	nextID   int
	fail     func(name string, immediate bool) error
}

// NewPipeline creates a pipeline with no views.
func NewPipeline() *Pipeline {
	return &Pipeline{
		views:    make(map[string]*viewEntry),
		rendered: make(map[int]func(string)),
	}
}

// RegisterView adds a view.
func (p *Pipeline) RegisterView(name string, v pgview.View, opts pgview.ViewOptions) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.views[name]; ok {
		return fmt.Errorf("memhost: view %q already registered", name)
	}
	p.views[name] = &viewEntry{view: v, opts: opts}
	return nil
}

// UnregisterView removes a view.
func (p *Pipeline) UnregisterView(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.views, name)
}

// SetFailDispatch makes every render request consult fn first; a non-nil
// result is returned instead of serving the request. Pass nil to clear.
func (p *Pipeline) SetFailDispatch(fn func(name string, immediate bool) error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fail = fn
}

func (p *Pipeline) request(name string, immediate bool) (*viewEntry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.fail != nil {
		if err := p.fail(name, immediate); err != nil {
			return nil, err
		}
	}
	e, ok := p.views[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownView, name)
	}
	if immediate {
		e.counts.Immediate++
	} else {
		e.counts.Deferred++
		e.pending = true
	}
	return e, nil
}

// RenderDeferred marks the view for the next Flush.
func (p *Pipeline) RenderDeferred(name string) error {
	_, err := p.request(name, false)
	return err
}

// RenderImmediate renders the view now.
func (p *Pipeline) RenderImmediate(name string) error {
	if _, err := p.request(name, true); err != nil {
		return err
	}
	p.render(name)
	return nil
}

// Flush renders every pending view once and returns how many it rendered.
func (p *Pipeline) Flush() int {
	p.mu.Lock()
	var names []string
	for name, e := range p.views {
		if e.pending {
			e.pending = false
			names = append(names, name)
		}
	}
	p.mu.Unlock()

	sort.Strings(names)
	n := 0
	for _, name := range names {
		if p.render(name) {
			n++
		}
	}
	return n
}

func (p *Pipeline) render(name string) bool {
	p.mu.Lock()
	e, ok := p.views[name]
	p.mu.Unlock()
	if !ok {
		return false
	}

	size := e.view.ActualSize()
	if !size.Valid() {
		return false
	}

	p.mu.Lock()
	target := e.target
	if target == nil || pgview.SizeOf(target.Bounds()) != size {
		target = image.NewRGBA(size.Rect())
		e.target = target
	}
	p.mu.Unlock()

	e.view.RenderView(target)

	p.mu.Lock()
	e.counts.Renders++
	ids := make([]int, 0, len(p.rendered))
	for id := range p.rendered {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(string), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, p.rendered[id])
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(name)
	}
	return true
}

// Resize forwards a client size change to the view.
func (p *Pipeline) Resize(name string, size pgview.Size) error {
	p.mu.Lock()
	e, ok := p.views[name]
	p.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownView, name)
	}
	e.view.SetClientSize(size)
	return nil
}

// SetViewInteracting records whether a client is interacting with the view.
func (p *Pipeline) SetViewInteracting(name string, interacting bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.views[name]; ok {
		e.interacting = interacting
	}
}

// Interacting reports the last SetViewInteracting value for the view.
func (p *Pipeline) Interacting(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.views[name]
	return ok && e.interacting
}

// OnViewRendered registers fn to run after every render.
func (p *Pipeline) OnViewRendered(fn func(name string)) (cancel func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID
	p.nextID++
	p.rendered[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.rendered, id)
	}
}

// Registered reports whether a view with that name is registered, and the
// options it registered with.
func (p *Pipeline) Registered(name string) (pgview.ViewOptions, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.views[name]
	if !ok {
		return pgview.ViewOptions{}, false
	}
	return e.opts, true
}

// Pending reports whether the view has a deferred render waiting for Flush.
func (p *Pipeline) Pending(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.views[name]
	return ok && e.pending
}

// Counts returns the view's counters.
func (p *Pipeline) Counts(name string) ViewCounts {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.views[name]; ok {
		return e.counts
	}
	return ViewCounts{}
}

// Snapshot returns a copy of the view's last render target, or nil. Like
// rendering, it must run on the view's UI context.
func (p *Pipeline) Snapshot(name string) *image.RGBA {
	p.mu.Lock()
	var src *image.RGBA
	if e, ok := p.views[name]; ok {
		src = e.target
	}
	p.mu.Unlock()
	if src == nil {
		return nil
	}
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}
