// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pgview

import (
	"image"

	"github.com/google/uuid"
)

// StateStore is the host's keyed application state.
type StateStore interface {
	// Get returns the value stored at path.
	Get(path string) (any, bool)

	// Set stores value at path and notifies the path's subscribers.
	Set(path string, value any) error

	// Subscribe registers fn for changes of path. The returned function
	// removes the subscription.
	Subscribe(path string, fn func(path string, value any)) (cancel func())
}

// ViewOptions are passed to the pipeline when a view registers.
type ViewOptions struct {
	Interactive bool
	Format      PixelFormat
}

// View is what the pipeline drives. All methods are called on the view's UI
// context.
type View interface {
	// SetClientSize reports the size of the remote client's surface.
	SetClientSize(Size)

	// ActualSize is the size the pipeline should allocate for RenderView.
	ActualSize() Size

	// RenderView draws into target.
	RenderView(target *image.RGBA)

	PostKeyEvent(KeyEvent)
	PostMouseEvent(MouseEvent)
}

// ViewPipeline is the host's view registry and render dispatcher.
type ViewPipeline interface {
	RegisterView(name string, v View, opts ViewOptions) error
	UnregisterView(name string)

	// RenderDeferred asks for a render at the pipeline's discretion.
	// Requests made before the pipeline acts collapse into one render.
	RenderDeferred(name string) error

	// RenderImmediate renders the view before returning.
	RenderImmediate(name string) error

	SetViewInteracting(name string, interacting bool)

	// OnViewRendered registers fn to run after every completed render.
	OnViewRendered(fn func(name string)) (cancel func())
}

// CommandHandler serves a named UI command for a client session.
type CommandHandler func(session uuid.UUID, args map[string]string) (map[string]string, error)

// CommandRegistry maps UI command names to handlers.
type CommandRegistry interface {
	AddHandler(name string, h CommandHandler) error
	RemoveHandler(name string)
}

// ResourceStore keeps binary content that clients fetch by key.
type ResourceStore interface {
	Store(contentType string, data []byte) (uuid.UUID, error)
}

// Host bundles the collaborators a Scheduler needs. Store and Pipeline are
// required; without Commands the Screenshot command is not registered, and
// without Resources screenshots cannot be stored.
type Host struct {
	Store     StateStore
	Pipeline  ViewPipeline
	Commands  CommandRegistry
	Resources ResourceStore
}
