// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pgview

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSize is returned when a sequence is requested for a size with
	// a zero or negative dimension. Nothing is allocated.
	ErrInvalidSize = errors.New("pgview: invalid size")

	// ErrNotReady is returned by Screenshot while no frame of the current
	// size has been published.
	ErrNotReady = errors.New("pgview: no frame ready")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("pgview: closed")

	// errStale marks a generation whose epoch was superseded. It never
	// leaves the package.
	errStale = errors.New("pgview: generation superseded")
)

// DispatchError reports a render request the pipeline refused.
// The scheduler logs it and does not retry.
type DispatchError struct {
	View      string
	Immediate bool
	Err       error
}

func (e *DispatchError) Error() string {
	mode := "deferred"
	if e.Immediate {
		mode = "immediate"
	}
	return fmt.Sprintf("pgview: %s render of %q failed: %v", mode, e.View, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
