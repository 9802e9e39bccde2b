// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pgview

import (
	"image"
	"strconv"
)

// Size is a frame size in pixels. Sizes are compared with ==.
type Size struct {
	Width  int
	Height int
}

// DefaultSize is the frame size used when the view ignores the client size.
var DefaultSize = Size{Width: 800, Height: 900}

// Valid reports whether both dimensions are positive.
func (s Size) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

// String returns the size as "WxH".
func (s Size) String() string {
	return strconv.Itoa(s.Width) + "x" + strconv.Itoa(s.Height)
}

// Rect returns the rectangle (0,0)-(Width,Height).
func (s Size) Rect() image.Rectangle {
	return image.Rect(0, 0, s.Width, s.Height)
}

// SizeOf returns the dimensions of r.
func SizeOf(r image.Rectangle) Size {
	return Size{Width: r.Dx(), Height: r.Dy()}
}
