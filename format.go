// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pgview

import "fmt"

// PixelFormat is the memory layout of a Frame.
type PixelFormat uint8

const (
	// FormatRGBA32 stores R, G, B, A, one byte each. Alpha is always opaque.
	FormatRGBA32 PixelFormat = iota

	// FormatRGB24 stores R, G, B, one byte each.
	FormatRGB24
)

// BytesPerPixel returns 4 for FormatRGBA32 and 3 for FormatRGB24.
func (f PixelFormat) BytesPerPixel() int {
	if f == FormatRGB24 {
		return 3
	}
	return 4
}

// HasAlpha reports whether the format carries an alpha channel.
func (f PixelFormat) HasAlpha() bool {
	return f == FormatRGBA32
}

func (f PixelFormat) String() string {
	switch f {
	case FormatRGBA32:
		return "rgba32"
	case FormatRGB24:
		return "rgb24"
	default:
		return fmt.Sprintf("PixelFormat(%d)", uint8(f))
	}
}

// ParsePixelFormat maps "rgba32" and "rgb24" to their formats.
func ParsePixelFormat(s string) (PixelFormat, error) {
	switch s {
	case "rgba32", "":
		return FormatRGBA32, nil
	case "rgb24":
		return FormatRGB24, nil
	default:
		return 0, fmt.Errorf("pgview: unknown pixel format %q", s)
	}
}
