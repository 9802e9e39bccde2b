// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pgview

import (
	"image"
	"image/color"
	"image/png"
	"os"

	"golang.org/x/image/draw"
)

// Frame is one image of a Sequence: a tightly packed pixel buffer in either
// FormatRGBA32 or FormatRGB24. A Frame is immutable once the generator has
// produced it and may be read from any goroutine.
type Frame struct {
	width  int
	height int
	format PixelFormat
	data   []uint8
}

func newFrame(width, height int, format PixelFormat) *Frame {
	return &Frame{
		width:  width,
		height: height,
		format: format,
		data:   make([]uint8, width*height*format.BytesPerPixel()),
	}
}

// Width returns the width of the frame.
func (f *Frame) Width() int {
	return f.width
}

// Height returns the height of the frame.
func (f *Frame) Height() int {
	return f.height
}

// Size returns the frame dimensions.
func (f *Frame) Size() Size {
	return Size{Width: f.width, Height: f.height}
}

// Format returns the pixel format.
func (f *Frame) Format() PixelFormat {
	return f.format
}

// Stride returns the number of bytes per row.
func (f *Frame) Stride() int {
	return f.width * f.format.BytesPerPixel()
}

// Data returns the raw pixel bytes. Callers must not modify them.
func (f *Frame) Data() []uint8 {
	return f.data
}

// Row returns the bytes of row y. Callers must not modify them.
func (f *Frame) Row(y int) []uint8 {
	s := f.Stride()
	return f.data[y*s : (y+1)*s]
}

// At implements the image.Image interface.
func (f *Frame) At(x, y int) color.Color {
	if x < 0 || x >= f.width || y < 0 || y >= f.height {
		return color.RGBA{}
	}
	bpp := f.format.BytesPerPixel()
	i := (y*f.width + x) * bpp
	c := color.RGBA{R: f.data[i], G: f.data[i+1], B: f.data[i+2], A: 0xff}
	if f.format.HasAlpha() {
		c.A = f.data[i+3]
	}
	return c
}

// Bounds implements the image.Image interface.
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.width, f.height)
}

// ColorModel implements the image.Image interface.
func (f *Frame) ColorModel() color.Model {
	return color.RGBAModel
}

// CopyTo copies the frame into dst, aligned with dst's top-left corner and
// clipped to dst's bounds. *image.RGBA destinations take a row-copy path;
// anything else goes through x/image/draw.
func (f *Frame) CopyTo(dst draw.Image) {
	b := dst.Bounds()
	w := min(f.width, b.Dx())
	h := min(f.height, b.Dy())
	if w <= 0 || h <= 0 {
		return
	}

	rgba, ok := dst.(*image.RGBA)
	if !ok {
		draw.Draw(dst, image.Rect(b.Min.X, b.Min.Y, b.Min.X+w, b.Min.Y+h), f, image.Point{}, draw.Src)
		return
	}

	for y := range h {
		src := f.Row(y)
		off := rgba.PixOffset(b.Min.X, b.Min.Y+y)
		row := rgba.Pix[off : off+w*4]
		if f.format == FormatRGBA32 {
			copy(row, src[:w*4])
			continue
		}
		for x := range w {
			row[x*4+0] = src[x*3+0]
			row[x*4+1] = src[x*3+1]
			row[x*4+2] = src[x*3+2]
			row[x*4+3] = 0xff
		}
	}
}

// ToImage returns a copy of the frame as an *image.RGBA.
func (f *Frame) ToImage() *image.RGBA {
	img := image.NewRGBA(f.Bounds())
	f.CopyTo(img)
	return img
}

// SavePNG writes the frame to a PNG file.
func (f *Frame) SavePNG(path string) error {
	file, err := os.Create(path) //nolint:gosec // path is chosen by the caller
	if err != nil {
		return err
	}
	if err := png.Encode(file, f.ToImage()); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
