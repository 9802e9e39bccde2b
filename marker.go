// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pgview

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// markerDiameter is the diameter in pixels of the cursor marker.
const markerDiameter = 22

// kappa places cubic Bézier control points for a quarter circle.
const kappa = 0.5522847498

var markerColor = image.NewUniform(color.RGBA{R: 0xff, A: 0xff})

// drawMarker fills a red anti-aliased disc centred on (x, y), given in view
// coordinates relative to dst's top-left corner. Parts outside dst are
// clipped.
func drawMarker(dst *image.RGBA, x, y int) {
	b := dst.Bounds()
	cx, cy := b.Min.X+x, b.Min.Y+y
	const r = markerDiameter / 2

	full := image.Rect(cx-r, cy-r, cx+r, cy+r)
	box := full.Intersect(b)
	if box.Empty() {
		return
	}

	// The whole disc is rasterized into a mask so that every path point
	// stays inside the rasterizer; only the visible part is composited.
	z := vector.NewRasterizer(markerDiameter, markerDiameter)
	const k = r * kappa
	z.MoveTo(2*r, r)
	z.CubeTo(2*r, r+k, r+k, 2*r, r, 2*r)
	z.CubeTo(r-k, 2*r, 0, r+k, 0, r)
	z.CubeTo(0, r-k, r-k, 0, r, 0)
	z.CubeTo(r+k, 0, 2*r, r-k, 2*r, r)
	z.ClosePath()

	mask := image.NewAlpha(image.Rect(0, 0, markerDiameter, markerDiameter))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	draw.DrawMask(dst, box, markerColor, image.Point{}, mask, box.Min.Sub(full.Min), draw.Over)
}
