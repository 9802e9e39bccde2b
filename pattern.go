// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pgview

import "math"

const (
	// DefaultRowShift is the phase offset, in ramp units, between
	// consecutive rows of the master buffer.
	DefaultRowShift = 10.0

	// rampSpan is how far the ramp travels across one row: twice the
	// channel range, so each row holds one full up-and-down period.
	rampSpan = 512.0
)

// rampRow writes row y of the diagonal wave into row. Channel 0 carries a
// triangular ramp that starts at (y*rowShift) mod 256 and reverses whenever
// it would leave [0,255]; the other colour channels are 0 and alpha, if
// present, is opaque.
func rampRow(row []uint8, y, width, bpp int, rowShift float64) {
	step := rampSpan / float64(width)
	v := math.Mod(float64(y)*rowShift, 256)
	if v < 0 {
		v += 256
	}

	for x := range width {
		i := x * bpp
		row[i] = uint8(min(math.RoundToEven(v), 255))
		row[i+1] = 0
		row[i+2] = 0
		if bpp == 4 {
			row[i+3] = 0xff
		}

		v += step
		if (step > 0 && v > 255) || (step < 0 && v < 0) {
			step = -step
			v += step
		}
	}
}

// fillRows renders rows [y0,y1) of a master buffer that is width pixels wide.
// stale is polled before every row; fillRows returns false as soon as it
// reports true, leaving the remaining rows untouched.
func fillRows(master []uint8, width, bpp, y0, y1 int, rowShift float64, stale func() bool) bool {
	stride := width * bpp
	for y := y0; y < y1; y++ {
		if stale() {
			return false
		}
		rampRow(master[y*stride:(y+1)*stride], y, width, bpp, rowShift)
	}
	return true
}
