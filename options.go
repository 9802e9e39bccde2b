// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pgview

import (
	"math"
	"time"
)

// DefaultTickPeriod paces frame advancement at roughly 60 frames per second.
const DefaultTickPeriod = 15 * time.Millisecond

// DefaultViewName is the name the view registers with the pipeline.
const DefaultViewName = "PGView"

// Option configures a Generator or a Scheduler.
//
// Example:
//
//	s, err := pgview.NewScheduler(host,
//	    pgview.WithFrameCount(25),
//	    pgview.WithPixelFormat(pgview.FormatRGB24),
//	    pgview.WithTickPeriod(15*time.Millisecond),
//	)
type Option func(*options)

type options struct {
	frameCount         int
	format             PixelFormat
	rowShift           float64
	workers            int
	tickPeriod         time.Duration
	defaultSize        Size
	viewName           string
	screenshotMaxWidth int
	screenshotQuality  int
	loopDepth          int
}

func defaultOptions() options {
	return options{
		frameCount:        DefaultFrameCount,
		format:            FormatRGBA32,
		rowShift:          DefaultRowShift,
		workers:           0, // GOMAXPROCS
		tickPeriod:        DefaultTickPeriod,
		defaultSize:       DefaultSize,
		viewName:          DefaultViewName,
		screenshotQuality: 85,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// WithFrameCount sets the number of frames per sequence. Values below 1 are
// ignored.
func WithFrameCount(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.frameCount = n
		}
	}
}

// WithPixelFormat sets the pixel format of generated frames.
func WithPixelFormat(f PixelFormat) Option {
	return func(o *options) {
		o.format = f
	}
}

// WithRowShift sets the ramp phase offset between consecutive master rows.
// Negative, NaN and infinite values are ignored.
func WithRowShift(shift float64) Option {
	return func(o *options) {
		if shift >= 0 && !math.IsInf(shift, 1) {
			o.rowShift = shift
		}
	}
}

// WithWorkers sets how many goroutines fill the master buffer.
// 0 means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.workers = n
		}
	}
}

// WithTickPeriod sets the scheduler's ticker period. Non-positive values are
// ignored.
func WithTickPeriod(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.tickPeriod = d
		}
	}
}

// WithDefaultSize sets the size used while use-client-size is off.
// Invalid sizes are ignored.
func WithDefaultSize(s Size) Option {
	return func(o *options) {
		if s.Valid() {
			o.defaultSize = s
		}
	}
}

// WithViewName sets the name registered with the pipeline. It also roots the
// state paths used to mirror input events.
func WithViewName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.viewName = name
		}
	}
}

// WithScreenshotMaxWidth downscales screenshots wider than w pixels.
// 0 keeps the full size.
func WithScreenshotMaxWidth(w int) Option {
	return func(o *options) {
		if w >= 0 {
			o.screenshotMaxWidth = w
		}
	}
}

// WithScreenshotQuality sets the JPEG quality (1..100) of screenshots.
func WithScreenshotQuality(q int) Option {
	return func(o *options) {
		if q >= 1 && q <= 100 {
			o.screenshotQuality = q
		}
	}
}

// WithLoopDepth sets the queue depth of the scheduler's UI loop.
func WithLoopDepth(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.loopDepth = n
		}
	}
}
