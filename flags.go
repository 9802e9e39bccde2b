// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pgview

import (
	"fmt"
	"strconv"
	"sync/atomic"
)

// StatePrefix roots every state path pgview reads or writes.
const StatePrefix = "/DDx"

// Flag is one of the display switches mirrored from the state store.
type Flag int

const (
	// FlagAsyncGeneration lets the ticker advance and render the animation.
	FlagAsyncGeneration Flag = iota

	// FlagRapidGeneration schedules another render after every completed
	// render, as fast as the pipeline can go.
	FlagRapidGeneration

	// FlagDeferredRendering selects coalesced render requests over immediate
	// ones.
	FlagDeferredRendering

	// FlagUseClientSize sizes frames to the client surface instead of the
	// fixed default size.
	FlagUseClientSize

	// FlagShowCursorMarker overlays a marker at the last pointer position.
	FlagShowCursorMarker

	// FlagShowFrameInfo overlays the frame number.
	FlagShowFrameInfo

	numFlags
)

var flagNames = [numFlags]string{
	FlagAsyncGeneration:   "AsyncImageGeneration",
	FlagRapidGeneration:   "RapidImageGeneration",
	FlagDeferredRendering: "UseDeferredRendering",
	FlagUseClientSize:     "UseClientSize",
	FlagShowCursorMarker:  "ShowMousePos",
	FlagShowFrameInfo:     "ShowFrameInfo",
}

var flagDefaults = [numFlags]bool{
	FlagDeferredRendering: true,
	FlagUseClientSize:     true,
	FlagShowCursorMarker:  true,
}

// Flags returns every flag in declaration order.
func Flags() []Flag {
	fs := make([]Flag, numFlags)
	for i := range fs {
		fs[i] = Flag(i)
	}
	return fs
}

func (f Flag) String() string {
	if f < 0 || f >= numFlags {
		return fmt.Sprintf("Flag(%d)", int(f))
	}
	return flagNames[f]
}

// Path returns the state store path of the flag, e.g. "/DDx/UseClientSize".
func (f Flag) Path() string {
	return StatePrefix + "/" + f.String()
}

// Default returns the value the flag has before the store says otherwise.
func (f Flag) Default() bool {
	if f < 0 || f >= numFlags {
		return false
	}
	return flagDefaults[f]
}

// DisplayConfig is the local copy of the display flags. Reads and writes are
// atomic so a render pass always sees the latest notified value.
type DisplayConfig struct {
	flags [numFlags]atomic.Bool
}

func newDisplayConfig() *DisplayConfig {
	c := &DisplayConfig{}
	for _, f := range Flags() {
		c.flags[f].Store(f.Default())
	}
	return c
}

// Get returns the cached value of f.
func (c *DisplayConfig) Get(f Flag) bool {
	if f < 0 || f >= numFlags {
		return false
	}
	return c.flags[f].Load()
}

// Set updates the cached value of f and reports whether it changed.
func (c *DisplayConfig) Set(f Flag, v bool) bool {
	if f < 0 || f >= numFlags {
		return false
	}
	return c.flags[f].Swap(v) != v
}

// asBool interprets a state store value as a flag. Stores that keep text
// (the way XML-backed state does) hand back "true"/"false".
func asBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(b)
		return parsed, err == nil
	default:
		return false, false
	}
}
