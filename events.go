// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pgview

import "fmt"

// MouseEventType identifies a pointer event.
type MouseEventType int

const (
	MouseMove MouseEventType = iota
	MouseDown
	MouseUp
	MouseWheel
	MouseDoubleClick
)

func (t MouseEventType) String() string {
	switch t {
	case MouseMove:
		return "MouseMove"
	case MouseDown:
		return "MouseDown"
	case MouseUp:
		return "MouseUp"
	case MouseWheel:
		return "MouseWheel"
	case MouseDoubleClick:
		return "MouseDoubleClick"
	default:
		return fmt.Sprintf("MouseEventType(%d)", int(t))
	}
}

// MouseEvent is a pointer event in view coordinates.
type MouseEvent struct {
	Type          MouseEventType
	X, Y          float64
	Buttons       int
	ChangedButton int
	Modifiers     int
	Delta         float64
}

// KeyEventType identifies a keyboard event.
type KeyEventType int

const (
	KeyDown KeyEventType = iota
	KeyUp
)

func (t KeyEventType) String() string {
	if t == KeyUp {
		return "KeyUp"
	}
	return "KeyDown"
}

// KeyEvent is a keyboard event.
type KeyEvent struct {
	Type          KeyEventType
	KeyCode       int
	CharacterCode rune
	Modifiers     int
}
