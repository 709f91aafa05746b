// Package key contains utilities for handling keyboard input.
package key

import "fmt"

// Code is a raw key code as delivered by wl_keyboard.key. It is an
// evdev code, not an XKB keycode, so it is 8 less than what XKB uses.
type Code uint32

// These values were pulled from linux/input-event-codes.h.
const (
	Reserved Code = iota
	Esc
	Num1
	Num2
	Num3
	Num4
	Num5
	Num6
	Num7
	Num8
	Num9
	Num0
	Minus
	Equal
	Backspace
	Tab
	Q
	W
	E
	R
	T
	Y
	U
	I
	O
	P
	LeftBrace
	RightBrace
	Enter
)

func (c Code) String() string {
	switch c {
	case Reserved:
		return "reserved"
	case Esc:
		return "esc"
	case Backspace:
		return "backspace"
	case Tab:
		return "tab"
	case Enter:
		return "enter"
	case Q:
		return "q"
	}

	return fmt.Sprintf("Code(%d)", uint32(c))
}

// State is the state of a key.
type State uint32

const (
	Released State = iota
	Pressed
)

func (s State) String() string {
	switch s {
	case Released:
		return "released"
	case Pressed:
		return "pressed"
	}

	return "unknown"
}
