package launcher

import (
	"fmt"

	"deedles.dev/infolauncher/key"
	"deedles.dev/infolauncher/shutdown"
)

// Event is something that happened to the surface that the run loop
// may need to react to.
type Event interface {
	fmt.Stringer
	event()
}

type KeyEvent struct {
	Code  key.Code
	State key.State
}

func (KeyEvent) event() {}

func (ev KeyEvent) String() string {
	return fmt.Sprintf("key %v %v", ev.Code, ev.State)
}

// ClosedEvent is sent when the compositor closes the surface.
type ClosedEvent struct{}

func (ClosedEvent) event() {}

func (ClosedEvent) String() string {
	return "closed"
}

type ConfigureEvent struct {
	Width, Height uint32
}

func (ConfigureEvent) event() {}

func (ev ConfigureEvent) String() string {
	return fmt.Sprintf("configure %vx%v", ev.Width, ev.Height)
}

// Transition returns the status that results from ev happening while
// in status. Pressing Esc or the surface being closed starts a
// shutdown. Nothing leaves Closing.
func Transition(status shutdown.Status, ev Event) shutdown.Status {
	if status == shutdown.Closing {
		return status
	}

	switch ev := ev.(type) {
	case KeyEvent:
		if (ev.Code == key.Esc) && (ev.State == key.Pressed) {
			return shutdown.Closing
		}
	case ClosedEvent:
		return shutdown.Closing
	}

	return status
}
