package wl

import (
	"fmt"

	"deedles.dev/infolauncher/wire"
)

type CallbackListener interface {
	Done(data uint32)
}

// Callback is a one-shot notification. The compositor deletes it
// right after it fires.
type Callback struct {
	Listener CallbackListener
	object
}

// Then sets the callback's listener to f.
func (c *Callback) Then(f func(uint32)) {
	c.Listener = callbackListener(f)
}

type callbackListener func(uint32)

func (lis callbackListener) Done(data uint32) {
	lis(data)
}

func (c *Callback) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case callbackDone:
		data := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if c.Listener != nil {
			c.Listener.Done(data)
		}
		return nil

	default:
		return wire.UnknownOpError{Interface: CallbackInterface, Type: "event", Op: msg.Op()}
	}
}

func (c *Callback) Delete() {}

func (c *Callback) MethodName(op uint16) string {
	if op == callbackDone {
		return "done"
	}
	return "unknown method"
}

func (c *Callback) String() string {
	return fmt.Sprintf("%v@%v", CallbackInterface, c.id)
}
