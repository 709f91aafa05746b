package wl

import (
	"fmt"

	"deedles.dev/infolauncher/wire"
)

type SurfaceListener interface {
	Enter(output uint32)
	Leave(output uint32)
}

type Surface struct {
	Listener SurfaceListener
	object
}

// Attach sets buf as the surface's pending buffer. A nil buf removes
// the surface's content on the next commit.
func (s *Surface) Attach(buf *Buffer, x, y int32) {
	var id uint32
	if buf != nil {
		id = buf.id
	}

	msg := wire.NewMessage(s, surfaceAttach)
	msg.Method = "attach"
	msg.Args = []any{id, x, y}
	msg.WriteUint(id)
	msg.WriteInt(x)
	msg.WriteInt(y)
	s.client.Enqueue(msg)
}

func (s *Surface) Damage(x, y, width, height int32) {
	msg := wire.NewMessage(s, surfaceDamage)
	msg.Method = "damage"
	msg.Args = []any{x, y, width, height}
	msg.WriteInt(x)
	msg.WriteInt(y)
	msg.WriteInt(width)
	msg.WriteInt(height)
	s.client.Enqueue(msg)
}

// Frame requests a callback that fires when it is a good time to
// start drawing the next frame.
func (s *Surface) Frame() *Callback {
	callback := Callback{object: object{client: s.client, version: CallbackVersion}}
	s.client.Add(&callback)

	msg := wire.NewMessage(s, surfaceFrame)
	msg.Method = "frame"
	msg.Args = []any{callback.id}
	msg.WriteUint(callback.id)
	s.client.Enqueue(msg)

	return &callback
}

func (s *Surface) Commit() {
	msg := wire.NewMessage(s, surfaceCommit)
	msg.Method = "commit"
	s.client.Enqueue(msg)
}

func (s *Surface) Destroy() {
	msg := wire.NewMessage(s, surfaceDestroy)
	msg.Method = "destroy"
	s.client.Enqueue(msg)
}

func (s *Surface) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case surfaceEnter, surfaceLeave:
		output := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if s.Listener == nil {
			return nil
		}
		if msg.Op() == surfaceEnter {
			s.Listener.Enter(output)
			return nil
		}
		s.Listener.Leave(output)
		return nil

	default:
		return wire.UnknownOpError{Interface: SurfaceInterface, Type: "event", Op: msg.Op()}
	}
}

func (s *Surface) Delete() {}

func (s *Surface) MethodName(op uint16) string {
	switch op {
	case surfaceEnter:
		return "enter"
	case surfaceLeave:
		return "leave"
	}
	return "unknown method"
}

func (s *Surface) String() string {
	return fmt.Sprintf("%v@%v", SurfaceInterface, s.id)
}
