package layer

import (
	"fmt"

	wl "deedles.dev/infolauncher/client"
	"deedles.dev/infolauncher/wire"
)

type SurfaceListener interface {
	// Configure is sent when the compositor has decided on a size for
	// the surface. A zero width or height means that the client may
	// choose. The client must ack the serial before committing a
	// buffer.
	Configure(serial, width, height uint32)

	// Closed is sent when the surface will no longer be shown. The
	// client should destroy it.
	Closed()
}

// Surface is a zwlr_layer_surface_v1.
type Surface struct {
	Listener SurfaceListener

	client  *wl.Client
	id      uint32
	version uint32
}

func (s *Surface) SetSize(width, height uint32) {
	msg := wire.NewMessage(s, surfaceSetSize)
	msg.Method = "set_size"
	msg.Args = []any{width, height}
	msg.WriteUint(width)
	msg.WriteUint(height)
	s.client.Enqueue(msg)
}

func (s *Surface) SetAnchor(anchor Anchor) {
	msg := wire.NewMessage(s, surfaceSetAnchor)
	msg.Method = "set_anchor"
	msg.Args = []any{anchor}
	msg.WriteUint(uint32(anchor))
	s.client.Enqueue(msg)
}

func (s *Surface) SetExclusiveZone(zone int32) {
	msg := wire.NewMessage(s, surfaceSetExclusiveZone)
	msg.Method = "set_exclusive_zone"
	msg.Args = []any{zone}
	msg.WriteInt(zone)
	s.client.Enqueue(msg)
}

func (s *Surface) SetMargin(top, right, bottom, left int32) {
	msg := wire.NewMessage(s, surfaceSetMargin)
	msg.Method = "set_margin"
	msg.Args = []any{top, right, bottom, left}
	msg.WriteInt(top)
	msg.WriteInt(right)
	msg.WriteInt(bottom)
	msg.WriteInt(left)
	s.client.Enqueue(msg)
}

func (s *Surface) SetKeyboardInteractivity(ki KeyboardInteractivity) {
	msg := wire.NewMessage(s, surfaceSetKeyboardInteractivity)
	msg.Method = "set_keyboard_interactivity"
	msg.Args = []any{ki}
	msg.WriteUint(uint32(ki))
	s.client.Enqueue(msg)
}

func (s *Surface) AckConfigure(serial uint32) {
	msg := wire.NewMessage(s, surfaceAckConfigure)
	msg.Method = "ack_configure"
	msg.Args = []any{serial}
	msg.WriteUint(serial)
	s.client.Enqueue(msg)
}

// SetLayer moves the surface to another layer. It requires version 2.
func (s *Surface) SetLayer(layer Layer) error {
	if s.version < 2 {
		return fmt.Errorf("%v: set_layer requires version 2, bound at %v", s, s.version)
	}

	msg := wire.NewMessage(s, surfaceSetLayer)
	msg.Method = "set_layer"
	msg.Args = []any{layer}
	msg.WriteUint(uint32(layer))
	s.client.Enqueue(msg)
	return nil
}

// Destroy destroys the layer surface. The underlying wl_surface is
// left alone.
func (s *Surface) Destroy() {
	msg := wire.NewMessage(s, surfaceDestroy)
	msg.Method = "destroy"
	s.client.Enqueue(msg)
}

func (s *Surface) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case surfaceConfigure:
		serial := msg.ReadUint()
		width := msg.ReadUint()
		height := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if s.Listener != nil {
			s.Listener.Configure(serial, width, height)
		}
		return nil

	case surfaceClosed:
		if s.Listener != nil {
			s.Listener.Closed()
		}
		return nil

	default:
		return wire.UnknownOpError{Interface: SurfaceInterface, Type: "event", Op: msg.Op()}
	}
}

func (s *Surface) ID() uint32      { return s.id }
func (s *Surface) SetID(id uint32) { s.id = id }
func (s *Surface) Delete()         {}

func (s *Surface) MethodName(op uint16) string {
	switch op {
	case surfaceConfigure:
		return "configure"
	case surfaceClosed:
		return "closed"
	}
	return "unknown method"
}

func (s *Surface) String() string {
	return fmt.Sprintf("%v@%v", SurfaceInterface, s.id)
}
