package wl

import (
	"fmt"

	"deedles.dev/infolauncher/wire"
)

type SeatListener interface {
	Capabilities(capabilities SeatCapability)
	Name(name string)
}

type Seat struct {
	Listener SeatListener
	object
}

func BindSeat(client *Client, registry *Registry, name, version uint32) *Seat {
	seat := Seat{object: object{client: client, version: version}}
	registry.Bind(name, SeatInterface, version, &seat)
	return &seat
}

// GetKeyboard creates the keyboard object for the seat. The seat must
// have advertised the keyboard capability.
func (seat *Seat) GetKeyboard() *Keyboard {
	kb := Keyboard{object: object{client: seat.client, version: seat.version}}
	seat.client.Add(&kb)

	msg := wire.NewMessage(seat, seatGetKeyboard)
	msg.Method = "get_keyboard"
	msg.Args = []any{kb.id}
	msg.WriteUint(kb.id)
	seat.client.Enqueue(msg)

	return &kb
}

// Release destroys the seat if the bound version supports it.
func (seat *Seat) Release() {
	if seat.version < 5 {
		return
	}

	msg := wire.NewMessage(seat, seatRelease)
	msg.Method = "release"
	seat.client.Enqueue(msg)
}

func (seat *Seat) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case seatCapabilities:
		capabilities := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if seat.Listener != nil {
			seat.Listener.Capabilities(SeatCapability(capabilities))
		}
		return nil

	case seatName:
		name := msg.ReadString()
		if err := msg.Err(); err != nil {
			return err
		}
		if seat.Listener != nil {
			seat.Listener.Name(name)
		}
		return nil

	default:
		return wire.UnknownOpError{Interface: SeatInterface, Type: "event", Op: msg.Op()}
	}
}

func (seat *Seat) Delete() {}

func (seat *Seat) MethodName(op uint16) string {
	switch op {
	case seatCapabilities:
		return "capabilities"
	case seatName:
		return "name"
	}
	return "unknown method"
}

func (seat *Seat) String() string {
	return fmt.Sprintf("%v@%v", SeatInterface, seat.id)
}
