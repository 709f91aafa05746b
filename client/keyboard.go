package wl

import (
	"fmt"
	"os"

	"deedles.dev/infolauncher/wire"
)

type KeyboardListener interface {
	Keymap(format KeyboardKeymapFormat, fd *os.File, size uint32)
	Enter(serial uint32, surface *Surface, keys []byte)
	Leave(serial uint32, surface *Surface)
	Key(serial, time, key uint32, state KeyboardKeyState)
	Modifiers(serial, depressed, latched, locked, group uint32)
	RepeatInfo(rate, delay int32)
}

type Keyboard struct {
	Listener KeyboardListener
	object
}

// Release destroys the keyboard if the bound version supports it.
func (kb *Keyboard) Release() {
	if kb.version < 3 {
		return
	}

	msg := wire.NewMessage(kb, keyboardRelease)
	msg.Method = "release"
	kb.client.Enqueue(msg)
}

func (kb *Keyboard) surface(id uint32) *Surface {
	s, _ := kb.client.Get(id).(*Surface)
	return s
}

func (kb *Keyboard) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case keyboardKeymap:
		format := msg.ReadUint()
		fd := msg.ReadFile()
		size := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if kb.Listener == nil {
			return fd.Close()
		}
		kb.Listener.Keymap(KeyboardKeymapFormat(format), fd, size)
		return nil

	case keyboardEnter:
		serial := msg.ReadUint()
		surface := msg.ReadUint()
		keys := msg.ReadArray()
		if err := msg.Err(); err != nil {
			return err
		}
		if kb.Listener != nil {
			kb.Listener.Enter(serial, kb.surface(surface), keys)
		}
		return nil

	case keyboardLeave:
		serial := msg.ReadUint()
		surface := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if kb.Listener != nil {
			kb.Listener.Leave(serial, kb.surface(surface))
		}
		return nil

	case keyboardKey:
		serial := msg.ReadUint()
		time := msg.ReadUint()
		key := msg.ReadUint()
		state := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if kb.Listener != nil {
			kb.Listener.Key(serial, time, key, KeyboardKeyState(state))
		}
		return nil

	case keyboardModifiers:
		serial := msg.ReadUint()
		depressed := msg.ReadUint()
		latched := msg.ReadUint()
		locked := msg.ReadUint()
		group := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if kb.Listener != nil {
			kb.Listener.Modifiers(serial, depressed, latched, locked, group)
		}
		return nil

	case keyboardRepeatInfo:
		rate := msg.ReadInt()
		delay := msg.ReadInt()
		if err := msg.Err(); err != nil {
			return err
		}
		if kb.Listener != nil {
			kb.Listener.RepeatInfo(rate, delay)
		}
		return nil

	default:
		return wire.UnknownOpError{Interface: KeyboardInterface, Type: "event", Op: msg.Op()}
	}
}

func (kb *Keyboard) Delete() {}

func (kb *Keyboard) MethodName(op uint16) string {
	switch op {
	case keyboardKeymap:
		return "keymap"
	case keyboardEnter:
		return "enter"
	case keyboardLeave:
		return "leave"
	case keyboardKey:
		return "key"
	case keyboardModifiers:
		return "modifiers"
	case keyboardRepeatInfo:
		return "repeat_info"
	}
	return "unknown method"
}

func (kb *Keyboard) String() string {
	return fmt.Sprintf("%v@%v", KeyboardInterface, kb.id)
}
