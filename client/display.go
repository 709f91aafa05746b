package wl

import (
	"fmt"

	"deedles.dev/infolauncher/wire"
)

// DisplayError is a fatal protocol error reported by the compositor.
// The connection is unusable after one is received.
type DisplayError struct {
	ObjectID uint32
	Code     DisplayErrorCode
	Message  string
}

func (err DisplayError) Error() string {
	return fmt.Sprintf("display error on object %v: %v: %v", err.ObjectID, err.Code, err.Message)
}

type DisplayListener interface {
	Error(id, code uint32, msg string)
	DeleteId(id uint32)
}

// Display is the wl_display singleton, always object 1.
type Display struct {
	Listener DisplayListener
	object
}

func (display *Display) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case displayError:
		id := msg.ReadUint()
		code := msg.ReadUint()
		message := msg.ReadString()
		if err := msg.Err(); err != nil {
			return err
		}
		if display.Listener != nil {
			display.Listener.Error(id, code, message)
		}
		return DisplayError{ObjectID: id, Code: DisplayErrorCode(code), Message: message}

	case displayDeleteID:
		id := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		display.client.Delete(id)
		if display.Listener != nil {
			display.Listener.DeleteId(id)
		}
		return nil

	default:
		return wire.UnknownOpError{Interface: DisplayInterface, Type: "event", Op: msg.Op()}
	}
}

func (display *Display) Delete() {}

func (display *Display) MethodName(op uint16) string {
	switch op {
	case displayError:
		return "error"
	case displayDeleteID:
		return "delete_id"
	}
	return "unknown method"
}

func (display *Display) String() string {
	return fmt.Sprintf("%v@%v", DisplayInterface, display.id)
}

// Sync asks the compositor to fire the returned callback once it has
// handled every request sent before this one.
func (display *Display) Sync() *Callback {
	callback := Callback{object: object{client: display.client, version: CallbackVersion}}
	display.client.Add(&callback)

	msg := wire.NewMessage(display, displaySync)
	msg.Method = "sync"
	msg.Args = []any{callback.id}
	msg.WriteUint(callback.id)
	display.client.Enqueue(msg)

	return &callback
}

// GetRegistry creates a new registry object. The globals are
// advertised to it once the request reaches the compositor.
func (display *Display) GetRegistry() *Registry {
	registry := Registry{
		object:  object{client: display.client, version: RegistryVersion},
		globals: make(map[uint32]Global),
	}
	display.client.Add(&registry)

	msg := wire.NewMessage(display, displayGetRegistry)
	msg.Method = "get_registry"
	msg.Args = []any{registry.id}
	msg.WriteUint(registry.id)
	display.client.Enqueue(msg)

	return &registry
}
