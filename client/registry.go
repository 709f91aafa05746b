package wl

import (
	"fmt"

	"deedles.dev/infolauncher/wire"
	"golang.org/x/exp/maps"
)

// Global is a global object advertised by the compositor.
type Global struct {
	Name      uint32
	Interface string
	Version   uint32
}

type RegistryListener interface {
	Global(name uint32, inter string, version uint32)
	GlobalRemove(name uint32)
}

// Registry tracks the globals that the compositor has advertised.
type Registry struct {
	Listener RegistryListener
	object

	globals map[uint32]Global
}

// Globals returns a copy of the currently advertised globals, keyed
// by name.
func (registry *Registry) Globals() map[uint32]Global {
	return maps.Clone(registry.globals)
}

// Find returns the first advertised global implementing inter.
func (registry *Registry) Find(inter string) (Global, bool) {
	var found Global
	for _, g := range registry.globals {
		if g.Interface != inter {
			continue
		}
		if (found.Interface == "") || (g.Name < found.Name) {
			found = g
		}
	}
	return found, found.Interface != ""
}

// Bind binds the global with the given name to obj, which must not
// have been added to the client yet.
func (registry *Registry) Bind(name uint32, inter string, version uint32, obj wire.Object) {
	registry.client.Add(obj)

	msg := wire.NewMessage(registry, registryBind)
	msg.Method = "bind"
	msg.Args = []any{name, inter, version, obj.ID()}
	msg.WriteUint(name)
	msg.WriteNewID(wire.NewID{Interface: inter, Version: version, ID: obj.ID()})
	registry.client.Enqueue(msg)
}

func (registry *Registry) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case registryGlobal:
		name := msg.ReadUint()
		inter := msg.ReadString()
		version := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		registry.globals[name] = Global{Name: name, Interface: inter, Version: version}
		if registry.Listener != nil {
			registry.Listener.Global(name, inter, version)
		}
		return nil

	case registryGlobalRemove:
		name := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		delete(registry.globals, name)
		if registry.Listener != nil {
			registry.Listener.GlobalRemove(name)
		}
		return nil

	default:
		return wire.UnknownOpError{Interface: RegistryInterface, Type: "event", Op: msg.Op()}
	}
}

func (registry *Registry) Delete() {}

func (registry *Registry) MethodName(op uint16) string {
	switch op {
	case registryGlobal:
		return "global"
	case registryGlobalRemove:
		return "global_remove"
	}
	return "unknown method"
}

func (registry *Registry) String() string {
	return fmt.Sprintf("%v@%v", RegistryInterface, registry.id)
}
