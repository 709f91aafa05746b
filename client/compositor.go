package wl

import (
	"fmt"

	"deedles.dev/infolauncher/wire"
)

type Compositor struct {
	object
}

func BindCompositor(client *Client, registry *Registry, name, version uint32) *Compositor {
	compositor := Compositor{object: object{client: client, version: version}}
	registry.Bind(name, CompositorInterface, version, &compositor)
	return &compositor
}

// CreateSurface creates a new, empty surface.
func (c *Compositor) CreateSurface() *Surface {
	s := Surface{object: object{client: c.client, version: c.version}}
	c.client.Add(&s)

	msg := wire.NewMessage(c, compositorCreateSurface)
	msg.Method = "create_surface"
	msg.Args = []any{s.id}
	msg.WriteUint(s.id)
	c.client.Enqueue(msg)

	return &s
}

func (c *Compositor) Dispatch(msg *wire.MessageBuffer) error {
	return wire.UnknownOpError{Interface: CompositorInterface, Type: "event", Op: msg.Op()}
}

func (c *Compositor) Delete() {}

func (c *Compositor) MethodName(op uint16) string {
	return "unknown method"
}

func (c *Compositor) String() string {
	return fmt.Sprintf("%v@%v", CompositorInterface, c.id)
}
