package layer

import (
	"fmt"

	wl "deedles.dev/infolauncher/client"
	"deedles.dev/infolauncher/wire"
)

// Shell is the zwlr_layer_shell_v1 global.
type Shell struct {
	client  *wl.Client
	id      uint32
	version uint32
}

func BindShell(client *wl.Client, registry *wl.Registry, name, version uint32) *Shell {
	shell := Shell{client: client, version: version}
	registry.Bind(name, ShellInterface, version, &shell)
	return &shell
}

// GetLayerSurface assigns the layer surface role to surface. A nil
// output lets the compositor choose. The namespace identifies the
// purpose of the surface to the compositor.
func (shell *Shell) GetLayerSurface(surface *wl.Surface, output wire.Object, layer Layer, namespace string) *Surface {
	ls := Surface{client: shell.client, version: shell.version}
	shell.client.Add(&ls)

	msg := wire.NewMessage(shell, shellGetLayerSurface)
	msg.Method = "get_layer_surface"
	msg.Args = []any{ls.id, surface.ID(), output, layer, namespace}
	msg.WriteUint(ls.id)
	msg.WriteObject(surface)
	msg.WriteObject(output)
	msg.WriteUint(uint32(layer))
	msg.WriteString(namespace)
	shell.client.Enqueue(msg)

	return &ls
}

// Destroy destroys the shell object if the bound version supports it.
// Existing layer surfaces are unaffected.
func (shell *Shell) Destroy() {
	if shell.version < 3 {
		return
	}

	msg := wire.NewMessage(shell, shellDestroy)
	msg.Method = "destroy"
	shell.client.Enqueue(msg)
}

func (shell *Shell) Dispatch(msg *wire.MessageBuffer) error {
	return wire.UnknownOpError{Interface: ShellInterface, Type: "event", Op: msg.Op()}
}

func (shell *Shell) ID() uint32      { return shell.id }
func (shell *Shell) SetID(id uint32) { shell.id = id }
func (shell *Shell) Delete()         {}

func (shell *Shell) MethodName(op uint16) string {
	return "unknown method"
}

func (shell *Shell) String() string {
	return fmt.Sprintf("%v@%v", ShellInterface, shell.id)
}
