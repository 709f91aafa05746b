// Package wltest runs a small in-process layer-shell compositor for
// tests. It records every request that it receives and lets the test
// inject events.
package wltest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	wlserver "deedles.dev/infolauncher/server"
	"deedles.dev/infolauncher/wire"
)

// Request is a request that the compositor received.
type Request struct {
	Interface string
	Method    string
	Object    uint32
	Args      []any
}

func (r Request) String() string {
	return fmt.Sprintf("%v@%v.%v%v", r.Interface, r.Object, r.Method, r.Args)
}

// Options configure a Compositor.
type Options struct {
	// Grant picks the size sent in the layer surface's configure
	// event. By default the requested size is granted.
	Grant func(width, height uint32) (uint32, uint32)

	// NoLayerShell leaves zwlr_layer_shell_v1 out of the globals.
	NoLayerShell bool

	// NoSeat leaves wl_seat out of the globals.
	NoSeat bool
}

type layerSurface struct {
	surface    *wlserver.Object
	width      uint32
	height     uint32
	configured bool
}

type surface struct {
	pending   *wlserver.Object
	current   *wlserver.Object
	callbacks []*wlserver.Object
	layer     *wlserver.Object
}

// Compositor is a running test compositor.
type Compositor struct {
	opts   Options
	server *wlserver.Server

	m        sync.Mutex
	requests []Request
	errs     []error

	// Only touched from the server goroutine.
	keyboards []*wlserver.Object
	layers    []*wlserver.Object
}

// Start starts a compositor listening on a socket in a temporary
// directory and points $WAYLAND_DISPLAY at it. It is stopped when the
// test ends.
func Start(t *testing.T, opts Options) *Compositor {
	t.Helper()

	path := filepath.Join(t.TempDir(), "wayland-test")
	lis, err := wire.ListenPath(path)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Setenv("WAYLAND_DISPLAY", path)
	t.Setenv("WAYLAND_SOCKET", "")
	os.Unsetenv("WAYLAND_SOCKET")

	c := Compositor{opts: opts}
	server, err := wlserver.NewServer(lis, &c)
	if err != nil {
		lis.Close()
		t.Fatalf("create server: %v", err)
	}
	c.server = server
	server.Errors = func(err error) {
		c.m.Lock()
		defer c.m.Unlock()
		c.errs = append(c.errs, err)
	}

	server.AddGlobal("wl_compositor", 4)
	server.AddGlobal("wl_shm", 1)
	if !opts.NoSeat {
		server.AddGlobal("wl_seat", 5)
	}
	if !opts.NoLayerShell {
		server.AddGlobal("zwlr_layer_shell_v1", 4)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		server.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		server.Close()
	})

	return &c
}

// Accepted returns the number of client connections so far.
func (c *Compositor) Accepted() int {
	return c.server.Accepted()
}

// Requests returns a copy of the requests received so far.
func (c *Compositor) Requests() []Request {
	c.m.Lock()
	defer c.m.Unlock()
	return slices.Clone(c.requests)
}

// Find returns the requests with the given interface and method.
func (c *Compositor) Find(inter, method string) []Request {
	var found []Request
	for _, r := range c.Requests() {
		if (r.Interface == inter) && (r.Method == method) {
			found = append(found, r)
		}
	}
	return found
}

// WaitFor waits until at least one matching request has arrived.
func (c *Compositor) WaitFor(t *testing.T, inter, method string) Request {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if found := c.Find(inter, method); len(found) > 0 {
			return found[0]
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %v.%v; got %v", inter, method, c.Requests())
	return Request{}
}

// Err returns the errors that the compositor has run into.
func (c *Compositor) Err() error {
	c.m.Lock()
	defer c.m.Unlock()
	return errors.Join(c.errs...)
}

// SendClosed sends zwlr_layer_surface_v1.closed to every layer surface.
func (c *Compositor) SendClosed() {
	c.server.Do(func() error {
		for _, obj := range c.layers {
			err := obj.Client().Send(obj, 1)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// SendKey sends a wl_keyboard.key event to every keyboard.
func (c *Compositor) SendKey(code, state uint32) {
	c.server.Do(func() error {
		for _, kb := range c.keyboards {
			client := kb.Client()
			err := client.Send(kb, 3, client.NextSerial(), uint32(0), code, state)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (c *Compositor) record(obj *wlserver.Object, method string, args ...any) {
	c.m.Lock()
	defer c.m.Unlock()
	c.requests = append(c.requests, Request{
		Interface: obj.Interface,
		Method:    method,
		Object:    obj.ID(),
		Args:      args,
	})
}

func (c *Compositor) Bind(client *wlserver.Client, obj *wlserver.Object) error {
	c.record(obj, "bind", obj.Version)

	switch obj.Interface {
	case "wl_shm":
		for _, format := range []uint32{0, 1} {
			err := client.Send(obj, 0, format)
			if err != nil {
				return err
			}
		}

	case "wl_seat":
		err := client.Send(obj, 0, uint32(2))
		if err != nil {
			return err
		}
		if obj.Version >= 2 {
			return client.Send(obj, 1, "seat0")
		}
	}

	return nil
}

func (c *Compositor) Request(client *wlserver.Client, obj *wlserver.Object, msg *wire.MessageBuffer) error {
	method := obj.MethodName(msg.Op())

	switch obj.Interface {
	case "wl_compositor":
		id := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		c.record(obj, method, id)
		s, err := client.NewObject(id, "wl_surface", obj.Version)
		if err != nil {
			return err
		}
		s.Data = &surface{}
		return nil

	case "wl_surface":
		return c.surfaceRequest(client, obj, method, msg)

	case "wl_shm":
		id := msg.ReadUint()
		file := msg.ReadFile()
		size := msg.ReadInt()
		if err := msg.Err(); err != nil {
			return err
		}
		file.Close()
		c.record(obj, method, id, size)
		_, err := client.NewObject(id, "wl_shm_pool", obj.Version)
		return err

	case "wl_shm_pool":
		switch method {
		case "create_buffer":
			id := msg.ReadUint()
			offset := msg.ReadInt()
			width := msg.ReadInt()
			height := msg.ReadInt()
			stride := msg.ReadInt()
			format := msg.ReadUint()
			if err := msg.Err(); err != nil {
				return err
			}
			c.record(obj, method, id, offset, width, height, stride, format)
			_, err := client.NewObject(id, "wl_buffer", 1)
			return err
		case "destroy":
			c.record(obj, method)
			return client.Destroy(obj)
		}
		c.record(obj, method)
		return nil

	case "wl_buffer":
		c.record(obj, method)
		return client.Destroy(obj)

	case "wl_seat":
		switch method {
		case "get_keyboard":
			id := msg.ReadUint()
			if err := msg.Err(); err != nil {
				return err
			}
			c.record(obj, method, id)
			kb, err := client.NewObject(id, "wl_keyboard", obj.Version)
			if err != nil {
				return err
			}
			c.keyboards = append(c.keyboards, kb)
			return nil
		case "release":
			c.record(obj, method)
			return client.Destroy(obj)
		}
		c.record(obj, method)
		return nil

	case "wl_keyboard":
		c.record(obj, method)
		c.keyboards = slices.DeleteFunc(c.keyboards, func(kb *wlserver.Object) bool { return kb == obj })
		return client.Destroy(obj)

	case "zwlr_layer_shell_v1":
		if method == "destroy" {
			c.record(obj, method)
			return client.Destroy(obj)
		}
		id := msg.ReadUint()
		sid := msg.ReadUint()
		output := msg.ReadUint()
		layer := msg.ReadUint()
		namespace := msg.ReadString()
		if err := msg.Err(); err != nil {
			return err
		}
		c.record(obj, method, id, sid, output, layer, namespace)

		s := client.Get(sid)
		if (s == nil) || (s.Interface != "wl_surface") {
			return fmt.Errorf("get_layer_surface: %v is not a surface", sid)
		}
		ls, err := client.NewObject(id, "zwlr_layer_surface_v1", obj.Version)
		if err != nil {
			return err
		}
		ls.Data = &layerSurface{surface: s}
		s.Data.(*surface).layer = ls
		c.layers = append(c.layers, ls)
		return nil

	case "zwlr_layer_surface_v1":
		return c.layerSurfaceRequest(client, obj, method, msg)
	}

	return fmt.Errorf("unexpected request %v.%v", obj, method)
}

func (c *Compositor) surfaceRequest(client *wlserver.Client, obj *wlserver.Object, method string, msg *wire.MessageBuffer) error {
	state := obj.Data.(*surface)

	switch method {
	case "attach":
		id := msg.ReadUint()
		x := msg.ReadInt()
		y := msg.ReadInt()
		if err := msg.Err(); err != nil {
			return err
		}
		c.record(obj, method, id, x, y)
		state.pending = client.Get(id)
		return nil

	case "damage":
		x, y := msg.ReadInt(), msg.ReadInt()
		w, h := msg.ReadInt(), msg.ReadInt()
		if err := msg.Err(); err != nil {
			return err
		}
		c.record(obj, method, x, y, w, h)
		return nil

	case "frame":
		id := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		c.record(obj, method, id)
		cb, err := client.NewObject(id, "wl_callback", 1)
		if err != nil {
			return err
		}
		state.callbacks = append(state.callbacks, cb)
		return nil

	case "commit":
		c.record(obj, method)
		return c.commit(client, state)

	case "destroy":
		c.record(obj, method)
		return client.Destroy(obj)
	}

	c.record(obj, method)
	return nil
}

func (c *Compositor) commit(client *wlserver.Client, state *surface) error {
	if state.layer != nil {
		ls := state.layer.Data.(*layerSurface)
		if !ls.configured {
			ls.configured = true
			w, h := ls.width, ls.height
			if c.opts.Grant != nil {
				w, h = c.opts.Grant(w, h)
			}
			return client.Send(state.layer, 0, client.NextSerial(), w, h)
		}
	}

	if (state.pending != nil) && (state.pending != state.current) {
		if state.current != nil {
			err := client.Send(state.current, 0)
			if err != nil {
				return err
			}
		}
		state.current = state.pending
	}

	callbacks := state.callbacks
	state.callbacks = nil
	for _, cb := range callbacks {
		err := client.Send(cb, 0, uint32(time.Now().UnixMilli()))
		if err != nil {
			return err
		}
		err = client.Destroy(cb)
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Compositor) layerSurfaceRequest(client *wlserver.Client, obj *wlserver.Object, method string, msg *wire.MessageBuffer) error {
	state := obj.Data.(*layerSurface)

	switch method {
	case "set_size":
		w, h := msg.ReadUint(), msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		c.record(obj, method, w, h)
		state.width, state.height = w, h
		return nil

	case "set_anchor", "set_keyboard_interactivity", "ack_configure", "set_layer":
		v := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		c.record(obj, method, v)
		return nil

	case "set_exclusive_zone":
		v := msg.ReadInt()
		if err := msg.Err(); err != nil {
			return err
		}
		c.record(obj, method, v)
		return nil

	case "set_margin":
		top, right := msg.ReadInt(), msg.ReadInt()
		bottom, left := msg.ReadInt(), msg.ReadInt()
		if err := msg.Err(); err != nil {
			return err
		}
		c.record(obj, method, top, right, bottom, left)
		return nil

	case "destroy":
		c.record(obj, method)
		c.layers = slices.DeleteFunc(c.layers, func(ls *wlserver.Object) bool { return ls == obj })
		if s := state.surface.Data.(*surface); s.layer == obj {
			s.layer = nil
		}
		return client.Destroy(obj)
	}

	return fmt.Errorf("unexpected request %v.%v", obj, method)
}
