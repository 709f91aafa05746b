package wl

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"

	"deedles.dev/infolauncher/internal/debug"
	"deedles.dev/infolauncher/internal/objstore"
	"deedles.dev/infolauncher/wire"
)

// Request opcodes of wl_display and wl_registry.
const (
	displaySync        = 0
	displayGetRegistry = 1
	registryBind       = 0
)

// Event opcodes of wl_display, wl_registry, and wl_callback.
const (
	displayError    = 0
	displayDeleteID = 1
	registryGlobal  = 0
	callbackDone    = 0
)

// DisplayErrorImplementation is the wl_display error code used for
// errors returned by a Handler.
const DisplayErrorImplementation = 3

// Client is a connected client.
type Client struct {
	server *Server
	done   chan struct{}
	close  sync.Once
	conn   *wire.Conn
	store  *objstore.Store
	serial uint32
}

func newClient(server *Server, conn *wire.Conn) *Client {
	client := Client{
		server: server,
		done:   make(chan struct{}),
		conn:   conn,
		store:  objstore.New(0xFF000000),
	}

	client.store.Set(1, &Object{Interface: "wl_display", Version: 1, client: &client})

	go client.listen()

	return &client
}

func (client *Client) listen() {
	defer client.server.Do(func() error {
		client.server.removeClient(client)
		return nil
	})

	for {
		msg, err := wire.ReadMessage(client.conn)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return
			}

			client.server.Do(func() error { return err })
			return
		}

		select {
		case <-client.done:
			return
		case client.server.queue.Add() <- func() error { return client.dispatch(msg) }:
		}
	}
}

func (client *Client) dispatch(msg *wire.MessageBuffer) error {
	obj, err := client.store.Dispatch(msg)
	if obj != nil {
		debug.Printf("server: %v", msg.Debug(obj))
	}
	if err == nil {
		return nil
	}

	var target wire.Object = obj
	if obj == nil {
		target = client.Display()
	}
	client.PostError(target, DisplayErrorImplementation, err.Error())
	return err
}

// Close disconnects the client.
func (client *Client) Close() error {
	var err error
	client.close.Do(func() {
		close(client.done)
		err = client.conn.Close()
	})
	return err
}

// Display returns the client's wl_display object.
func (client *Client) Display() *Object {
	return client.store.Get(1).(*Object)
}

// Get returns the object with the given ID, or nil.
func (client *Client) Get(id uint32) *Object {
	obj, _ := client.store.Get(id).(*Object)
	return obj
}

// NewObject registers an object with an ID that the client chose.
func (client *Client) NewObject(id uint32, inter string, version uint32) (*Object, error) {
	obj := Object{Interface: inter, Version: version, client: client}
	err := client.store.Set(id, &obj)
	if err != nil {
		return nil, err
	}
	return &obj, nil
}

// Destroy removes obj and tells the client that its ID can be reused.
func (client *Client) Destroy(obj *Object) error {
	id := obj.ID()
	client.store.Delete(id)
	return client.Send(client.Display(), displayDeleteID, id)
}

// NextSerial returns a new event serial.
func (client *Client) NextSerial() uint32 {
	client.serial++
	return client.serial
}

// Send sends an event from sender. Arguments are encoded according
// to their Go type: uint32, int32, wire.Fixed, string, []byte,
// *os.File, wire.Object, or nil for a null object.
func (client *Client) Send(sender wire.Object, op uint16, args ...any) error {
	msg := wire.NewMessage(sender, op)
	msg.Args = args
	for _, arg := range args {
		switch arg := arg.(type) {
		case uint32:
			msg.WriteUint(arg)
		case int32:
			msg.WriteInt(arg)
		case wire.Fixed:
			msg.WriteFixed(arg)
		case string:
			msg.WriteString(arg)
		case []byte:
			msg.WriteArray(arg)
		case *os.File:
			msg.WriteFile(arg)
		case wire.Object:
			msg.WriteObject(arg)
		case nil:
			msg.WriteUint(0)
		default:
			return fmt.Errorf("unsupported argument type %T", arg)
		}
	}

	debug.Printf("server: -> %v", msg)
	return msg.Build(client.conn)
}

// PostError sends a fatal protocol error to the client.
func (client *Client) PostError(obj wire.Object, code uint32, message string) error {
	return client.Send(client.Display(), displayError, obj, code, message)
}

func (client *Client) request(obj *Object, msg *wire.MessageBuffer) error {
	switch obj.Interface {
	case "wl_display":
		return client.displayRequest(msg)
	case "wl_registry":
		return client.registryRequest(obj, msg)
	default:
		return client.server.handler.Request(client, obj, msg)
	}
}

func (client *Client) displayRequest(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case displaySync:
		id := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		callback := Object{Interface: "wl_callback", Version: 1, id: id}
		err := client.Send(&callback, callbackDone, client.NextSerial())
		if err != nil {
			return err
		}
		return client.Send(client.Display(), displayDeleteID, id)

	case displayGetRegistry:
		id := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		registry, err := client.NewObject(id, "wl_registry", 1)
		if err != nil {
			return err
		}
		for _, g := range client.server.globals {
			err := client.Send(registry, registryGlobal, g.Name, g.Interface, g.Version)
			if err != nil {
				return err
			}
		}
		return nil

	default:
		return wire.UnknownOpError{Interface: "wl_display", Type: "request", Op: msg.Op()}
	}
}

func (client *Client) registryRequest(registry *Object, msg *wire.MessageBuffer) error {
	if msg.Op() != registryBind {
		return wire.UnknownOpError{Interface: "wl_registry", Type: "request", Op: msg.Op()}
	}

	name := msg.ReadUint()
	id := msg.ReadNewID()
	if err := msg.Err(); err != nil {
		return err
	}

	if (name == 0) || (int(name) > len(client.server.globals)) {
		return fmt.Errorf("no global named %v", name)
	}
	g := client.server.globals[name-1]
	if g.Interface != id.Interface {
		return fmt.Errorf("global %v is %v, not %v", name, g.Interface, id.Interface)
	}
	if id.Version > g.Version {
		return fmt.Errorf("%v version %v is higher than advertised version %v", g.Interface, id.Version, g.Version)
	}

	obj, err := client.NewObject(id.ID, id.Interface, id.Version)
	if err != nil {
		return err
	}
	return client.server.handler.Bind(client, obj)
}

// Object is a protocol object that a client has created.
type Object struct {
	Interface string
	Version   uint32

	// Data is available for the Handler's use.
	Data any

	client *Client
	id     uint32
}

func (obj *Object) Dispatch(msg *wire.MessageBuffer) error {
	return obj.client.request(obj, msg)
}

func (obj *Object) ID() uint32      { return obj.id }
func (obj *Object) SetID(id uint32) { obj.id = id }
func (obj *Object) Delete()         {}

// Client returns the client that owns the object.
func (obj *Object) Client() *Client { return obj.client }

func (obj *Object) MethodName(op uint16) string {
	if obj.client == nil {
		return "unknown method"
	}
	i, ok := obj.client.server.interfaces[obj.Interface]
	if !ok || (int(op) >= len(i.Requests)) {
		return "unknown method"
	}
	return i.Requests[op].Name
}

func (obj *Object) String() string {
	return fmt.Sprintf("%v@%v", obj.Interface, obj.id)
}
