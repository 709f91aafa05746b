// Package wl implements the compositor side of a Wayland connection.
// It handles wl_display and wl_registry itself and passes every other
// request to a Handler, which makes it suitable for small special
// purpose compositors such as the ones used in tests.
package wl

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"deedles.dev/infolauncher/internal/ev"
	"deedles.dev/infolauncher/internal/set"
	"deedles.dev/infolauncher/protocol"
	"deedles.dev/infolauncher/wire"
)

// Handler implements the behavior of every global other than
// wl_display and wl_registry. Its methods are only ever called from
// the goroutine running Server.Run.
type Handler interface {
	// Bind is called when a client binds a global. obj has already
	// been registered.
	Bind(client *Client, obj *Object) error

	// Request is called for every request sent to an object that
	// isn't a wl_display or wl_registry.
	Request(client *Client, obj *Object, msg *wire.MessageBuffer) error
}

// Global is a global that the server advertises.
type Global struct {
	Name      uint32
	Interface string
	Version   uint32
}

type Server struct {
	done    chan struct{}
	close   sync.Once
	lis     *net.UnixListener
	handler Handler
	queue   *ev.Queue

	interfaces map[string]protocol.Interface
	globals    []Global
	clients    set.Set[*Client]
	accepted   atomic.Int32

	// Errors, if not nil, is called with every error that the
	// server encounters. It is called from the goroutine running Run.
	Errors func(error)
}

// ListenAndServe listens on a new socket in $XDG_RUNTIME_DIR.
func ListenAndServe(handler Handler) (*Server, error) {
	lis, err := wire.Listen()
	if err != nil {
		return nil, err
	}
	return NewServer(lis, handler)
}

// NewServer creates a server that accepts clients from lis. Run must
// be called for anything to actually be handled.
func NewServer(lis *net.UnixListener, handler Handler) (*Server, error) {
	server := Server{
		done:       make(chan struct{}),
		lis:        lis,
		handler:    handler,
		queue:      ev.NewQueue(),
		interfaces: make(map[string]protocol.Interface),
		clients:    make(set.Set[*Client]),
	}

	for _, name := range protocol.Names() {
		proto, err := protocol.Load(name)
		if err != nil {
			return nil, err
		}
		for _, i := range proto.Interfaces {
			server.interfaces[i.Name] = i
		}
	}

	go server.listen()

	return &server, nil
}

// AddGlobal advertises a global to clients that connect after it is
// added. It must be called before Run.
func (server *Server) AddGlobal(inter string, version uint32) Global {
	g := Global{
		Name:      uint32(len(server.globals) + 1),
		Interface: inter,
		Version:   version,
	}
	server.globals = append(server.globals, g)
	return g
}

// Accepted returns the number of connections that have been accepted
// so far. It is safe to call from any goroutine.
func (server *Server) Accepted() int {
	return int(server.accepted.Load())
}

func (server *Server) listen() {
	for {
		c, err := server.lis.AcceptUnix()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}

			select {
			case <-server.done:
				return
			case server.queue.Add() <- func() error { return fmt.Errorf("accept: %w", err) }:
				continue
			}
		}
		server.accepted.Add(1)

		select {
		case <-server.done:
			c.Close()
			return
		case server.queue.Add() <- func() error { server.addClient(c); return nil }:
		}
	}
}

func (server *Server) addClient(c *net.UnixConn) {
	server.clients.Add(newClient(server, wire.NewConn(c)))
}

func (server *Server) removeClient(client *Client) {
	server.clients.Delete(client)
}

// Do runs f on the goroutine that is running Run.
func (server *Server) Do(f func() error) {
	select {
	case <-server.done:
	case server.queue.Add() <- f:
	}
}

// Run handles connections and requests until ctx is canceled or the
// server is closed.
func (server *Server) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-server.done:
			return net.ErrClosed
		case queue := <-server.queue.Get():
			for _, err := range ev.Flush(queue) {
				if server.Errors != nil {
					server.Errors(err)
				}
			}
		}
	}
}

// Close stops accepting connections and disconnects every client.
func (server *Server) Close() error {
	server.close.Do(func() { close(server.done) })
	server.queue.Stop()

	errs := []error{server.lis.Close()}
	for client := range server.clients {
		errs = append(errs, client.Close())
	}
	return errors.Join(errs...)
}
