// Package wl implements the client side of the core Wayland protocol
// objects that a layer-shell client needs.
package wl

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"deedles.dev/infolauncher/internal/debug"
	"deedles.dev/infolauncher/internal/ev"
	"deedles.dev/infolauncher/internal/objstore"
	"deedles.dev/infolauncher/wire"
)

// ErrDisconnected is returned once the compositor has closed the
// connection or it has failed.
var ErrDisconnected = errors.New("disconnected from compositor")

// Client is a connection to a compositor along with the state of all
// of the objects that live on it. Requests are queued and sent, and
// events are handled, only by the goroutine that calls Flush,
// Dispatch, or RoundTrip.
type Client struct {
	done  chan struct{}
	close sync.Once
	dead  chan struct{}
	err   error

	conn  *wire.Conn
	store *objstore.Store
	queue *ev.Queue
}

// Dial connects to the compositor indicated by the environment.
func Dial() (*Client, error) {
	c, err := wire.Dial()
	if err != nil {
		return nil, err
	}

	return NewClient(c), nil
}

// NewClient creates a Client that communicates over conn.
func NewClient(conn *wire.Conn) *Client {
	client := Client{
		done:  make(chan struct{}),
		dead:  make(chan struct{}),
		conn:  conn,
		store: objstore.New(1),
		queue: ev.NewQueue(),
	}
	client.Add(&Display{object: object{client: &client, version: DisplayVersion}})
	go client.listen()

	return &client
}

func (client *Client) listen() {
	for {
		msg, err := wire.ReadMessage(client.conn)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}

			err = fmt.Errorf("%w: %w", ErrDisconnected, err)
			select {
			case <-client.done:
			case client.queue.Add() <- func() error { return client.disconnect(err) }:
			}
			return
		}

		select {
		case <-client.done:
			return
		case client.queue.Add() <- func() error { return client.dispatch(msg) }:
		}
	}
}

func (client *Client) disconnect(err error) error {
	client.err = err
	close(client.dead)
	return err
}

func (client *Client) dispatch(msg *wire.MessageBuffer) error {
	obj, err := client.store.Dispatch(msg)
	if obj != nil {
		debug.Printf("%v", msg.Debug(obj))
	}

	var op wire.UnknownOpError
	if errors.As(err, &op) {
		debug.Printf("ignoring %v", op)
		return nil
	}
	return err
}

// Display returns the wl_display singleton.
func (client *Client) Display() *Display {
	return client.Get(1).(*Display)
}

// Close closes the connection. Queued requests that have not been
// flushed are discarded.
func (client *Client) Close() error {
	client.close.Do(func() { close(client.done) })
	client.queue.Stop()
	return client.conn.Close()
}

// Add inserts obj, assigning it a new ID.
func (client *Client) Add(obj wire.Object) {
	client.store.Add(obj)
}

func (client *Client) Get(id uint32) wire.Object {
	return client.store.Get(id)
}

func (client *Client) Delete(id uint32) {
	client.store.Delete(id)
}

// Enqueue queues msg to be sent the next time that the queue is
// flushed.
func (client *Client) Enqueue(msg *wire.MessageBuilder) {
	select {
	case <-client.done:
	case client.queue.Add() <- func() error {
		debug.Printf(" -> %v", msg)
		return msg.Build(client.conn)
	}:
	}
}

// Flush sends all enqueued requests and processes all events that
// have been received since the last time that the queue was flushed.
// It does not block.
func (client *Client) Flush() error {
	select {
	case queue := <-client.queue.Get():
		return queue.Flush()
	default:
		return nil
	}
}

// Dispatch is like Flush, but if there is nothing in the queue it
// blocks until either something arrives or ctx is canceled.
func (client *Client) Dispatch(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-client.done:
		return net.ErrClosed
	case <-client.dead:
		return client.err
	case queue := <-client.queue.Get():
		return queue.Flush()
	}
}

// RoundTrip sends a wl_display.sync request and processes the queue
// until the compositor has answered it, guaranteeing that every
// request sent before it has been handled by the compositor.
func (client *Client) RoundTrip() error {
	get := client.queue.Get()
	done := make(chan struct{})
	client.Display().Sync().Then(func(uint32) {
		close(done)
	})

	var errs []error

	for {
		select {
		case <-done:
			return errors.Join(errs...)

		case <-client.done:
			return net.ErrClosed

		case <-client.dead:
			err := errors.Join(errs...)
			if !errors.Is(err, ErrDisconnected) {
				err = errors.Join(err, client.err)
			}
			return err

		case queue := <-get:
			errs = append(errs, ev.Flush(queue)...)
		}
	}
}

type object struct {
	client  *Client
	id      uint32
	version uint32
}

func (obj *object) ID() uint32 {
	return obj.id
}

func (obj *object) SetID(id uint32) {
	obj.id = id
}

// Version returns the protocol version that the object was bound at.
func (obj *object) Version() uint32 {
	return obj.version
}

// Client returns the client that the object belongs to.
func (obj *object) Client() *Client {
	return obj.client
}
