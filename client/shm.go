package wl

import (
	"fmt"
	"os"

	"deedles.dev/infolauncher/wire"
)

type ShmListener interface {
	Format(format ShmFormat)
}

type Shm struct {
	Listener ShmListener
	object
}

func BindShm(client *Client, registry *Registry, name, version uint32) *Shm {
	shm := Shm{object: object{client: client, version: version}}
	registry.Bind(name, ShmInterface, version, &shm)
	return &shm
}

// CreatePool creates a pool backed by the first size bytes of file.
func (shm *Shm) CreatePool(file *os.File, size int32) *ShmPool {
	pool := ShmPool{object: object{client: shm.client, version: shm.version}}
	shm.client.Add(&pool)

	msg := wire.NewMessage(shm, shmCreatePool)
	msg.Method = "create_pool"
	msg.Args = []any{pool.id, file, size}
	msg.WriteUint(pool.id)
	msg.WriteFile(file)
	msg.WriteInt(size)
	shm.client.Enqueue(msg)

	return &pool
}

func (shm *Shm) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case shmFormat:
		format := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if shm.Listener != nil {
			shm.Listener.Format(ShmFormat(format))
		}
		return nil

	default:
		return wire.UnknownOpError{Interface: ShmInterface, Type: "event", Op: msg.Op()}
	}
}

func (shm *Shm) Delete() {}

func (shm *Shm) MethodName(op uint16) string {
	if op == shmFormat {
		return "format"
	}
	return "unknown method"
}

func (shm *Shm) String() string {
	return fmt.Sprintf("%v@%v", ShmInterface, shm.id)
}

type ShmPool struct {
	object
}

func (pool *ShmPool) CreateBuffer(offset, width, height, stride int32, format ShmFormat) *Buffer {
	buf := Buffer{object: object{client: pool.client, version: BufferVersion}}
	pool.client.Add(&buf)

	msg := wire.NewMessage(pool, shmPoolCreateBuffer)
	msg.Method = "create_buffer"
	msg.Args = []any{buf.id, offset, width, height, stride, format}
	msg.WriteUint(buf.id)
	msg.WriteInt(offset)
	msg.WriteInt(width)
	msg.WriteInt(height)
	msg.WriteInt(stride)
	msg.WriteUint(uint32(format))
	pool.client.Enqueue(msg)

	return &buf
}

// Resize grows the pool. Pools can never shrink.
func (pool *ShmPool) Resize(size int32) {
	msg := wire.NewMessage(pool, shmPoolResize)
	msg.Method = "resize"
	msg.Args = []any{size}
	msg.WriteInt(size)
	pool.client.Enqueue(msg)
}

func (pool *ShmPool) Destroy() {
	msg := wire.NewMessage(pool, shmPoolDestroy)
	msg.Method = "destroy"
	pool.client.Enqueue(msg)
}

func (pool *ShmPool) Dispatch(msg *wire.MessageBuffer) error {
	return wire.UnknownOpError{Interface: ShmPoolInterface, Type: "event", Op: msg.Op()}
}

func (pool *ShmPool) Delete() {}

func (pool *ShmPool) MethodName(op uint16) string {
	return "unknown method"
}

func (pool *ShmPool) String() string {
	return fmt.Sprintf("%v@%v", ShmPoolInterface, pool.id)
}

type BufferListener interface {
	Release()
}

type Buffer struct {
	Listener BufferListener
	object
}

func (buf *Buffer) Destroy() {
	msg := wire.NewMessage(buf, bufferDestroy)
	msg.Method = "destroy"
	buf.client.Enqueue(msg)
}

func (buf *Buffer) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case bufferRelease:
		if buf.Listener != nil {
			buf.Listener.Release()
		}
		return nil

	default:
		return wire.UnknownOpError{Interface: BufferInterface, Type: "event", Op: msg.Op()}
	}
}

func (buf *Buffer) Delete() {}

func (buf *Buffer) MethodName(op uint16) string {
	if op == bufferRelease {
		return "release"
	}
	return "unknown method"
}

func (buf *Buffer) String() string {
	return fmt.Sprintf("%v@%v", BufferInterface, buf.id)
}
