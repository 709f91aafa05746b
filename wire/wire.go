// Package wire defines types helpful for dealing with the Wayland
// wire protocol. It is primarly intended for usage by the protocol
// object packages.
package wire

import (
	"errors"
	"io"
	"net"

	"golang.org/x/sys/unix"
)

// Object represents a Wayland protocol object.
type Object interface {
	// Dispatch pertforms the operation requested by the message in the
	// buffer.
	Dispatch(msg *MessageBuffer) error

	// ID returns the object's ID, or 0 if it has not been assigned one
	// yet.
	ID() uint32

	// SetID assigns the object's ID.
	SetID(id uint32)

	// Delete is called when the object is removed from its store.
	Delete()

	// MethodName returns the name of the method with the given opcode
	// as seen from the side of the connection that receives it.
	MethodName(op uint16) string
}

// NewID is an untyped new_id argument. It carries the interface and
// version along with the ID itself.
type NewID struct {
	Interface string
	Version   uint32
	ID        uint32
}

func padding(length uint32) uint32 {
	return (4 - (length % 4)) % 4
}

// unixTee reads from c, but also reads out-of-band data
// simultaneously, writing it into oob.
type unixTee struct {
	c   *net.UnixConn
	oob io.Writer
}

func (t unixTee) Read(buf []byte) (int, error) {
	oob := make([]byte, unix.CmsgSpace(maxFDs*4))
	n, oobn, _, _, err := t.c.ReadMsgUnix(buf, oob)
	_, ooberr := t.oob.Write(oob[:oobn])
	if (n == 0) && (err == nil) {
		err = io.EOF
	}
	if ooberr != nil {
		return n, errors.Join(err, ooberr)
	}
	return n, err
}
