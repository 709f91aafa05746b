package surface

import (
	"errors"
	"fmt"
)

// ErrMissingGlobal is returned when the compositor does not advertise
// a global that is required, or advertises too old a version of it.
var ErrMissingGlobal = errors.New("required global not advertised")

// ProtocolError is returned when talking to the compositor fails.
type ProtocolError struct {
	Op  string
	Err error
}

func (err ProtocolError) Error() string {
	return fmt.Sprintf("%v: %v", err.Op, err.Err)
}

func (err ProtocolError) Unwrap() error {
	return err.Err
}

// SizeMismatchError is returned when the compositor configures the
// surface with a size other than the one that was requested and the
// size policy does not allow that.
type SizeMismatchError struct {
	Width, Height               uint32
	GrantedWidth, GrantedHeight uint32
}

func (err SizeMismatchError) Error() string {
	return fmt.Sprintf(
		"compositor granted %vx%v, but %vx%v was requested",
		err.GrantedWidth, err.GrantedHeight,
		err.Width, err.Height,
	)
}
