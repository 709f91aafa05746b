// Package shutdown coordinates an orderly exit between the parts of
// the program that can ask for one and the loop that carries it out.
package shutdown

import (
	"fmt"
	"sync"
)

// Status is the state of a Token. It only ever moves forward.
type Status int

const (
	Running Status = iota
	Closing
)

func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case Closing:
		return "closing"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Token is shared by everything that may request a shutdown. The zero
// value is not usable; use NewToken.
type Token struct {
	m      sync.Mutex
	status Status
	done   chan struct{}
}

func NewToken() *Token {
	return &Token{done: make(chan struct{})}
}

// Status returns the current status.
func (t *Token) Status() Status {
	t.m.Lock()
	defer t.m.Unlock()
	return t.status
}

// Close moves the token to Closing. It reports whether this call was
// the one that did so.
func (t *Token) Close() bool {
	t.m.Lock()
	defer t.m.Unlock()

	if t.status == Closing {
		return false
	}
	t.status = Closing
	close(t.done)
	return true
}

// Closing reports whether Close has been called.
func (t *Token) Closing() bool {
	return t.Status() == Closing
}

// Done returns a channel that is closed when the token moves to
// Closing.
func (t *Token) Done() <-chan struct{} {
	return t.done
}
