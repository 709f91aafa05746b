package gpu

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrShaderMissing is returned when a shader file does not exist.
	ErrShaderMissing = errors.New("shader file missing")

	// ErrInvalidShader is returned when a shader file is not SPIR-V.
	ErrInvalidShader = errors.New("invalid SPIR-V")

	// ErrPhysicalDeviceNotFound is returned when the requested device
	// index is not one of the enumerated adapters.
	ErrPhysicalDeviceNotFound = errors.New("physical device not found")

	// ErrNoGraphicsQueue is returned when the selected device has no
	// queue that can render.
	ErrNoGraphicsQueue = errors.New("device has no graphics queue")

	// ErrPresentUnsupported is returned when the window has no way to
	// receive rendered images.
	ErrPresentUnsupported = errors.New("window does not support presentation")

	// ErrSwapchainOutOfDate is returned when the swapchain no longer
	// matches the window. The swapchain and everything built from its
	// images have to be recreated.
	ErrSwapchainOutOfDate = errors.New("swapchain out of date")

	errFenceTimeout = errors.New("timed out waiting for fence")
)

// SessionError is returned by the GPU session and everything that
// runs against it. Step names what was being done.
type SessionError struct {
	Step string
	Err  error
}

func (err *SessionError) Error() string {
	return fmt.Sprintf("gpu: %v: %v", err.Step, err.Err)
}

func (err *SessionError) Unwrap() error {
	return err.Err
}

// Cause returns the underlying error, for github.com/pkg/errors.
func (err *SessionError) Cause() error {
	return err.Err
}

func stepError(step string, err error) error {
	return &SessionError{Step: step, Err: err}
}
