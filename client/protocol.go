package wl

import "fmt"

//go:generate go run ../cmd/wlgen -proto wayland -pkg wl -prefix wl_ -interfaces wl_display,wl_registry,wl_callback,wl_compositor,wl_shm_pool,wl_shm,wl_buffer,wl_surface,wl_seat,wl_keyboard -out protocol_gen.go

// The highest version of each interface that this package implements.
const (
	DisplayVersion    = 1
	RegistryVersion   = 1
	CallbackVersion   = 1
	CompositorVersion = 4
	SurfaceVersion    = 4
	SeatVersion       = 5
	KeyboardVersion   = 5
	ShmVersion        = 1
	ShmPoolVersion    = 1
	BufferVersion     = 1
)

type DisplayErrorCode uint32

const (
	DisplayErrorInvalidObject DisplayErrorCode = iota
	DisplayErrorInvalidMethod
	DisplayErrorNoMemory
	DisplayErrorImplementation
)

func (code DisplayErrorCode) String() string {
	switch code {
	case DisplayErrorInvalidObject:
		return "invalid_object"
	case DisplayErrorInvalidMethod:
		return "invalid_method"
	case DisplayErrorNoMemory:
		return "no_memory"
	case DisplayErrorImplementation:
		return "implementation"
	default:
		return fmt.Sprintf("DisplayErrorCode(%d)", uint32(code))
	}
}

type SeatCapability uint32

const (
	SeatCapabilityPointer  SeatCapability = 1
	SeatCapabilityKeyboard SeatCapability = 2
	SeatCapabilityTouch    SeatCapability = 4
)

// Has reports whether all of the capabilities in c2 are in c.
func (c SeatCapability) Has(c2 SeatCapability) bool {
	return c&c2 == c2
}

type KeyboardKeymapFormat uint32

const (
	KeyboardKeymapFormatNoKeymap KeyboardKeymapFormat = iota
	KeyboardKeymapFormatXkbV1
)

type KeyboardKeyState uint32

const (
	KeyboardKeyStateReleased KeyboardKeyState = iota
	KeyboardKeyStatePressed
)

func (s KeyboardKeyState) String() string {
	switch s {
	case KeyboardKeyStateReleased:
		return "released"
	case KeyboardKeyStatePressed:
		return "pressed"
	default:
		return fmt.Sprintf("KeyboardKeyState(%d)", uint32(s))
	}
}

// ShmFormat is a pixel format. Apart from the first two, the values
// are DRM fourcc codes.
type ShmFormat uint32

const (
	ShmFormatArgb8888 ShmFormat = 0
	ShmFormatXrgb8888 ShmFormat = 1
	ShmFormatAbgr8888 ShmFormat = 0x34324241
	ShmFormatXbgr8888 ShmFormat = 0x34324258
)

func (f ShmFormat) String() string {
	switch f {
	case ShmFormatArgb8888:
		return "argb8888"
	case ShmFormatXrgb8888:
		return "xrgb8888"
	case ShmFormatAbgr8888:
		return "abgr8888"
	case ShmFormatXbgr8888:
		return "xbgr8888"
	default:
		return fmt.Sprintf("ShmFormat(%#x)", uint32(f))
	}
}
