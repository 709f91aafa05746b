package gpu

import (
	wl "deedles.dev/infolauncher/client"
)

// Window is the compositor surface that a Session presents to.
type Window interface {
	Client() *wl.Client
	WlSurface() *wl.Surface
	Shm() *wl.Shm
	ShmFormats() []wl.ShmFormat
	Size() (width, height uint32)
}
