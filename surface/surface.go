// Package surface negotiates a single layer-shell surface with the
// compositor and keeps the connection that it lives on.
package surface

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	wl "deedles.dev/infolauncher/client"
	"deedles.dev/infolauncher/key"
	"deedles.dev/infolauncher/layer"
	"deedles.dev/infolauncher/shutdown"
	"github.com/charmbracelet/log"
)

// Versions that globals are bound at.
const (
	compositorVersion = 1
	shellVersion      = 1
	seatVersion       = 1
	shmVersion        = 1
)

// Listener receives input and lifecycle notifications for the
// surface. Its methods are called from whichever goroutine calls
// Dispatch.
type Listener interface {
	Configure(width, height uint32)
	Key(code key.Code, state key.State)
	Closed()
}

type Config struct {
	Width, Height         uint32
	MarginTop, MarginLeft int32

	// Namespace defaults to "infolauncher".
	Namespace string

	Layer layer.Layer

	// LenientSize causes whatever size the compositor configures the
	// surface with to be adopted instead of failing.
	LenientSize bool

	Listener Listener
	Logger   *log.Logger
}

// DefaultConfig returns the configuration that the launcher is
// spawned with when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Width:     500,
		Height:    500,
		MarginTop: 100,
		Namespace: "infolauncher",
		Layer:     layer.LayerTop,
	}
}

// Surface is a configured layer surface along with the connection
// that it was created on.
type Surface struct {
	config Config
	logger *log.Logger
	token  *shutdown.Token

	client     *wl.Client
	registry   *wl.Registry
	compositor *wl.Compositor
	shell      *layer.Shell
	seat       *wl.Seat
	keyboard   *wl.Keyboard
	shm        *wl.Shm
	formats    []wl.ShmFormat

	surface *wl.Surface
	layer   *layer.Surface

	width, height uint32
	configured    bool
	err           error
}

// Spawn connects to the compositor, creates a layer surface, and
// waits for the compositor to configure it. If the compositor closes
// the surface at any point after this, token is closed.
func Spawn(ctx context.Context, config Config, token *shutdown.Token) (s *Surface, err error) {
	if config.Namespace == "" {
		config.Namespace = "infolauncher"
	}
	if config.Logger == nil {
		config.Logger = log.Default()
	}

	client, err := wl.Dial()
	if err != nil {
		return nil, ProtocolError{Op: "connect", Err: err}
	}
	stop := context.AfterFunc(ctx, func() { client.Close() })
	defer func() {
		if !stop() && (err == nil) {
			err = ctx.Err()
		}
		if err != nil {
			if (ctx.Err() != nil) && !errors.Is(err, ctx.Err()) {
				err = errors.Join(ctx.Err(), err)
			}
			client.Close()
			s = nil
		}
	}()

	s = &Surface{
		config: config,
		logger: config.Logger.WithPrefix("surface"),
		token:  token,
		client: client,
	}

	s.registry = client.Display().GetRegistry()
	err = s.roundTrip("get globals")
	if err != nil {
		return nil, err
	}

	err = s.bind()
	if err != nil {
		return nil, err
	}

	s.surface = s.compositor.CreateSurface()
	s.layer = s.shell.GetLayerSurface(s.surface, nil, config.Layer, config.Namespace)
	s.layer.Listener = (*layerListener)(s)
	s.layer.SetSize(config.Width, config.Height)
	s.layer.SetAnchor(layer.AnchorTop)
	s.layer.SetMargin(config.MarginTop, 0, 0, config.MarginLeft)
	s.layer.SetKeyboardInteractivity(layer.KeyboardInteractivityExclusive)

	err = s.roundTrip("configure")
	if err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}

	s.surface.Commit()
	err = s.roundTrip("commit")
	if err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	if !s.configured {
		return nil, ProtocolError{Op: "configure", Err: errors.New("compositor did not configure the surface")}
	}

	s.logger.Info("surface configured", "width", s.width, "height", s.height, "formats", s.formats)
	return s, nil
}

func (s *Surface) roundTrip(op string) error {
	err := s.client.RoundTrip()
	if err != nil {
		return ProtocolError{Op: op, Err: err}
	}
	return nil
}

func (s *Surface) bind() error {
	compositor, ok := s.registry.Find(wl.CompositorInterface)
	if !ok || (compositor.Version < compositorVersion) {
		return fmt.Errorf("%w: %v", ErrMissingGlobal, wl.CompositorInterface)
	}
	shell, ok := s.registry.Find(layer.ShellInterface)
	if !ok || (shell.Version < shellVersion) {
		return fmt.Errorf("%w: %v", ErrMissingGlobal, layer.ShellInterface)
	}

	s.compositor = wl.BindCompositor(s.client, s.registry, compositor.Name, compositorVersion)
	s.shell = layer.BindShell(s.client, s.registry, shell.Name, shellVersion)

	if g, ok := s.registry.Find(wl.SeatInterface); ok && (g.Version >= seatVersion) {
		s.seat = wl.BindSeat(s.client, s.registry, g.Name, seatVersion)
		s.seat.Listener = (*seatListener)(s)
	} else {
		s.logger.Warn("no seat; keyboard input is unavailable")
	}

	if g, ok := s.registry.Find(wl.ShmInterface); ok && (g.Version >= shmVersion) {
		s.shm = wl.BindShm(s.client, s.registry, g.Name, shmVersion)
		s.shm.Listener = (*shmListener)(s)
	}

	return nil
}

// Client returns the connection that the surface lives on.
func (s *Surface) Client() *wl.Client {
	return s.client
}

// WlSurface returns the underlying wl_surface.
func (s *Surface) WlSurface() *wl.Surface {
	return s.surface
}

// Shm returns the wl_shm global, or nil if the compositor doesn't
// have one.
func (s *Surface) Shm() *wl.Shm {
	return s.shm
}

// ShmFormats returns the pixel formats that the compositor supports
// for shared memory buffers.
func (s *Surface) ShmFormats() []wl.ShmFormat {
	return slices.Clone(s.formats)
}

// Size returns the configured size of the surface.
func (s *Surface) Size() (width, height uint32) {
	return s.width, s.height
}

// Dispatch handles queued events, blocking until there is at least
// one if there are none.
func (s *Surface) Dispatch(ctx context.Context) error {
	err := s.client.Dispatch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		return ProtocolError{Op: "dispatch", Err: err}
	}
	return nil
}

// Destroy destroys the layer surface and the surface and waits for
// the compositor to process that. The connection stays open.
func (s *Surface) Destroy() error {
	if s.keyboard != nil {
		s.keyboard.Release()
		s.keyboard = nil
	}
	if s.layer != nil {
		s.layer.Destroy()
		s.layer = nil
	}
	if s.surface != nil {
		s.surface.Destroy()
		s.surface = nil
	}
	return s.roundTrip("destroy")
}

// Close closes the connection to the compositor.
func (s *Surface) Close() error {
	return s.client.Close()
}

type layerListener Surface

func (lis *layerListener) Configure(serial, width, height uint32) {
	s := (*Surface)(lis)

	if width == 0 {
		width = s.config.Width
	}
	if height == 0 {
		height = s.config.Height
	}
	s.logger.Debug("configure", "serial", serial, "width", width, "height", height)

	if s.configured {
		// The size is fixed once the first configure has been
		// handled.
		s.layer.AckConfigure(serial)
		return
	}

	if (width != s.config.Width) || (height != s.config.Height) {
		if !s.config.LenientSize {
			s.err = SizeMismatchError{
				Width:         s.config.Width,
				Height:        s.config.Height,
				GrantedWidth:  width,
				GrantedHeight: height,
			}
			return
		}
		s.logger.Warn("adopting compositor size", "width", width, "height", height)
	}

	s.width, s.height = width, height
	s.configured = true
	s.layer.AckConfigure(serial)

	if s.config.Listener != nil {
		s.config.Listener.Configure(width, height)
	}
}

func (lis *layerListener) Closed() {
	s := (*Surface)(lis)

	s.logger.Info("compositor closed the surface")
	s.token.Close()

	if s.config.Listener != nil {
		s.config.Listener.Closed()
	}
}

type seatListener Surface

func (lis *seatListener) Capabilities(capabilities wl.SeatCapability) {
	s := (*Surface)(lis)

	if !capabilities.Has(wl.SeatCapabilityKeyboard) {
		return
	}
	if s.keyboard != nil {
		return
	}

	s.keyboard = s.seat.GetKeyboard()
	s.keyboard.Listener = (*keyboardListener)(s)
}

func (lis *seatListener) Name(name string) {}

type shmListener Surface

func (lis *shmListener) Format(format wl.ShmFormat) {
	s := (*Surface)(lis)
	if !slices.Contains(s.formats, format) {
		s.formats = append(s.formats, format)
	}
}

type keyboardListener Surface

func (lis *keyboardListener) Keymap(format wl.KeyboardKeymapFormat, fd *os.File, size uint32) {
	fd.Close()
}

func (lis *keyboardListener) Enter(serial uint32, surface *wl.Surface, keys []byte) {}

func (lis *keyboardListener) Leave(serial uint32, surface *wl.Surface) {}

func (lis *keyboardListener) Key(serial, time, code uint32, state wl.KeyboardKeyState) {
	s := (*Surface)(lis)

	k, st := key.Code(code), key.State(state)
	s.logger.Debug("key", "code", k, "state", st)

	if s.config.Listener != nil {
		s.config.Listener.Key(k, st)
	}
}

func (lis *keyboardListener) Modifiers(serial, depressed, latched, locked, group uint32) {}

func (lis *keyboardListener) RepeatInfo(rate, delay int32) {}
