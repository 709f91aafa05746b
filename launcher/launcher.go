// Package launcher ties a compositor surface and a GPU session
// together, draws into the surface, and runs until something asks it
// to stop.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"os"

	"deedles.dev/infolauncher/gpu"
	"deedles.dev/infolauncher/key"
	"deedles.dev/infolauncher/shaders"
	"deedles.dev/infolauncher/shutdown"
	"deedles.dev/infolauncher/surface"
	"github.com/charmbracelet/log"
	"github.com/gogpu/gputypes"
)

// maxPendingEvents is the most events that are held between two
// iterations of the run loop.
const maxPendingEvents = 64

type Config struct {
	Surface surface.Config
	Session gpu.SessionConfig

	// Paths of the SPIR-V shaders. They default to the ones built in
	// the shaders directory.
	VertexShader   string
	FragmentShader string

	// ClearColor defaults to gpu.DefaultClearColor.
	ClearColor *gputypes.Color

	// Vertices default to gpu.Triangle.
	Vertices []gpu.Vertex

	// Snapshot, if not empty, is where the first frame is written as
	// a PNG.
	Snapshot string

	Logger *log.Logger
}

// Launcher is a running surface with everything needed to draw into
// it.
type Launcher struct {
	logger *log.Logger
	config Config
	token  *shutdown.Token
	events []Event

	surface   *surface.Surface
	session   *gpu.Session
	targets   *gpu.Targets
	pipeline  *gpu.Pipeline
	submitter *gpu.Submitter
	destroyed bool

	firstImage int
}

// New checks for the shaders, spawns the surface, and sets up the GPU
// session for it. Nothing is connected to if a shader is missing.
func New(ctx context.Context, config Config) (l *Launcher, err error) {
	if config.VertexShader == "" {
		config.VertexShader = shaders.VertexPath
	}
	if config.FragmentShader == "" {
		config.FragmentShader = shaders.FragmentPath
	}
	if len(config.Vertices) == 0 {
		config.Vertices = gpu.Triangle
	}
	if config.Logger == nil {
		config.Logger = log.Default()
	}
	config.Surface.Logger = config.Logger
	config.Session.Logger = config.Logger

	err = gpu.CheckShaders(config.VertexShader, config.FragmentShader)
	if err != nil {
		return nil, err
	}
	vert, err := gpu.LoadShader(config.VertexShader)
	if err != nil {
		return nil, err
	}
	frag, err := gpu.LoadShader(config.FragmentShader)
	if err != nil {
		return nil, err
	}

	l = &Launcher{
		logger:     config.Logger,
		config:     config,
		token:      shutdown.NewToken(),
		events:     make([]Event, 0, maxPendingEvents),
		firstImage: -1,
	}
	defer func() {
		if err != nil {
			l.Close()
			l = nil
		}
	}()

	config.Surface.Listener = (*eventListener)(l)
	l.surface, err = surface.Spawn(ctx, config.Surface, l.token)
	if err != nil {
		return nil, fmt.Errorf("spawn surface: %w", err)
	}

	l.session, err = gpu.Initialize(l.surface, config.Session)
	if err != nil {
		return nil, err
	}

	l.targets, err = gpu.BuildTargets(l.session)
	if err != nil {
		return nil, err
	}

	l.pipeline, err = gpu.NewPipeline(l.session, l.targets, vert, frag)
	if err != nil {
		return nil, err
	}

	l.submitter, err = gpu.NewSubmitter(l.session)
	if err != nil {
		return nil, err
	}
	if config.ClearColor != nil {
		l.submitter.ClearColor = *config.ClearColor
	}

	return l, nil
}

// Token returns the token that stops Run when closed.
func (l *Launcher) Token() *shutdown.Token {
	return l.token
}

// FirstImage returns the swapchain index that the first frame was
// presented from, or -1 if no frame has been presented.
func (l *Launcher) FirstImage() int {
	return l.firstImage
}

// Run presents a frame and then handles events until the token is
// closed, either by an event or by ctx being canceled. It then tears
// down the GPU session and the surface. The connection to the
// compositor stays open until Close is called.
func (l *Launcher) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { l.token.Close() })
	defer stop()

	index, err := l.submit(ctx)
	if err != nil {
		return l.fail(err)
	}
	l.firstImage = index
	l.logger.Info("presented first frame", "image", index)

	if l.config.Snapshot != "" {
		err := l.snapshot(index)
		if err != nil {
			l.logger.Error("write snapshot", "path", l.config.Snapshot, "err", err)
		}
	}

	for {
		l.drain()
		if l.token.Closing() {
			break
		}

		err := l.surface.Dispatch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			return l.fail(err)
		}
	}

	l.logger.Info("shutting down")
	return l.teardown()
}

// drain applies the events that arrived since the last call.
func (l *Launcher) drain() {
	status := l.token.Status()
	for _, ev := range l.events {
		l.logger.Debug("event", "event", ev, "status", status)
		status = Transition(status, ev)
	}
	clear(l.events)
	l.events = l.events[:0]

	if status == shutdown.Closing {
		l.token.Close()
	}
}

// submit draws a frame and presents it.
func (l *Launcher) submit(ctx context.Context) (int, error) {
	index, err := l.submitter.SubmitFrame(ctx, l.targets, l.pipeline, l.config.Vertices)
	if err == nil {
		return index, l.submitter.Flush()
	}
	if !errors.Is(err, gpu.ErrSwapchainOutOfDate) {
		return index, err
	}

	l.logger.Warn("swapchain out of date, recreating")
	err = l.submitter.Flush()
	if err != nil {
		return -1, err
	}
	l.targets.Destroy()
	err = l.session.RecreateSwapchain()
	if err != nil {
		return -1, err
	}
	l.targets, err = gpu.BuildTargets(l.session)
	if err != nil {
		return -1, err
	}

	index, err = l.submitter.SubmitFrame(ctx, l.targets, l.pipeline, l.config.Vertices)
	if err != nil {
		return -1, err
	}
	return index, l.submitter.Flush()
}

func (l *Launcher) snapshot(index int) error {
	file, err := os.Create(l.config.Snapshot)
	if err != nil {
		return err
	}
	defer file.Close()

	img := l.session.Images()[index].Buffer().Image()
	err = png.Encode(file, img)
	if err != nil {
		return err
	}
	return file.Close()
}

func (l *Launcher) fail(err error) error {
	l.logger.Error("run failed", "err", err)
	l.token.Close()
	return errors.Join(err, l.teardown())
}

func (l *Launcher) destroyGPU() {
	if l.submitter != nil {
		l.submitter.Destroy()
		l.submitter = nil
	}
	if l.pipeline != nil {
		l.pipeline.Destroy()
		l.pipeline = nil
	}
	if l.targets != nil {
		l.targets.Destroy()
		l.targets = nil
	}
	if l.session != nil {
		l.session.Destroy()
		l.session = nil
	}
}

func (l *Launcher) teardown() error {
	l.destroyGPU()
	if (l.surface == nil) || l.destroyed {
		return nil
	}

	l.destroyed = true
	return l.surface.Destroy()
}

// Close tears down anything that Run didn't and closes the connection
// to the compositor.
func (l *Launcher) Close() error {
	err := l.teardown()
	if l.surface != nil {
		err = errors.Join(err, l.surface.Close())
		l.surface = nil
	}
	return err
}

type eventListener Launcher

func (lis *eventListener) push(ev Event) {
	l := (*Launcher)(lis)
	if len(l.events) >= maxPendingEvents {
		l.logger.Warn("dropping event", "event", ev)
		return
	}
	l.events = append(l.events, ev)
}

func (lis *eventListener) Configure(width, height uint32) {
	lis.push(ConfigureEvent{Width: width, Height: height})
}

func (lis *eventListener) Key(code key.Code, state key.State) {
	lis.push(KeyEvent{Code: code, State: state})
}

func (lis *eventListener) Closed() {
	lis.push(ClosedEvent{})
}
