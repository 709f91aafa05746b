package launcher

import (
	"context"
	"errors"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"deedles.dev/infolauncher/gpu"
	"deedles.dev/infolauncher/internal/wltest"
	"deedles.dev/infolauncher/key"
	"deedles.dev/infolauncher/shaders"
	"deedles.dev/infolauncher/shutdown"
	"deedles.dev/infolauncher/surface"
	"github.com/charmbracelet/log"
	"github.com/gogpu/naga"
)

func writeShader(t *testing.T, dir, name, source string) string {
	t.Helper()

	spirv, err := naga.Compile(source)
	if err != nil {
		t.Fatalf("compile %v: %v", name, err)
	}
	path := filepath.Join(dir, name)
	err = os.WriteFile(path, spirv, 0644)
	if err != nil {
		t.Fatalf("write %v: %v", name, err)
	}
	return path
}

func testConfig(t *testing.T) Config {
	t.Helper()

	dir := t.TempDir()
	return Config{
		Surface:        surface.DefaultConfig(),
		Session:        gpu.SessionConfig{Backend: gpu.BackendNoop},
		VertexShader:   writeShader(t, dir, "triangle.vert.spv", shaders.TriangleVertex),
		FragmentShader: writeShader(t, dir, "triangle.frag.spv", shaders.TriangleFragment),
		Logger:         log.New(io.Discard),
	}
}

func newLauncher(t *testing.T, config Config) *Launcher {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	l, err := New(ctx, config)
	if err != nil {
		t.Fatalf("create launcher: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func run(t *testing.T, ctx context.Context, l *Launcher) <-chan error {
	t.Helper()

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	return done
}

func waitRun(t *testing.T, done <-chan error) {
	t.Helper()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return")
	}
}

func TestRunClosed(t *testing.T) {
	c := wltest.Start(t, wltest.Options{})
	l := newLauncher(t, testConfig(t))

	done := run(t, context.Background(), l)
	c.WaitFor(t, "wl_surface", "attach")
	c.SendClosed()
	waitRun(t, done)

	if l.FirstImage() != 0 {
		t.Errorf("first frame presented image %v", l.FirstImage())
	}
	if !l.Token().Closing() {
		t.Error("token is not closing")
	}
	if len(c.Find("wl_surface", "destroy")) != 1 {
		t.Error("surface was not destroyed")
	}
	if len(c.Find("zwlr_layer_surface_v1", "destroy")) != 1 {
		t.Error("layer surface was not destroyed")
	}
	if err := c.Err(); err != nil {
		t.Errorf("compositor errors: %v", err)
	}
}

func TestRunEsc(t *testing.T) {
	c := wltest.Start(t, wltest.Options{})
	l := newLauncher(t, testConfig(t))

	done := run(t, context.Background(), l)
	c.WaitFor(t, "wl_surface", "attach")

	c.SendKey(uint32(key.Q), uint32(key.Pressed))
	c.SendKey(uint32(key.Esc), uint32(key.Released))
	select {
	case err := <-done:
		t.Fatalf("run returned early: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	c.SendKey(uint32(key.Esc), uint32(key.Pressed))
	c.SendKey(uint32(key.Esc), uint32(key.Pressed))
	waitRun(t, done)

	if len(c.Find("wl_surface", "destroy")) != 1 {
		t.Error("surface was not destroyed")
	}
}

func TestRunCancel(t *testing.T) {
	c := wltest.Start(t, wltest.Options{})
	l := newLauncher(t, testConfig(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := run(t, ctx, l)
	c.WaitFor(t, "wl_surface", "attach")
	cancel()
	waitRun(t, done)

	if len(c.Find("wl_surface", "destroy")) != 1 {
		t.Error("surface was not destroyed")
	}
}

func TestRunSnapshot(t *testing.T) {
	c := wltest.Start(t, wltest.Options{})

	config := testConfig(t)
	config.Snapshot = filepath.Join(t.TempDir(), "frame.png")
	l := newLauncher(t, config)

	done := run(t, context.Background(), l)
	c.WaitFor(t, "wl_surface", "attach")
	c.SendClosed()
	waitRun(t, done)

	file, err := os.Open(config.Snapshot)
	if err != nil {
		t.Fatalf("open snapshot: %v", err)
	}
	defer file.Close()

	img, err := png.Decode(file)
	if err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if b := img.Bounds(); (b.Dx() != 500) || (b.Dy() != 500) {
		t.Fatalf("snapshot is %v", b)
	}
}

func TestNewMissingShader(t *testing.T) {
	c := wltest.Start(t, wltest.Options{})

	config := testConfig(t)
	config.FragmentShader = filepath.Join(t.TempDir(), "missing.spv")

	l, err := New(context.Background(), config)
	if l != nil {
		t.Fatal("got a launcher")
	}
	if !errors.Is(err, gpu.ErrShaderMissing) {
		t.Fatalf("expected missing shader, got %v", err)
	}
	if c.Accepted() != 0 {
		t.Fatalf("compositor accepted %v connections", c.Accepted())
	}
}

func TestNewSizeMismatch(t *testing.T) {
	c := wltest.Start(t, wltest.Options{
		Grant: func(w, h uint32) (uint32, uint32) { return w / 2, h },
	})

	l, err := New(context.Background(), testConfig(t))
	if l != nil {
		t.Fatal("got a launcher")
	}

	var mismatch surface.SizeMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected size mismatch, got %v", err)
	}
	if len(c.Find("wl_shm", "create_pool")) != 0 {
		t.Fatal("swapchain images were created")
	}
}

func TestTransition(t *testing.T) {
	tests := []struct {
		name     string
		status   shutdown.Status
		event    Event
		expected shutdown.Status
	}{
		{"EscPressed", shutdown.Running, KeyEvent{Code: key.Esc, State: key.Pressed}, shutdown.Closing},
		{"EscReleased", shutdown.Running, KeyEvent{Code: key.Esc, State: key.Released}, shutdown.Running},
		{"OtherKey", shutdown.Running, KeyEvent{Code: key.Q, State: key.Pressed}, shutdown.Running},
		{"Closed", shutdown.Running, ClosedEvent{}, shutdown.Closing},
		{"Configure", shutdown.Running, ConfigureEvent{Width: 500, Height: 500}, shutdown.Running},
		{"ClosingStays", shutdown.Closing, KeyEvent{Code: key.Q, State: key.Pressed}, shutdown.Closing},
		{"ClosingConfigure", shutdown.Closing, ConfigureEvent{}, shutdown.Closing},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := Transition(test.status, test.event)
			if got != test.expected {
				t.Fatalf("got %v, expected %v", got, test.expected)
			}
		})
	}
}

func TestTransitionRepeatedEsc(t *testing.T) {
	esc := KeyEvent{Code: key.Esc, State: key.Pressed}
	token := shutdown.NewToken()

	var transitions int
	for range 5 {
		if Transition(token.Status(), esc) == shutdown.Closing {
			if token.Close() {
				transitions++
			}
		}
	}
	if transitions != 1 {
		t.Fatalf("got %v transitions", transitions)
	}
}

func TestRunQueuedEsc(t *testing.T) {
	c := wltest.Start(t, wltest.Options{})
	l := newLauncher(t, testConfig(t))

	(*eventListener)(l).Key(key.Esc, key.Pressed)
	if l.Token().Closing() {
		t.Fatal("token closed before the event was applied")
	}

	done := run(t, context.Background(), l)
	waitRun(t, done)

	if len(c.Find("wl_surface", "destroy")) != 1 {
		t.Error("surface was not destroyed")
	}
}

func TestDrain(t *testing.T) {
	l := &Launcher{
		logger: log.New(io.Discard),
		token:  shutdown.NewToken(),
	}
	lis := (*eventListener)(l)

	lis.Configure(500, 500)
	lis.Key(key.Q, key.Pressed)
	l.drain()
	if l.Token().Closing() {
		t.Fatal("closing after unrelated events")
	}
	if len(l.events) != 0 {
		t.Fatalf("%v events left after drain", len(l.events))
	}

	lis.Closed()
	l.drain()
	if !l.Token().Closing() {
		t.Fatal("not closing after closed event")
	}
}
