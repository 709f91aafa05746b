package surface

import (
	"context"
	"errors"
	"io"
	"slices"
	"testing"
	"time"

	wl "deedles.dev/infolauncher/client"
	"deedles.dev/infolauncher/internal/wltest"
	"deedles.dev/infolauncher/key"
	"deedles.dev/infolauncher/shutdown"
	"github.com/charmbracelet/log"
)

type recorder struct {
	configures [][2]uint32
	keys       []key.Code
	states     []key.State
	closed     int
}

func (r *recorder) Configure(width, height uint32) {
	r.configures = append(r.configures, [2]uint32{width, height})
}

func (r *recorder) Key(code key.Code, state key.State) {
	r.keys = append(r.keys, code)
	r.states = append(r.states, state)
}

func (r *recorder) Closed() {
	r.closed++
}

func testConfig(lis Listener) Config {
	config := DefaultConfig()
	config.Listener = lis
	config.Logger = log.New(io.Discard)
	return config
}

func spawn(t *testing.T, config Config, token *shutdown.Token) *Surface {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, err := Spawn(ctx, config, token)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func dispatchUntil(t *testing.T, s *Surface, cond func() bool) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for !cond() {
		err := s.Dispatch(ctx)
		if err != nil {
			t.Fatalf("dispatch: %v", err)
		}
	}
}

func TestSpawn(t *testing.T) {
	c := wltest.Start(t, wltest.Options{})

	var r recorder
	s := spawn(t, testConfig(&r), shutdown.NewToken())

	if w, h := s.Size(); (w != 500) || (h != 500) {
		t.Fatalf("size is %vx%v", w, h)
	}
	if !slices.Equal(r.configures, [][2]uint32{{500, 500}}) {
		t.Fatalf("configures: %v", r.configures)
	}
	if !slices.Contains(s.ShmFormats(), wl.ShmFormatArgb8888) {
		t.Fatalf("formats: %v", s.ShmFormats())
	}
	if s.Shm() == nil {
		t.Fatal("no wl_shm")
	}

	tests := []struct {
		inter, method string
		args          []any
	}{
		{"zwlr_layer_shell_v1", "get_layer_surface", nil},
		{"zwlr_layer_surface_v1", "set_size", []any{uint32(500), uint32(500)}},
		{"zwlr_layer_surface_v1", "set_anchor", []any{uint32(1)}},
		{"zwlr_layer_surface_v1", "set_margin", []any{int32(100), int32(0), int32(0), int32(0)}},
		{"zwlr_layer_surface_v1", "set_keyboard_interactivity", []any{uint32(1)}},
		{"zwlr_layer_surface_v1", "ack_configure", nil},
		{"wl_surface", "commit", nil},
	}
	for _, test := range tests {
		found := c.Find(test.inter, test.method)
		if len(found) != 1 {
			t.Errorf("%v.%v sent %v times", test.inter, test.method, len(found))
			continue
		}
		if (test.args != nil) && !slices.Equal(found[0].Args, test.args) {
			t.Errorf("%v.%v args: %v, expected %v", test.inter, test.method, found[0].Args, test.args)
		}
	}

	get := c.Find("zwlr_layer_shell_v1", "get_layer_surface")[0]
	if layer := get.Args[3]; layer != uint32(2) {
		t.Errorf("layer is %v", layer)
	}
	if ns := get.Args[4]; ns != "infolauncher" {
		t.Errorf("namespace is %q", ns)
	}

	binds := c.Requests()
	binds = slices.DeleteFunc(binds, func(r wltest.Request) bool { return r.Method != "bind" })
	for _, b := range binds {
		if b.Args[0] != uint32(1) {
			t.Errorf("%v bound at version %v", b.Interface, b.Args[0])
		}
	}
}

func TestSpawnSizeMismatch(t *testing.T) {
	c := wltest.Start(t, wltest.Options{
		Grant: func(w, h uint32) (uint32, uint32) { return 400, 300 },
	})

	var r recorder
	s, err := Spawn(context.Background(), testConfig(&r), shutdown.NewToken())
	if s != nil {
		t.Fatal("got a surface despite the size mismatch")
	}

	var mismatch SizeMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected size mismatch, got %v", err)
	}
	expected := SizeMismatchError{Width: 500, Height: 500, GrantedWidth: 400, GrantedHeight: 300}
	if mismatch != expected {
		t.Fatalf("got %#v, expected %#v", mismatch, expected)
	}
	if len(c.Find("zwlr_layer_surface_v1", "ack_configure")) != 0 {
		t.Fatal("mismatched configure was acked")
	}
	if len(r.configures) != 0 {
		t.Fatalf("listener saw configures: %v", r.configures)
	}
}

func TestSpawnLenientSize(t *testing.T) {
	wltest.Start(t, wltest.Options{
		Grant: func(w, h uint32) (uint32, uint32) { return 400, 300 },
	})

	config := testConfig(nil)
	config.LenientSize = true
	s := spawn(t, config, shutdown.NewToken())

	if w, h := s.Size(); (w != 400) || (h != 300) {
		t.Fatalf("size is %vx%v", w, h)
	}
}

func TestSpawnZeroSizeConfigure(t *testing.T) {
	wltest.Start(t, wltest.Options{
		Grant: func(w, h uint32) (uint32, uint32) { return 0, 0 },
	})

	s := spawn(t, testConfig(nil), shutdown.NewToken())
	if w, h := s.Size(); (w != 500) || (h != 500) {
		t.Fatalf("size is %vx%v", w, h)
	}
}

func TestSpawnMissingLayerShell(t *testing.T) {
	c := wltest.Start(t, wltest.Options{NoLayerShell: true})

	_, err := Spawn(context.Background(), testConfig(nil), shutdown.NewToken())
	if !errors.Is(err, ErrMissingGlobal) {
		t.Fatalf("expected missing global, got %v", err)
	}
	if c.Accepted() != 1 {
		t.Fatalf("compositor accepted %v connections", c.Accepted())
	}
	if len(c.Find("zwlr_layer_shell_v1", "get_layer_surface")) != 0 {
		t.Fatal("layer surface requested without a layer shell")
	}
}

func TestSpawnNoCompositor(t *testing.T) {
	t.Setenv("WAYLAND_DISPLAY", t.TempDir()+"/missing")

	_, err := Spawn(context.Background(), testConfig(nil), shutdown.NewToken())
	var perr ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("expected protocol error, got %v", err)
	}
	if perr.Op != "connect" {
		t.Fatalf("op is %q", perr.Op)
	}
}

func TestClosed(t *testing.T) {
	c := wltest.Start(t, wltest.Options{})

	var r recorder
	token := shutdown.NewToken()
	s := spawn(t, testConfig(&r), token)

	c.SendClosed()
	dispatchUntil(t, s, token.Closing)

	if r.closed != 1 {
		t.Fatalf("listener saw %v closes", r.closed)
	}
}

func TestKey(t *testing.T) {
	c := wltest.Start(t, wltest.Options{})

	var r recorder
	token := shutdown.NewToken()
	s := spawn(t, testConfig(&r), token)

	c.SendKey(uint32(key.Esc), uint32(key.Pressed))
	dispatchUntil(t, s, func() bool { return len(r.keys) > 0 })

	if (r.keys[0] != key.Esc) || (r.states[0] != key.Pressed) {
		t.Fatalf("got %v %v", r.keys[0], r.states[0])
	}
	if token.Closing() {
		t.Fatal("a key closed the token directly")
	}
}

func TestNoSeat(t *testing.T) {
	c := wltest.Start(t, wltest.Options{NoSeat: true})

	spawn(t, testConfig(nil), shutdown.NewToken())
	if len(c.Find("wl_seat", "get_keyboard")) != 0 {
		t.Fatal("keyboard requested without a seat")
	}
}

func TestDestroy(t *testing.T) {
	c := wltest.Start(t, wltest.Options{})

	s := spawn(t, testConfig(nil), shutdown.NewToken())
	err := s.Destroy()
	if err != nil {
		t.Fatalf("destroy: %v", err)
	}

	if len(c.Find("zwlr_layer_surface_v1", "destroy")) != 1 {
		t.Fatal("layer surface not destroyed")
	}
	if len(c.Find("wl_surface", "destroy")) != 1 {
		t.Fatal("surface not destroyed")
	}
}
