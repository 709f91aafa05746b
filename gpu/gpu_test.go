package gpu

import (
	"context"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"deedles.dev/infolauncher/internal/wltest"
	"deedles.dev/infolauncher/shaders"
	"deedles.dev/infolauncher/shutdown"
	"deedles.dev/infolauncher/surface"
	"github.com/charmbracelet/log"
	"github.com/gogpu/naga"
	"github.com/pkg/errors"
)

var discard = log.New(io.Discard)

func spawnWindow(t *testing.T) *surface.Surface {
	t.Helper()

	_, win := startWindow(t)
	return win
}

func startWindow(t *testing.T) (*wltest.Compositor, *surface.Surface) {
	t.Helper()

	c := wltest.Start(t, wltest.Options{})

	config := surface.DefaultConfig()
	config.Logger = discard

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	win, err := surface.Spawn(ctx, config, shutdown.NewToken())
	if err != nil {
		t.Fatalf("spawn surface: %v", err)
	}
	t.Cleanup(func() { win.Close() })
	return c, win
}

func initNoop(t *testing.T, win Window) *Session {
	t.Helper()
	return initNoopConfig(t, win, SessionConfig{})
}

func initNoopConfig(t *testing.T, win Window, config SessionConfig) *Session {
	t.Helper()

	config.Backend = BackendNoop
	config.Logger = discard
	s, err := Initialize(win, config)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	t.Cleanup(s.Destroy)
	return s
}

func compileShader(t *testing.T, name, source string) *Shader {
	t.Helper()

	spirv, err := naga.Compile(source)
	if err != nil {
		t.Fatalf("compile %v: %v", name, err)
	}
	path := filepath.Join(t.TempDir(), name+".spv")
	err = os.WriteFile(path, spirv, 0644)
	if err != nil {
		t.Fatalf("write %v: %v", name, err)
	}

	shader, err := LoadShader(path)
	if err != nil {
		t.Fatalf("load %v: %v", name, err)
	}
	return shader
}

func TestInitialize(t *testing.T) {
	win := spawnWindow(t)
	s := initNoop(t, win)

	caps := s.Capabilities()
	if caps.CurrentExtent != (Extent{500, 500}) {
		t.Errorf("current extent is %v", caps.CurrentExtent)
	}
	if len(caps.Formats) == 0 {
		t.Fatal("no formats")
	}

	sc := s.Swapchain()
	if sc.Format != caps.Formats[0] {
		t.Errorf("swapchain format %v is not the first supported %v", sc.Format, caps.Formats[0])
	}
	if sc.CompositeAlpha != caps.CompositeAlpha[0] {
		t.Errorf("composite alpha is %v", sc.CompositeAlpha)
	}
	if sc.PresentMode != PresentModeFIFO {
		t.Errorf("present mode is %v", sc.PresentMode)
	}
	if len(s.Images()) != int(caps.MinImageCount) {
		t.Errorf("got %v images, expected %v", len(s.Images()), caps.MinImageCount)
	}
	for i, img := range s.Images() {
		if img.Index() != i {
			t.Errorf("image %v has index %v", i, img.Index())
		}
	}
}

func TestInitializeDeviceIndex(t *testing.T) {
	win := spawnWindow(t)

	adapters, err := Adapters(BackendNoop)
	if err != nil {
		t.Fatalf("list adapters: %v", err)
	}

	for _, index := range []int{-1, len(adapters), len(adapters) + 3} {
		s, err := Initialize(win, SessionConfig{
			Backend:     BackendNoop,
			DeviceIndex: index,
			Logger:      discard,
		})
		if s != nil {
			t.Errorf("%v: got a session", index)
			s.Destroy()
		}
		if !errors.Is(err, ErrPhysicalDeviceNotFound) {
			t.Errorf("%v: expected device not found, got %v", index, err)
		}

		var serr *SessionError
		if !errors.As(err, &serr) || (serr.Step != "select device") {
			t.Errorf("%v: expected select device step, got %v", index, err)
		}
	}
}

func TestBuildTargets(t *testing.T) {
	win := spawnWindow(t)
	s := initNoop(t, win)

	targets, err := BuildTargets(s)
	if err != nil {
		t.Fatalf("build targets: %v", err)
	}
	defer targets.Destroy()

	if len(targets.Framebuffers) != len(s.Images()) {
		t.Fatalf("%v framebuffers for %v images", len(targets.Framebuffers), len(s.Images()))
	}
	for i, fb := range targets.Framebuffers {
		if fb.Image != s.Images()[i] {
			t.Errorf("framebuffer %v references the wrong image", i)
		}
		if fb.rowPitch%copyRowAlignment != 0 {
			t.Errorf("row pitch %v is not aligned", fb.rowPitch)
		}
	}

	expected := Viewport{Width: 500, Height: 500, MinDepth: 0, MaxDepth: 1}
	if targets.Viewport != expected {
		t.Errorf("viewport is %+v", targets.Viewport)
	}
	if targets.RenderPass.SampleCount != 1 {
		t.Errorf("sample count is %v", targets.RenderPass.SampleCount)
	}
}

func TestSubmitFrame(t *testing.T) {
	win := spawnWindow(t)
	s := initNoop(t, win)

	targets, err := BuildTargets(s)
	if err != nil {
		t.Fatalf("build targets: %v", err)
	}
	defer targets.Destroy()

	vert := compileShader(t, "vert", shaders.TriangleVertex)
	frag := compileShader(t, "frag", shaders.TriangleFragment)
	pipeline, err := NewPipeline(s, targets, vert, frag)
	if err != nil {
		t.Fatalf("create pipeline: %v", err)
	}
	defer pipeline.Destroy()

	sub, err := NewSubmitter(s)
	if err != nil {
		t.Fatalf("create submitter: %v", err)
	}
	defer sub.Destroy()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for i, expected := range []int{0, 1, 0, 1} {
		index, err := sub.SubmitFrame(ctx, targets, pipeline, Triangle)
		if err != nil {
			t.Fatalf("frame %v: %v", i, err)
		}
		if index != expected {
			t.Fatalf("frame %v drew into image %v, expected %v", i, index, expected)
		}
	}

	err = sub.Flush()
	if err != nil {
		t.Fatalf("flush: %v", err)
	}
	if sub.Pending() != 0 {
		t.Fatalf("%v frames pending after flush", sub.Pending())
	}
}

func TestFramesInFlight(t *testing.T) {
	tests := []struct {
		name     string
		inFlight int
		pending  []int
		attached []int
	}{
		{name: "One", inFlight: 1, pending: []int{1, 1, 1}, attached: []int{0, 1, 2}},
		{name: "Two", inFlight: 2, pending: []int{1, 2, 1}, attached: []int{0, 0, 2}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c, win := startWindow(t)
			s := initNoopConfig(t, win, SessionConfig{FramesInFlight: test.inFlight})

			targets, err := BuildTargets(s)
			if err != nil {
				t.Fatalf("build targets: %v", err)
			}
			defer targets.Destroy()

			vert := compileShader(t, "vert", shaders.TriangleVertex)
			frag := compileShader(t, "frag", shaders.TriangleFragment)
			pipeline, err := NewPipeline(s, targets, vert, frag)
			if err != nil {
				t.Fatalf("create pipeline: %v", err)
			}
			defer pipeline.Destroy()

			sub, err := NewSubmitter(s)
			if err != nil {
				t.Fatalf("create submitter: %v", err)
			}
			defer sub.Destroy()

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			for i := range test.pending {
				_, err := sub.SubmitFrame(ctx, targets, pipeline, Triangle)
				if err != nil {
					t.Fatalf("frame %v: %v", i, err)
				}
				err = win.Client().RoundTrip()
				if err != nil {
					t.Fatalf("frame %v: round trip: %v", i, err)
				}

				if sub.Pending() != test.pending[i] {
					t.Errorf("frame %v: %v pending, expected %v", i, sub.Pending(), test.pending[i])
				}
				attached := len(c.Find("wl_surface", "attach"))
				if attached != test.attached[i] {
					t.Errorf("frame %v: %v buffers attached, expected %v", i, attached, test.attached[i])
				}
			}
		})
	}
}

func TestSubmitFrameNoVertices(t *testing.T) {
	win := spawnWindow(t)
	s := initNoop(t, win)

	targets, err := BuildTargets(s)
	if err != nil {
		t.Fatalf("build targets: %v", err)
	}
	defer targets.Destroy()

	sub, err := NewSubmitter(s)
	if err != nil {
		t.Fatalf("create submitter: %v", err)
	}
	defer sub.Destroy()

	_, err = sub.SubmitFrame(context.Background(), targets, nil, nil)
	var serr *SessionError
	if !errors.As(err, &serr) {
		t.Fatalf("expected session error, got %v", err)
	}
}

func TestRecreateSwapchain(t *testing.T) {
	win := spawnWindow(t)
	s := initNoop(t, win)

	old := s.Images()
	err := s.RecreateSwapchain()
	if err != nil {
		t.Fatalf("recreate: %v", err)
	}
	if len(s.Images()) != len(old) {
		t.Fatalf("got %v images, expected %v", len(s.Images()), len(old))
	}
	if s.Images()[0] == old[0] {
		t.Fatal("images were not recreated")
	}

	targets, err := BuildTargets(s)
	if err != nil {
		t.Fatalf("build targets: %v", err)
	}
	defer targets.Destroy()

	if _, err := targets.Framebuffer(old[0]); !errors.Is(err, ErrSwapchainOutOfDate) {
		t.Fatalf("old image matched a new framebuffer: %v", err)
	}
}

func spirvFile(t *testing.T, words ...uint32) string {
	t.Helper()

	var data []byte
	for _, w := range words {
		data = binary.LittleEndian.AppendUint32(data, w)
	}
	path := filepath.Join(t.TempDir(), "shader.spv")
	err := os.WriteFile(path, data, 0644)
	if err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadShader(t *testing.T) {
	valid := spirvFile(t, spirvMagic, 0x00010000, 0, 1, 0)
	shader, err := LoadShader(valid)
	if err != nil {
		t.Fatalf("load valid shader: %v", err)
	}
	if (len(shader.Code) != 5) || (shader.Code[0] != spirvMagic) {
		t.Fatalf("code: %x", shader.Code)
	}

	_, err = LoadShader(filepath.Join(t.TempDir(), "missing.spv"))
	if !errors.Is(err, ErrShaderMissing) {
		t.Fatalf("missing shader: %v", err)
	}

	_, err = LoadShader(spirvFile(t, 0xDEADBEEF))
	if !errors.Is(err, ErrInvalidShader) {
		t.Fatalf("bad magic: %v", err)
	}

	short := filepath.Join(t.TempDir(), "short.spv")
	os.WriteFile(short, []byte{0x03, 0x02, 0x23}, 0644)
	_, err = LoadShader(short)
	if !errors.Is(err, ErrInvalidShader) {
		t.Fatalf("short shader: %v", err)
	}
}

func TestCheckShaders(t *testing.T) {
	present := spirvFile(t, spirvMagic)
	missing := filepath.Join(t.TempDir(), "missing.spv")

	if err := CheckShaders(present, present); err != nil {
		t.Fatalf("present shaders: %v", err)
	}
	if err := CheckShaders(present, missing); !errors.Is(err, ErrShaderMissing) {
		t.Fatalf("missing shader: %v", err)
	}
}

func TestEncodeVertices(t *testing.T) {
	data := encodeVertices(Triangle)
	if len(data) != len(Triangle)*vertexStride {
		t.Fatalf("encoded %v bytes", len(data))
	}

	layout := vertexLayout()[0]
	if layout.ArrayStride != vertexStride {
		t.Fatalf("stride is %v", layout.ArrayStride)
	}
}

func TestParseBackend(t *testing.T) {
	for _, b := range []Backend{BackendVulkan, BackendNoop} {
		got, err := ParseBackend(string(b))
		if (err != nil) || (got != b) {
			t.Errorf("%v: got %v, %v", b, got, err)
		}
	}
	if _, err := ParseBackend("metal"); err == nil {
		t.Error("parsed unknown backend")
	}
}
