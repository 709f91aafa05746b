// Command infolauncher shows a layer-shell surface at the top of the
// screen and draws into it with the GPU until Esc is pressed or the
// compositor closes it.
package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"deedles.dev/infolauncher/gpu"
	"deedles.dev/infolauncher/internal/debug"
	"deedles.dev/infolauncher/launcher"
	"deedles.dev/infolauncher/layer"
	"deedles.dev/infolauncher/shaders"
	"deedles.dev/infolauncher/surface"
	"github.com/charmbracelet/log"
	"github.com/gogpu/gputypes"
	"golang.org/x/image/colornames"
)

func parseClearColor(name string) (*gputypes.Color, error) {
	if name == "" {
		return nil, nil
	}

	c, ok := colornames.Map[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown color %q", name)
	}
	return toGPUColor(c), nil
}

// parseSize checks that a requested surface size is non-zero and
// fits the protocol's 32-bit fields.
func parseSize(w, h uint) (uint32, uint32, error) {
	if (w == 0) || (h == 0) {
		return 0, 0, fmt.Errorf("size %vx%v has a zero dimension", w, h)
	}
	if (w > math.MaxUint32) || (h > math.MaxUint32) {
		return 0, 0, fmt.Errorf("size %vx%v is too large", w, h)
	}
	return uint32(w), uint32(h), nil
}

func toGPUColor(c color.RGBA) *gputypes.Color {
	return &gputypes.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
		A: float64(c.A) / 255,
	}
}

func envOr(name, def string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	return def
}

func main() {
	defaults := surface.DefaultConfig()

	width := flag.Uint("width", uint(defaults.Width), "surface width")
	height := flag.Uint("height", uint(defaults.Height), "surface height")
	marginTop := flag.Int("margin-top", int(defaults.MarginTop), "distance from the top edge of the output")
	marginLeft := flag.Int("margin-left", int(defaults.MarginLeft), "distance from the left edge of the output")
	namespace := flag.String("namespace", defaults.Namespace, "layer surface namespace")
	layerName := flag.String("layer", defaults.Layer.String(), "layer to place the surface in")
	lenient := flag.Bool("lenient-size", false, "accept whatever size the compositor configures")
	device := flag.Int("device", 0, "index of the GPU to use (see wlinfo)")
	backendName := flag.String("backend", string(gpu.BackendVulkan), "GPU backend (vulkan or noop)")
	framesInFlight := flag.Int("frames-in-flight", gpu.MaxFramesInFlight, "frames that may be in flight at once")
	vert := flag.String("vert", shaders.VertexPath, "vertex shader SPIR-V")
	frag := flag.String("frag", shaders.FragmentPath, "fragment shader SPIR-V")
	clearName := flag.String("clear", "", "clear color as a CSS color name (default yellow)")
	snapshot := flag.String("snapshot", "", "write the first frame to this PNG file")
	levelName := flag.String("log-level", envOr("INFOLAUNCHER_LOG", "info"), "log level")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "infolauncher",
	})

	level, err := log.ParseLevel(*levelName)
	if err != nil {
		logger.Error("invalid log level", "level", *levelName, "err", err)
		os.Exit(2)
	}
	logger.SetLevel(level)
	debug.SetLogger(logger)

	w, h, err := parseSize(*width, *height)
	if err != nil {
		logger.Error("invalid size", "err", err)
		os.Exit(2)
	}
	l, err := layer.ParseLayer(*layerName)
	if err != nil {
		logger.Error("invalid layer", "err", err)
		os.Exit(2)
	}
	backend, err := gpu.ParseBackend(*backendName)
	if err != nil {
		logger.Error("invalid backend", "err", err)
		os.Exit(2)
	}
	clearColor, err := parseClearColor(*clearName)
	if err != nil {
		logger.Error("invalid clear color", "err", err)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	config := launcher.Config{
		Surface: surface.Config{
			Width:       w,
			Height:      h,
			MarginTop:   int32(*marginTop),
			MarginLeft:  int32(*marginLeft),
			Namespace:   *namespace,
			Layer:       l,
			LenientSize: *lenient,
		},
		Session: gpu.SessionConfig{
			Backend:        backend,
			DeviceIndex:    *device,
			FramesInFlight: *framesInFlight,
		},
		VertexShader:   *vert,
		FragmentShader: *frag,
		ClearColor:     clearColor,
		Snapshot:       *snapshot,
		Logger:         logger,
	}

	app, err := launcher.New(ctx, config)
	if err != nil {
		logger.Fatal("start", "err", err)
	}
	defer app.Close()

	err = app.Run(ctx)
	if err != nil {
		app.Close()
		logger.Fatal("run", "err", err)
	}
}
