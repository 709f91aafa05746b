package gpu

import (
	"context"
	"fmt"
	"slices"

	wl "deedles.dev/infolauncher/client"
	"github.com/charmbracelet/log"
	"github.com/gogpu/gputypes"
	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"
)

// Size of the swapchain when the window doesn't report one.
const (
	DefaultWidth  = 500
	DefaultHeight = 500
)

type Extent struct {
	Width, Height uint32
}

func (e Extent) String() string {
	return fmt.Sprintf("%vx%v", e.Width, e.Height)
}

// Format pairs a texture format with the shared memory format that
// has the same byte layout.
type Format struct {
	Texture gputypes.TextureFormat
	Shm     wl.ShmFormat
}

var formats = []Format{
	{Texture: gputypes.TextureFormatBGRA8Unorm, Shm: wl.ShmFormatArgb8888},
	{Texture: gputypes.TextureFormatBGRA8Unorm, Shm: wl.ShmFormatXrgb8888},
	{Texture: gputypes.TextureFormatRGBA8Unorm, Shm: wl.ShmFormatAbgr8888},
	{Texture: gputypes.TextureFormatRGBA8Unorm, Shm: wl.ShmFormatXbgr8888},
}

type CompositeAlpha int

const (
	CompositeAlphaOpaque CompositeAlpha = iota
	CompositeAlphaPreMultiplied
)

func (a CompositeAlpha) String() string {
	switch a {
	case CompositeAlphaOpaque:
		return "opaque"
	case CompositeAlphaPreMultiplied:
		return "premultiplied"
	default:
		return fmt.Sprintf("CompositeAlpha(%d)", int(a))
	}
}

type PresentMode int

const (
	// PresentModeFIFO queues presented images and shows one per frame
	// callback.
	PresentModeFIFO PresentMode = iota
)

func (m PresentMode) String() string {
	if m == PresentModeFIFO {
		return "fifo"
	}
	return fmt.Sprintf("PresentMode(%d)", int(m))
}

// Capabilities describe what a window can present.
type Capabilities struct {
	// CurrentExtent is zero if the window has no size yet.
	CurrentExtent  Extent
	MinImageCount  uint32
	MaxImageCount  uint32
	Formats        []Format
	CompositeAlpha []CompositeAlpha
	PresentModes   []PresentMode
}

func queryCapabilities(win Window) Capabilities {
	w, h := win.Size()
	caps := Capabilities{
		CurrentExtent: Extent{Width: w, Height: h},
		MinImageCount: 2,
		MaxImageCount: 3,
		PresentModes:  []PresentMode{PresentModeFIFO},
	}

	supported := win.ShmFormats()
	for _, f := range formats {
		if slices.Contains(supported, f.Shm) {
			caps.Formats = append(caps.Formats, f)
		}
	}
	if len(caps.Formats) > 0 {
		switch caps.Formats[0].Shm {
		case wl.ShmFormatArgb8888, wl.ShmFormatAbgr8888:
			caps.CompositeAlpha = []CompositeAlpha{CompositeAlphaPreMultiplied, CompositeAlphaOpaque}
		default:
			caps.CompositeAlpha = []CompositeAlpha{CompositeAlphaOpaque}
		}
	}

	return caps
}

// Image is a presentable image that belongs to a swapchain.
type Image struct {
	index int
	sc    *Swapchain
	buf   *wl.ImageBuffer
	busy  bool
}

// Index is the image's position in the swapchain.
func (img *Image) Index() int {
	return img.index
}

// Buffer returns the shared memory buffer that backs the image.
func (img *Image) Buffer() *wl.ImageBuffer {
	return img.buf
}

type imageListener Image

func (lis *imageListener) Release() {
	img := (*Image)(lis)
	if !img.busy {
		return
	}
	img.busy = false
	img.sc.available.Release(1)
}

// Swapchain is a fixed ring of shared memory images presented to a
// window in FIFO order, one per frame callback.
type Swapchain struct {
	logger *log.Logger
	win    Window

	Format         Format
	CompositeAlpha CompositeAlpha
	PresentMode    PresentMode
	Extent         Extent

	images    []*Image
	available *semaphore.Weighted
	next      int

	queue        []*Image
	framePending bool
}

func newSwapchain(logger *log.Logger, win Window, caps Capabilities) (sc *Swapchain, err error) {
	if (win.Shm() == nil) || (len(caps.Formats) == 0) {
		return nil, ErrPresentUnsupported
	}

	extent := caps.CurrentExtent
	if (extent.Width == 0) || (extent.Height == 0) {
		extent = Extent{Width: DefaultWidth, Height: DefaultHeight}
	}

	count := caps.MinImageCount
	sc = &Swapchain{
		logger:         logger,
		win:            win,
		Format:         caps.Formats[0],
		CompositeAlpha: caps.CompositeAlpha[0],
		PresentMode:    PresentModeFIFO,
		Extent:         extent,
		images:         make([]*Image, 0, count),
		available:      semaphore.NewWeighted(int64(count)),
	}
	defer func() {
		if err != nil {
			sc.destroy()
		}
	}()

	for i := range int(count) {
		buf, err := wl.NewImageBuffer(win.Shm(), int32(extent.Width), int32(extent.Height), sc.Format.Shm)
		if err != nil {
			return nil, errors.Wrapf(err, "create image %v", i)
		}
		img := Image{index: i, sc: sc, buf: buf}
		buf.Buffer().Listener = (*imageListener)(&img)
		sc.images = append(sc.images, &img)
	}

	logger.Debug(
		"created swapchain",
		"images", len(sc.images),
		"extent", sc.Extent,
		"format", sc.Format.Shm,
		"alpha", sc.CompositeAlpha,
		"mode", sc.PresentMode,
	)
	return sc, nil
}

func (sc *Swapchain) destroy() {
	for _, img := range sc.images {
		img.buf.Destroy()
	}
	sc.images = nil
	sc.queue = nil
}

// Images returns the swapchain's images in index order.
func (sc *Swapchain) Images() []*Image {
	return slices.Clone(sc.images)
}

// Acquire returns the next image that the compositor is not using,
// handling events until one is released. It returns
// ErrSwapchainOutOfDate if the window no longer matches the
// swapchain.
func (sc *Swapchain) Acquire(ctx context.Context) (*Image, error) {
	if w, h := sc.win.Size(); (w != 0) && (h != 0) && (Extent{w, h} != sc.Extent) {
		return nil, ErrSwapchainOutOfDate
	}

	for !sc.available.TryAcquire(1) {
		err := sc.win.Client().Dispatch(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "wait for image")
		}
	}

	for range sc.images {
		img := sc.images[sc.next]
		sc.next = (sc.next + 1) % len(sc.images)
		if !img.busy {
			img.busy = true
			return img, nil
		}
	}

	sc.available.Release(1)
	return nil, errors.New("no free image despite available count")
}

// free returns the number of images that can be acquired without
// waiting for the compositor.
func (sc *Swapchain) free() int {
	var n int
	for _, img := range sc.images {
		if !img.busy {
			n++
		}
	}
	return n
}

// release returns an acquired image that was never presented.
func (sc *Swapchain) release(img *Image) {
	if !img.busy || (img.sc != sc) {
		return
	}
	img.busy = false
	sc.available.Release(1)
}

// Present queues img to be shown. Images are committed to the window
// one at a time, each after the compositor has signaled that the
// previous one was displayed.
func (sc *Swapchain) Present(img *Image) error {
	if img.sc != sc {
		return errors.New("image belongs to another swapchain")
	}

	sc.queue = append(sc.queue, img)
	if !sc.framePending {
		sc.commitNext()
	}
	return errors.Wrap(sc.win.Client().Flush(), "flush")
}

func (sc *Swapchain) commitNext() {
	if len(sc.queue) == 0 {
		return
	}
	img := sc.queue[0]
	sc.queue = sc.queue[1:]

	surface := sc.win.WlSurface()
	surface.Attach(img.buf.Buffer(), 0, 0)
	surface.Damage(0, 0, int32(sc.Extent.Width), int32(sc.Extent.Height))
	surface.Frame().Then(func(uint32) {
		sc.framePending = false
		sc.commitNext()
	})
	surface.Commit()
	sc.framePending = true
}
