package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/pkg/errors"
)

// copyRowAlignment is the alignment required of BytesPerRow when
// copying a texture into a buffer.
const copyRowAlignment = 256

// RenderPass describes the single color attachment that frames are
// drawn into.
type RenderPass struct {
	Format      gputypes.TextureFormat
	LoadOp      gputypes.LoadOp
	StoreOp     gputypes.StoreOp
	SampleCount uint32
}

type Viewport struct {
	X, Y          float32
	Width, Height float32
	MinDepth      float32
	MaxDepth      float32
}

// Framebuffer is what a frame for one swapchain image is rendered
// into. The rendered texture is copied into Staging and from there
// into Image.
type Framebuffer struct {
	Image   *Image
	Texture hal.Texture
	View    hal.TextureView
	Staging hal.Buffer

	rowPitch uint32
}

// Targets holds one Framebuffer per swapchain image.
type Targets struct {
	device hal.Device

	RenderPass   RenderPass
	Framebuffers []Framebuffer
	Viewport     Viewport
	Extent       Extent
}

// BuildTargets creates a framebuffer for each of the session's
// swapchain images.
func BuildTargets(s *Session) (t *Targets, err error) {
	sc := s.swapchain
	t = &Targets{
		device: s.device,
		RenderPass: RenderPass{
			Format:      sc.Format.Texture,
			LoadOp:      gputypes.LoadOpClear,
			StoreOp:     gputypes.StoreOpStore,
			SampleCount: 1,
		},
		Viewport: Viewport{
			Width:    float32(sc.Extent.Width),
			Height:   float32(sc.Extent.Height),
			MinDepth: 0,
			MaxDepth: 1,
		},
		Extent: sc.Extent,
	}
	defer func() {
		if err != nil {
			t.Destroy()
			t = nil
		}
	}()

	for _, img := range sc.images {
		fb, err := t.newFramebuffer(img)
		if err != nil {
			return nil, stepError("build targets", errors.Wrapf(err, "image %v", img.index))
		}
		t.Framebuffers = append(t.Framebuffers, fb)
	}

	return t, nil
}

func (t *Targets) newFramebuffer(img *Image) (fb Framebuffer, err error) {
	fb.Image = img
	defer func() {
		if err != nil {
			t.destroyFramebuffer(fb)
		}
	}()

	w, h := t.Extent.Width, t.Extent.Height
	fb.Texture, err = t.device.CreateTexture(&hal.TextureDescriptor{
		Label:         fmt.Sprintf("frame_%v", img.index),
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   t.RenderPass.SampleCount,
		Dimension:     gputypes.TextureDimension2D,
		Format:        t.RenderPass.Format,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fb, errors.Wrap(err, "create texture")
	}

	fb.View, err = t.device.CreateTextureView(fb.Texture, &hal.TextureViewDescriptor{
		Label:         fmt.Sprintf("frame_%v_view", img.index),
		Format:        t.RenderPass.Format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		return fb, errors.Wrap(err, "create texture view")
	}

	fb.rowPitch = alignUp(w*4, copyRowAlignment)
	fb.Staging, err = t.device.CreateBuffer(&hal.BufferDescriptor{
		Label: fmt.Sprintf("frame_%v_staging", img.index),
		Size:  uint64(fb.rowPitch) * uint64(h),
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fb, errors.Wrap(err, "create staging buffer")
	}

	return fb, nil
}

func (t *Targets) destroyFramebuffer(fb Framebuffer) {
	if fb.Staging != nil {
		t.device.DestroyBuffer(fb.Staging)
	}
	if fb.View != nil {
		t.device.DestroyTextureView(fb.View)
	}
	if fb.Texture != nil {
		t.device.DestroyTexture(fb.Texture)
	}
}

// Framebuffer returns the framebuffer for img.
func (t *Targets) Framebuffer(img *Image) (*Framebuffer, error) {
	i := img.index
	if (i >= len(t.Framebuffers)) || (t.Framebuffers[i].Image != img) {
		return nil, ErrSwapchainOutOfDate
	}
	return &t.Framebuffers[i], nil
}

// Destroy frees the GPU resources of every framebuffer. The swapchain
// images are not affected.
func (t *Targets) Destroy() {
	for _, fb := range t.Framebuffers {
		t.destroyFramebuffer(fb)
	}
	t.Framebuffers = nil
}

func alignUp(v, align uint32) uint32 {
	return (v + align - 1) / align * align
}
