package gpu

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/pkg/errors"
)

// fenceTimeout is how long to wait for submitted work to finish.
const fenceTimeout = 5 * time.Second

// DefaultClearColor is yellow.
var DefaultClearColor = gputypes.Color{R: 1, G: 1, B: 0, A: 1}

// frameSlot holds the resources of one frame in flight. A pending
// slot's frame has been submitted but not yet read back and
// presented.
type frameSlot struct {
	fence   hal.Fence
	value   uint64
	pending bool
	cmd     hal.CommandBuffer

	vertices     hal.Buffer
	verticesSize uint64

	img    *Image
	fb     *Framebuffer
	extent Extent
}

// Submitter records and submits frames. Each of a fixed number of
// slots has its own fence. A frame is read back into its image and
// presented when its slot is about to be reused, when an image is
// needed and none is free, or when Flush is called.
type Submitter struct {
	logger  *log.Logger
	session *Session
	slots   []frameSlot
	frame   uint64

	// ClearColor is the color that each frame is cleared to.
	ClearColor gputypes.Color
}

func NewSubmitter(s *Session) (sub *Submitter, err error) {
	sub = &Submitter{
		logger:     s.logger,
		session:    s,
		slots:      make([]frameSlot, s.config.FramesInFlight),
		ClearColor: DefaultClearColor,
	}
	defer func() {
		if err != nil {
			sub.Destroy()
			sub = nil
		}
	}()

	for i := range sub.slots {
		sub.slots[i].fence, err = s.device.CreateFence()
		if err != nil {
			return nil, stepError("create fence", errors.Wrapf(err, "slot %v", i))
		}
	}

	return sub, nil
}

// Destroy waits for all submitted work to finish and frees the
// submitter's resources. Frames that were never presented are
// dropped.
func (sub *Submitter) Destroy() {
	device := sub.session.device
	for i := range sub.slots {
		slot := &sub.slots[i]
		if slot.pending {
			err := sub.wait(slot)
			if err != nil {
				sub.logger.Warn("wait for frame", "slot", i, "err", err)
			}
			sub.drop(slot)
		}
		if slot.vertices != nil {
			device.DestroyBuffer(slot.vertices)
			slot.vertices = nil
		}
		if slot.fence != nil {
			device.DestroyFence(slot.fence)
			slot.fence = nil
		}
	}
}

// Pending returns the number of frames that have been submitted but
// not yet presented.
func (sub *Submitter) Pending() int {
	var n int
	for i := range sub.slots {
		if sub.slots[i].pending {
			n++
		}
	}
	return n
}

func (sub *Submitter) wait(slot *frameSlot) error {
	device := sub.session.device
	ok, err := device.Wait(slot.fence, slot.value, fenceTimeout)
	if err != nil {
		return errors.Wrap(err, "wait for fence")
	}
	if !ok {
		return errFenceTimeout
	}

	if slot.cmd != nil {
		device.FreeCommandBuffer(slot.cmd)
		slot.cmd = nil
	}
	return nil
}

// drop clears a pending slot without presenting it, returning its
// image to the swapchain.
func (sub *Submitter) drop(slot *frameSlot) {
	if slot.img != nil {
		slot.img.sc.release(slot.img)
	}
	slot.pending = false
	slot.img = nil
	slot.fb = nil
}

// finish waits for a pending slot's frame, copies it into its image,
// and presents it.
func (sub *Submitter) finish(slot *frameSlot) error {
	err := sub.wait(slot)
	if err != nil {
		sub.drop(slot)
		return stepError("wait for frame", err)
	}

	img := slot.img
	err = sub.readback(slot)
	if err != nil {
		sub.drop(slot)
		return stepError("read back frame", err)
	}

	slot.pending = false
	slot.img = nil
	slot.fb = nil

	err = img.sc.Present(img)
	if err != nil {
		return stepError("present", err)
	}
	sub.logger.Debug("presented frame", "image", img.index)
	return nil
}

// oldest returns the pending slot that was submitted first, or nil.
func (sub *Submitter) oldest() *frameSlot {
	n := uint64(len(sub.slots))
	for i := range n {
		slot := &sub.slots[(sub.frame+i)%n]
		if slot.pending {
			return slot
		}
	}
	return nil
}

// Flush presents every pending frame in the order that they were
// submitted.
func (sub *Submitter) Flush() error {
	for {
		slot := sub.oldest()
		if slot == nil {
			return nil
		}
		err := sub.finish(slot)
		if err != nil {
			return err
		}
	}
}

func (sub *Submitter) uploadVertices(slot *frameSlot, vertices []Vertex) error {
	data := encodeVertices(vertices)
	size := uint64(len(data))

	device := sub.session.device
	if slot.verticesSize < size {
		if slot.vertices != nil {
			device.DestroyBuffer(slot.vertices)
			slot.vertices = nil
		}

		buf, err := device.CreateBuffer(&hal.BufferDescriptor{
			Label: "vertices",
			Size:  size,
			Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return errors.Wrap(err, "create vertex buffer")
		}
		slot.vertices = buf
		slot.verticesSize = size
	}

	sub.session.queue.WriteBuffer(slot.vertices, 0, data)
	return nil
}

// SubmitFrame draws vertices into the next swapchain image and submits
// the work without waiting for it. It returns the index of the image
// that the frame will be presented from. If the slot that the frame
// uses still holds an earlier frame, that frame is waited for and
// presented first.
//
// If it returns ErrSwapchainOutOfDate, pending frames should be
// flushed and the swapchain and targets recreated before trying
// again.
func (sub *Submitter) SubmitFrame(ctx context.Context, t *Targets, p *Pipeline, vertices []Vertex) (int, error) {
	if len(vertices) == 0 {
		return -1, stepError("submit frame", errors.New("no vertices"))
	}

	slot := &sub.slots[sub.frame%uint64(len(sub.slots))]
	if slot.pending {
		err := sub.finish(slot)
		if err != nil {
			return -1, err
		}
	}

	sc := sub.session.swapchain
	for sc.free() == 0 {
		prev := sub.oldest()
		if prev == nil {
			break
		}
		err := sub.finish(prev)
		if err != nil {
			return -1, err
		}
	}

	img, err := sc.Acquire(ctx)
	if err != nil {
		return -1, stepError("acquire image", err)
	}
	submitted := false
	defer func() {
		if !submitted {
			sc.release(img)
		}
	}()

	fb, err := t.Framebuffer(img)
	if err != nil {
		return -1, stepError("find framebuffer", err)
	}

	err = sub.uploadVertices(slot, vertices)
	if err != nil {
		return -1, stepError("upload vertices", err)
	}

	cmd, err := sub.record(t, fb, p, slot, uint32(len(vertices)))
	if err != nil {
		return -1, stepError("record commands", err)
	}

	slot.value++
	err = sub.session.queue.Submit([]hal.CommandBuffer{cmd}, slot.fence, slot.value)
	if err != nil {
		sub.session.device.FreeCommandBuffer(cmd)
		return -1, stepError("submit", err)
	}
	submitted = true
	sub.frame++

	slot.pending = true
	slot.cmd = cmd
	slot.img = img
	slot.fb = fb
	slot.extent = t.Extent

	sub.logger.Debug("submitted frame", "frame", sub.frame, "image", img.index, "pending", sub.Pending())
	return img.index, nil
}

func (sub *Submitter) record(t *Targets, fb *Framebuffer, p *Pipeline, slot *frameSlot, count uint32) (hal.CommandBuffer, error) {
	device := sub.session.device

	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "frame_encoder",
	})
	if err != nil {
		return nil, errors.Wrap(err, "create command encoder")
	}
	err = encoder.BeginEncoding(fmt.Sprintf("frame_%v", sub.frame))
	if err != nil {
		return nil, errors.Wrap(err, "begin encoding")
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "frame_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       fb.View,
				LoadOp:     t.RenderPass.LoadOp,
				StoreOp:    t.RenderPass.StoreOp,
				ClearValue: sub.ClearColor,
			},
		},
	})
	vp := t.Viewport
	rp.SetPipeline(p.pipeline)
	rp.SetViewport(vp.X, vp.Y, vp.Width, vp.Height, vp.MinDepth, vp.MaxDepth)
	rp.SetScissorRect(0, 0, t.Extent.Width, t.Extent.Height)
	rp.SetVertexBuffer(0, slot.vertices, 0)
	rp.Draw(count, 1, 0, 0)
	rp.End()

	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: fb.Texture,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(fb.Texture, fb.Staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: fb.rowPitch, RowsPerImage: t.Extent.Height},
		TextureBase:  hal.ImageCopyTexture{Texture: fb.Texture, MipLevel: 0},
		Size:         hal.Extent3D{Width: t.Extent.Width, Height: t.Extent.Height, DepthOrArrayLayers: 1},
	}})

	cmd, err := encoder.EndEncoding()
	if err != nil {
		return nil, errors.Wrap(err, "end encoding")
	}
	return cmd, nil
}

func (sub *Submitter) readback(slot *frameSlot) error {
	fb := slot.fb
	w, h := slot.extent.Width, slot.extent.Height
	staging := make([]byte, uint64(fb.rowPitch)*uint64(h))
	err := sub.session.queue.ReadBuffer(fb.Staging, 0, staging)
	if err != nil {
		return err
	}

	pix := slot.img.buf.Pix()
	stride := int(w * 4)
	for y := range int(h) {
		src := staging[y*int(fb.rowPitch):]
		copy(pix[y*stride:(y+1)*stride], src[:stride])
	}
	return nil
}
