package wl

import (
	"fmt"
	"image"
	"image/draw"
	"os"

	"deedles.dev/infolauncher/shm"
	"deedles.dev/ximage"
	"golang.org/x/sys/unix"
)

// ImageBuffer is a wl_buffer backed by its own shared memory pool,
// along with a mapping of that memory so that it can be drawn into.
type ImageBuffer struct {
	w, h   int32
	format ShmFormat
	shm    *Shm
	pool   *ShmPool
	buf    *Buffer
	file   *os.File
	mmap   shm.Mmap
}

// NewImageBuffer allocates a w by h buffer. Only 32-bit formats are
// supported.
func NewImageBuffer(s *Shm, w, h int32, format ShmFormat) (buf *ImageBuffer, err error) {
	if (w <= 0) || (h <= 0) {
		return nil, fmt.Errorf("invalid buffer size %vx%v", w, h)
	}

	buf = &ImageBuffer{
		w:      w,
		h:      h,
		format: format,
		shm:    s,
	}
	defer func() {
		if err != nil {
			buf.Destroy()
		}
	}()

	file, err := shm.Create(int64(buf.Len()))
	if err != nil {
		return buf, fmt.Errorf("create SHM file: %w", err)
	}
	buf.file = file

	mmap, err := shm.Map(file, int(buf.Len()), unix.PROT_READ|unix.PROT_WRITE)
	if err != nil {
		return buf, fmt.Errorf("mmap SHM file: %w", err)
	}
	buf.mmap = mmap

	buf.pool = buf.shm.CreatePool(file, buf.Len())
	buf.buf = buf.pool.CreateBuffer(0, w, h, buf.Stride(), format)

	return buf, nil
}

// Destroy releases the buffer, its pool, and the backing memory.
func (s *ImageBuffer) Destroy() {
	if s.buf != nil {
		s.buf.Destroy()
		s.buf = nil
	}
	if s.pool != nil {
		s.pool.Destroy()
		s.pool = nil
	}
	if s.mmap != nil {
		s.mmap.Unmap()
		s.mmap = nil
	}
	if s.file != nil {
		s.file.Close()
		s.file = nil
	}
}

func (s *ImageBuffer) Buffer() *Buffer {
	return s.buf
}

func (s *ImageBuffer) Format() ShmFormat {
	return s.format
}

func (s *ImageBuffer) Stride() int32 {
	return s.w * 4
}

func (s *ImageBuffer) Len() int32 {
	return s.Stride() * s.h
}

func (s *ImageBuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, int(s.w), int(s.h))
}

// Pix returns the mapped pixel memory. Writes to it are visible to the
// compositor.
func (s *ImageBuffer) Pix() []byte {
	return s.mmap
}

// Image returns a view of the buffer as an image. It is only valid
// for ARGB8888 buffers.
func (s *ImageBuffer) Image() draw.Image {
	return &ximage.FormatImage{
		Format: ximage.ARGB8888,
		Rect:   s.Bounds(),
		Pix:    s.mmap,
	}
}
