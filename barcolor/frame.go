package barcolor

import (
	"errors"
	"fmt"
	"image"
)

// PixelFormat identifies the memory layout of a captured frame.
type PixelFormat int

const (
	FormatUnknown PixelFormat = iota
	// FormatRGBA8888 stores R, G, B, A bytes in that order.
	FormatRGBA8888
	// FormatRGB565 stores one little-endian 16-bit word per pixel.
	FormatRGB565
)

// BytesPerPixel returns the pixel size, or 0 for unsupported formats.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case FormatRGBA8888:
		return 4
	case FormatRGB565:
		return 2
	}
	return 0
}

func (f PixelFormat) String() string {
	switch f {
	case FormatRGBA8888:
		return "RGBA8888"
	case FormatRGB565:
		return "RGB565"
	}
	return fmt.Sprintf("PixelFormat(%d)", int(f))
}

var (
	// ErrNoFrame is returned when no frame buffer was supplied.
	ErrNoFrame = errors.New("frame buffer unavailable")
	// ErrEmptyFrame is returned when the frame has no pixel data.
	ErrEmptyFrame = errors.New("frame buffer has no pixel data")
	// ErrUnsupportedFormat is returned for pixel formats the decoder cannot read.
	ErrUnsupportedFormat = errors.New("unsupported pixel format")
	// ErrShortBuffer is returned when Pix is smaller than the frame geometry implies.
	ErrShortBuffer = errors.New("pixel data shorter than frame geometry")
	// ErrOutOfBounds is returned when a pixel outside the frame is requested.
	ErrOutOfBounds = errors.New("pixel coordinate out of bounds")
)

// FrameBuffer describes one captured frame in the physical panel orientation.
// Stride is the row length in pixels and may exceed Width. The buffer is only
// read; callers must not mutate Pix while it is being sampled.
type FrameBuffer struct {
	Width  int
	Height int
	Stride int
	Format PixelFormat
	Pix    []byte
}

// FromRGBA wraps img without copying its pixels.
func FromRGBA(img *image.RGBA) *FrameBuffer {
	return &FrameBuffer{
		Width:  img.Rect.Dx(),
		Height: img.Rect.Dy(),
		Stride: img.Stride / 4,
		Format: FormatRGBA8888,
		Pix:    img.Pix[img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y):],
	}
}

// Validate checks that every in-range pixel of fb can be read.
func (fb *FrameBuffer) Validate() error {
	if fb == nil {
		return ErrNoFrame
	}
	if len(fb.Pix) == 0 || fb.Width <= 0 || fb.Height <= 0 {
		return ErrEmptyFrame
	}
	bpp := fb.Format.BytesPerPixel()
	if bpp == 0 {
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, fb.Format)
	}
	if fb.Stride < fb.Width {
		return fmt.Errorf("stride %d smaller than width %d", fb.Stride, fb.Width)
	}
	need := ((fb.Height-1)*fb.Stride + fb.Width) * bpp
	if len(fb.Pix) < need {
		return fmt.Errorf("%w: have %d bytes, need %d", ErrShortBuffer, len(fb.Pix), need)
	}
	return nil
}

// offset returns the byte offset of the pixel at (x, y).
func (fb *FrameBuffer) offset(x, y int) int {
	bpp := fb.Format.BytesPerPixel()
	return y*fb.Stride*bpp + x*bpp
}
