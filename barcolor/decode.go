package barcolor

import (
	"encoding/binary"
	"fmt"
)

// Decode reads the pixel at physical (x, y) and returns it as an opaque color.
func Decode(fb *FrameBuffer, x, y int) (Color, error) {
	if fb == nil {
		return 0, ErrNoFrame
	}
	if x < 0 || y < 0 || x >= fb.Width || y >= fb.Height {
		return 0, fmt.Errorf("%w: (%d,%d) in %dx%d", ErrOutOfBounds, x, y, fb.Width, fb.Height)
	}
	bpp := fb.Format.BytesPerPixel()
	if bpp == 0 {
		return 0, fmt.Errorf("%w: %v", ErrUnsupportedFormat, fb.Format)
	}
	off := fb.offset(x, y)
	if off+bpp > len(fb.Pix) {
		return 0, fmt.Errorf("%w: pixel (%d,%d) at byte %d", ErrShortBuffer, x, y, off)
	}

	switch fb.Format {
	case FormatRGBA8888:
		p := fb.Pix[off : off+4]
		return RGB(p[0], p[1], p[2]), nil
	case FormatRGB565:
		return decode565(binary.LittleEndian.Uint16(fb.Pix[off:])), nil
	}
	return 0, fmt.Errorf("%w: %v", ErrUnsupportedFormat, fb.Format)
}

// decode565 upscales 5/6/5 channels to 8 bits linearly.
func decode565(v uint16) Color {
	r := uint32(v>>11&0x1F) * 255 / 31
	g := uint32(v>>5&0x3F) * 255 / 63
	b := uint32(v&0x1F) * 255 / 31
	return RGB(uint8(r), uint8(g), uint8(b))
}
