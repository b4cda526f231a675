package barcolor

import "fmt"

// Color is a packed 0xAARRGGBB value.
type Color uint32

const (
	// Transparent is the zero color; sinks treat it as "no override".
	Transparent Color = 0
	opaque      Color = 0xFF000000
)

// RGB returns the opaque color with the given channels.
func RGB(r, g, b uint8) Color {
	return opaque | Color(r)<<16 | Color(g)<<8 | Color(b)
}

// ARGB returns the color with the given alpha and channels.
func ARGB(a, r, g, b uint8) Color {
	return Color(a)<<24 | Color(r)<<16 | Color(g)<<8 | Color(b)
}

func (c Color) A() uint8 { return uint8(c >> 24) }
func (c Color) R() uint8 { return uint8(c >> 16) }
func (c Color) G() uint8 { return uint8(c >> 8) }
func (c Color) B() uint8 { return uint8(c) }

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R(), c.G(), c.B())
}

// Brightness returns the YIQ luma of c in the range 0..1.
func (c Color) Brightness() float32 {
	return (0.299*float32(c.R()) + 0.587*float32(c.G()) + 0.114*float32(c.B())) / 255
}

// Offset shifts each channel by diff, saturating at 0 and 255. Alpha is kept.
func (c Color) Offset(diff int) Color {
	return ARGB(c.A(), shift(c.R(), diff), shift(c.G(), diff), shift(c.B(), diff))
}

func shift(v uint8, diff int) uint8 {
	n := int(v) + diff
	if n < 0 {
		return 0
	}
	if n > 255 {
		return 255
	}
	return uint8(n)
}
