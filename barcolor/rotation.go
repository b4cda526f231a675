package barcolor

import (
	"fmt"
	"strconv"
)

// Rotation is the displayed orientation relative to the panel's natural one.
type Rotation int

const (
	Rotation0   Rotation = iota // natural orientation
	Rotation90                  // turned a quarter counter-clockwise
	Rotation180                 // upside down
	Rotation270                 // turned a quarter clockwise
)

// ParseRotation accepts degrees (0, 90, 180, 270) or the enum index (0-3).
func ParseRotation(s string) (Rotation, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parsing rotation %q: %w", s, err)
	}
	return RotationOf(n)
}

// RotationOf is ParseRotation for an already numeric value.
func RotationOf(n int) (Rotation, error) {
	switch n {
	case 0, 1, 2, 3:
		return Rotation(n), nil
	case 90:
		return Rotation90, nil
	case 180:
		return Rotation180, nil
	case 270:
		return Rotation270, nil
	}
	return 0, fmt.Errorf("invalid rotation %d", n)
}

// Valid reports whether r is one of the four rotations.
func (r Rotation) Valid() bool { return r >= Rotation0 && r <= Rotation270 }

// Landscape reports whether the logical axes are swapped against the panel.
func (r Rotation) Landscape() bool { return r == Rotation90 || r == Rotation270 }

// Degrees returns the counter-clockwise rotation angle.
func (r Rotation) Degrees() int { return int(r) * 90 }

// Next returns the rotation a further quarter turn counter-clockwise.
func (r Rotation) Next() Rotation { return (r + 1) % 4 }

func (r Rotation) String() string {
	if !r.Valid() {
		return fmt.Sprintf("Rotation(%d)", int(r))
	}
	return strconv.Itoa(r.Degrees()) + "°"
}

// axis says which logical offset feeds a physical axis and whether the
// near edge is flipped.
type axis struct {
	fromY  bool
	invert bool
}

// axes holds the physical x and y rules for each rotation.
var axes = [4][2]axis{
	Rotation0:   {{fromY: false, invert: false}, {fromY: true, invert: false}},
	Rotation90:  {{fromY: true, invert: true}, {fromY: false, invert: false}},
	Rotation180: {{fromY: false, invert: true}, {fromY: true, invert: true}},
	Rotation270: {{fromY: true, invert: false}, {fromY: false, invert: true}},
}

// Map converts a logical offset into a physical pixel coordinate of a
// w x h frame. Non-negative offsets count inward from the left/top of the
// displayed image, negative ones inward from the right/bottom. Unknown
// rotations are treated as Rotation0. The result is not clamped.
func Map(dx, dy int, r Rotation, w, h int) (x, y int) {
	if !r.Valid() {
		r = Rotation0
	}
	rule := axes[r]
	return project(rule[0], dx, dy, w), project(rule[1], dx, dy, h)
}

func project(a axis, dx, dy, size int) int {
	d := dx
	if a.fromY {
		d = dy
	}
	last := size - 1
	switch {
	case d >= 0 && !a.invert:
		return d
	case d >= 0:
		return last - d
	case !a.invert:
		return last + d
	default:
		return -d
	}
}
