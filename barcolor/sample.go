package barcolor

import (
	"errors"
	"fmt"
)

// ErrInvalidParams is returned for negative heights or insets and unknown rotations.
var ErrInvalidParams = errors.New("invalid sampling parameters")

// Params are the per-call probe settings, all in logical (displayed) pixels.
type Params struct {
	Rotation            Rotation
	StatusBarHeight     int
	NavigationBarHeight int
	// XFromRightSide is the inset of the right probe from the right edge.
	XFromRightSide int
}

func (p Params) validate() error {
	if !p.Rotation.Valid() {
		return fmt.Errorf("%w: rotation %d", ErrInvalidParams, int(p.Rotation))
	}
	if p.StatusBarHeight < 0 || p.NavigationBarHeight < 0 || p.XFromRightSide < 0 {
		return fmt.Errorf("%w: status=%d navigation=%d inset=%d", ErrInvalidParams,
			p.StatusBarHeight, p.NavigationBarHeight, p.XFromRightSide)
	}
	return nil
}

// Result holds the summaries of both bars. It is only meaningful when
// Sample returned a nil error.
type Result struct {
	Top    RegionSummary
	Bottom RegionSummary
}

// Ints returns [topColor, topStable, bottomColor, bottomStable] with colors
// as packed ARGB and the flags as 0 or 1.
func (r Result) Ints() [4]int32 {
	return [4]int32{
		int32(r.Top.Color), flag(r.Top.Stable),
		int32(r.Bottom.Color), flag(r.Bottom.Stable),
	}
}

func flag(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// probe is a logical offset.
type probe struct{ dx, dy int }

// regionProbes is the probe layout of one bar.
type regionProbes struct {
	left, center, right probe
	stable              [2]probe
}

func layout(p Params) (top, bottom regionProbes) {
	xr := p.XFromRightSide
	ty := 2 + p.StatusBarHeight
	by := -2 - p.NavigationBarHeight

	top = regionProbes{
		left:   probe{1, ty},
		center: probe{-1 - xr/2, ty},
		right:  probe{-1 - xr, ty},
		stable: [2]probe{{1, 1}, {1, 5}},
	}
	bottom = regionProbes{
		left:   probe{1, by},
		center: probe{-1 - xr/2, by},
		right:  probe{-1 - xr, by},
		stable: [2]probe{{-1, -1}, {-1, -5}},
	}
	return top, bottom
}

// Sample summarizes the status and navigation bars of fb. The operation is
// all-or-nothing: on any error the returned Result is the zero value.
//
// Probes that would land outside the frame are clamped to its nearest edge.
func Sample(fb *FrameBuffer, p Params) (Result, error) {
	if err := fb.Validate(); err != nil {
		return Result{}, err
	}
	if err := p.validate(); err != nil {
		return Result{}, err
	}

	s := sampler{fb: fb, rot: p.Rotation}
	top, bottom := layout(p)

	t, err := s.region(top)
	if err != nil {
		return Result{}, fmt.Errorf("status bar: %w", err)
	}
	b, err := s.region(bottom)
	if err != nil {
		return Result{}, fmt.Errorf("navigation bar: %w", err)
	}
	return Result{Top: t, Bottom: b}, nil
}

type sampler struct {
	fb  *FrameBuffer
	rot Rotation
}

func (s sampler) at(pr probe) (Color, error) {
	x, y := Map(pr.dx, pr.dy, s.rot, s.fb.Width, s.fb.Height)
	return Decode(s.fb, clamp(x, s.fb.Width), clamp(y, s.fb.Height))
}

func (s sampler) region(rp regionProbes) (RegionSummary, error) {
	var c [5]Color
	for i, pr := range [...]probe{rp.left, rp.center, rp.right, rp.stable[0], rp.stable[1]} {
		v, err := s.at(pr)
		if err != nil {
			return RegionSummary{}, err
		}
		c[i] = v
	}
	return RegionSummary{
		Color:  Summarize(c[0], c[1], c[2]),
		Stable: Stable(c[3], c[4]),
	}, nil
}

func clamp(v, size int) int {
	if v < 0 {
		return 0
	}
	if v >= size {
		return size - 1
	}
	return v
}
