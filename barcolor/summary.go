package barcolor

// RegionSummary is the representative color of one bar and whether its
// corner probes matched.
type RegionSummary struct {
	Color  Color
	Stable bool
}

// Summarize collapses three probes taken along a bar edge into one color.
// Matching outer probes win, then a center matching either side, and only a
// fully mixed edge is averaged.
func Summarize(left, center, right Color) Color {
	switch {
	case left == right:
		return left
	case left == center || right == center:
		return center
	}
	return Average(left, center, right)
}

// Average returns the per-channel mean of colors, truncated, with opaque alpha.
func Average(colors ...Color) Color {
	if len(colors) == 0 {
		return 0
	}
	var r, g, b float64
	for _, c := range colors {
		r += float64(c.R())
		g += float64(c.G())
		b += float64(c.B())
	}
	n := float64(len(colors))
	return RGB(uint8(r/n), uint8(g/n), uint8(b/n))
}

// Stable reports whether the two corner probes are exactly equal.
func Stable(a, b Color) bool {
	return a == b
}
