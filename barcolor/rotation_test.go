package barcolor

import "testing"

func TestMap_Origin(t *testing.T) {
	const w, h = 100, 200
	cases := map[Rotation][2]int{
		Rotation0:   {0, 0},
		Rotation90:  {w - 1, 0},
		Rotation180: {w - 1, h - 1},
		Rotation270: {0, h - 1},
	}
	for r, want := range cases {
		x, y := Map(0, 0, r, w, h)
		if x != want[0] || y != want[1] {
			t.Errorf("%v: expected (%d,%d), got (%d,%d)", r, want[0], want[1], x, y)
		}
	}
}

func TestMap_FarCorner(t *testing.T) {
	const w, h = 100, 200
	// -1 counts one pixel in from the far edge, so it lands next to the
	// corner rather than on it.
	cases := map[Rotation][2]int{
		Rotation0:   {w - 2, h - 2},
		Rotation90:  {1, h - 2},
		Rotation180: {1, 1},
		Rotation270: {w - 2, 1},
	}
	for r, want := range cases {
		x, y := Map(-1, -1, r, w, h)
		if x != want[0] || y != want[1] {
			t.Errorf("%v: expected (%d,%d), got (%d,%d)", r, want[0], want[1], x, y)
		}
	}
}

func TestMap_Formulas(t *testing.T) {
	const w, h = 1080, 1920
	offsets := [][2]int{{1, 26}, {-49, 26}, {1, -50}, {-1, -5}, {0, 7}, {-3, 0}}
	for _, o := range offsets {
		dx, dy := o[0], o[1]
		for r := Rotation0; r <= Rotation270; r++ {
			x, y := Map(dx, dy, r, w, h)
			wx, wy := reference(dx, dy, r, w, h)
			if x != wx || y != wy {
				t.Errorf("Map(%d,%d,%v): expected (%d,%d), got (%d,%d)", dx, dy, r, wx, wy, x, y)
			}
		}
	}
}

// reference spells out the per-rotation formulas one by one.
func reference(dx, dy int, r Rotation, w, h int) (int, int) {
	pick := func(cond bool, a, b int) int {
		if cond {
			return a
		}
		return b
	}
	switch r {
	case Rotation90:
		return pick(dy >= 0, w-1-dy, -dy), pick(dx >= 0, dx, h-1+dx)
	case Rotation180:
		return pick(dx >= 0, w-1-dx, -dx), pick(dy >= 0, h-1-dy, -dy)
	case Rotation270:
		return pick(dy >= 0, dy, w-1+dy), pick(dx >= 0, h-1-dx, -dx)
	}
	return pick(dx >= 0, dx, w-1+dx), pick(dy >= 0, dy, h-1+dy)
}

func TestMap_InvalidRotationIsNatural(t *testing.T) {
	x, y := Map(-1, 3, Rotation(7), 10, 10)
	if x != 8 || y != 3 {
		t.Errorf("expected (8,3), got (%d,%d)", x, y)
	}
}

func TestParseRotation(t *testing.T) {
	cases := map[string]Rotation{
		"0": Rotation0, "1": Rotation90, "2": Rotation180, "3": Rotation270,
		"90": Rotation90, "180": Rotation180, "270": Rotation270,
	}
	for in, want := range cases {
		got, err := ParseRotation(in)
		if err != nil {
			t.Fatalf("ParseRotation(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseRotation(%q): expected %v, got %v", in, want, got)
		}
	}
	for _, in := range []string{"45", "-90", "left", ""} {
		if _, err := ParseRotation(in); err == nil {
			t.Errorf("ParseRotation(%q): expected error", in)
		}
	}
}

func TestRotation_Next(t *testing.T) {
	if Rotation270.Next() != Rotation0 {
		t.Errorf("expected 270 to wrap to 0, got %v", Rotation270.Next())
	}
	if !Rotation90.Landscape() || Rotation180.Landscape() {
		t.Error("expected only quarter turns to be landscape")
	}
}
