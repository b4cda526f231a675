package barcolor

import "testing"

func TestSummarize_Uniform(t *testing.T) {
	c := RGB(12, 34, 56)
	if got := Summarize(c, c, c); got != c {
		t.Errorf("expected %v, got %v", c, got)
	}
}

func TestSummarize_OuterProbesMatch(t *testing.T) {
	blue, red := RGB(0, 0, 255), RGB(255, 0, 0)
	if got := Summarize(blue, red, blue); got != blue {
		t.Errorf("expected %v, got %v", blue, got)
	}
}

func TestSummarize_OneSideMatchesCenter(t *testing.T) {
	blue, red := RGB(0, 0, 255), RGB(255, 0, 0)
	if got := Summarize(blue, red, red); got != red {
		t.Errorf("right==center: expected %v, got %v", red, got)
	}
	if got := Summarize(red, red, blue); got != red {
		t.Errorf("left==center: expected %v, got %v", red, got)
	}
}

func TestSummarize_Average(t *testing.T) {
	got := Summarize(RGB(255, 0, 0), RGB(0, 255, 0), RGB(0, 0, 255))
	if got != RGB(85, 85, 85) {
		t.Errorf("expected #555555, got %v", got)
	}
}

func TestAverage_Truncates(t *testing.T) {
	// 2+2+1 = 5, 5/3 = 1.67 -> 1
	got := Average(RGB(2, 200, 0), RGB(2, 100, 0), RGB(1, 0, 1))
	if got != RGB(1, 100, 0) {
		t.Errorf("expected RGB(1,100,0), got %v", got)
	}
	if got.A() != 255 {
		t.Errorf("expected opaque alpha, got %d", got.A())
	}
}

func TestAverage_IgnoresAlpha(t *testing.T) {
	got := Average(ARGB(0, 30, 30, 30), ARGB(10, 60, 60, 60), ARGB(255, 90, 90, 90))
	if got != RGB(60, 60, 60) {
		t.Errorf("expected RGB(60,60,60), got %v", got)
	}
}

func TestAverage_Empty(t *testing.T) {
	if got := Average(); got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
}

func TestStable(t *testing.T) {
	if !Stable(RGB(10, 10, 10), RGB(10, 10, 10)) {
		t.Error("expected equal probes to be stable")
	}
	if Stable(RGB(10, 10, 10), RGB(11, 10, 10)) {
		t.Error("expected differing probes to be unstable")
	}
}

func TestColor_Offset(t *testing.T) {
	got := RGB(5, 128, 250).Offset(-10)
	if got != RGB(0, 118, 240) {
		t.Errorf("expected RGB(0,118,240), got %v", got)
	}
	got = ARGB(0x95, 250, 0, 0).Offset(10)
	if got != ARGB(0x95, 255, 10, 10) {
		t.Errorf("expected alpha kept and channels saturated, got %08x", uint32(got))
	}
}

func TestColor_Brightness(t *testing.T) {
	if b := RGB(255, 255, 255).Brightness(); b < 0.999 || b > 1.001 {
		t.Errorf("expected white brightness 1, got %f", b)
	}
	if b := RGB(0, 0, 0).Brightness(); b != 0 {
		t.Errorf("expected black brightness 0, got %f", b)
	}
}

func TestColor_String(t *testing.T) {
	if s := RGB(255, 128, 0).String(); s != "#ff8000" {
		t.Errorf("expected #ff8000, got %s", s)
	}
}
