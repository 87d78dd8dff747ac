package timeline

import (
	"errors"
	"math"
	"testing"
)

func TestFromSecondsRoundTripBoundedError(t *testing.T) {
	rates := []int{24, 25, 30, 60}
	seconds := []float64{0, 0.04, 1.0, 1.5, 3.333, 12.987, 59.999, 3600.5}

	for _, rate := range rates {
		frameDur := 1.0 / float64(rate)
		for _, sec := range seconds {
			rt := FromSeconds(sec, rate)
			back := rt.Seconds()
			if diff := math.Abs(back - sec); diff > frameDur {
				t.Fatalf("round trip at %dfps for %vs: diff=%v exceeds one frame duration %v", rate, sec, diff, frameDur)
			}
		}
	}
}

func TestFromSecondsRoundsToNearestFrame(t *testing.T) {
	rt := FromSeconds(1.02, 30)
	if rt.Frames != 31 {
		t.Fatalf("1.02s at 30fps: want=31 got=%d", rt.Frames)
	}
	rt = FromSeconds(0.99, 30)
	if rt.Frames != 30 {
		t.Fatalf("0.99s at 30fps: want=30 got=%d", rt.Frames)
	}
}

func TestAddRejectsRateMismatch(t *testing.T) {
	a := RationalTime{Frames: 10, Rate: 24}
	b := RationalTime{Frames: 10, Rate: 30}

	_, err := a.Add(b)
	var rm *RateMismatchError
	if !errors.As(err, &rm) {
		t.Fatalf("expected RateMismatchError, got=%v", err)
	}
	if rm.A != 24 || rm.B != 30 {
		t.Fatalf("rates: want=24/30 got=%d/%d", rm.A, rm.B)
	}

	if _, err := a.Sub(b); err == nil {
		t.Fatalf("expected Sub to reject mismatched rates")
	}
}

func TestAddSameRate(t *testing.T) {
	a := RationalTime{Frames: 10, Rate: 24}
	b := RationalTime{Frames: 14, Rate: 24}
	sum, err := a.Add(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Frames != 24 || sum.Rate != 24 {
		t.Fatalf("sum: want={24 24} got=%+v", sum)
	}
}

func TestNewTimeRangeEnforcesRate(t *testing.T) {
	_, err := NewTimeRange(RationalTime{Frames: 0, Rate: 24}, RationalTime{Frames: 48, Rate: 25})
	if err == nil {
		t.Fatalf("expected rate mismatch error")
	}

	r, err := NewTimeRange(RationalTime{Frames: 24, Rate: 24}, RationalTime{Frames: 48, Rate: 24})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.End().Frames != 72 {
		t.Fatalf("end: want=72 got=%d", r.End().Frames)
	}
}

func TestTimecode(t *testing.T) {
	cases := []struct {
		frames int64
		rate   int
		want   string
	}{
		{0, 30, "00:00:00:00"},
		{29, 30, "00:00:00:29"},
		{30, 30, "00:00:01:00"},
		{30*3600 + 30*62 + 5, 30, "01:01:02:05"},
		{-10, 30, "00:00:00:00"},
	}
	for _, c := range cases {
		got := RationalTime{Frames: c.frames, Rate: c.rate}.Timecode()
		if got != c.want {
			t.Fatalf("timecode(%d@%d): want=%q got=%q", c.frames, c.rate, c.want, got)
		}
	}
}
