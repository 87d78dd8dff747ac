package timeline

import (
	"fmt"
	"math"
)

// RationalTime is a frame-exact time value: an integer frame count at a fixed
// frame rate. All layout math runs on frames so UI float positions cannot
// drift.
type RationalTime struct {
	Frames int64
	Rate   int
}

// RateMismatchError reports arithmetic attempted across two different frame
// rates. Mixing rates is a usage error, never a silent coercion.
type RateMismatchError struct {
	A int
	B int
}

func (e *RateMismatchError) Error() string {
	return fmt.Sprintf("rate mismatch: %d fps vs %d fps", e.A, e.B)
}

// FromSeconds converts wall-clock seconds to the nearest frame at rate.
func FromSeconds(sec float64, rate int) RationalTime {
	return RationalTime{
		Frames: int64(math.Round(sec * float64(rate))),
		Rate:   rate,
	}
}

func (t RationalTime) Seconds() float64 {
	if t.Rate == 0 {
		return 0
	}
	return float64(t.Frames) / float64(t.Rate)
}

func (t RationalTime) Add(o RationalTime) (RationalTime, error) {
	if t.Rate != o.Rate {
		return RationalTime{}, &RateMismatchError{A: t.Rate, B: o.Rate}
	}
	return RationalTime{Frames: t.Frames + o.Frames, Rate: t.Rate}, nil
}

func (t RationalTime) Sub(o RationalTime) (RationalTime, error) {
	if t.Rate != o.Rate {
		return RationalTime{}, &RateMismatchError{A: t.Rate, B: o.Rate}
	}
	return RationalTime{Frames: t.Frames - o.Frames, Rate: t.Rate}, nil
}

// Timecode renders HH:MM:SS:FF. Negative values are clamped to zero.
func (t RationalTime) Timecode() string {
	if t.Rate <= 0 {
		return "00:00:00:00"
	}
	total := t.Frames
	if total < 0 {
		total = 0
	}
	rate := int64(t.Rate)
	frames := total % rate
	totalSeconds := total / rate
	seconds := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	minutes := totalMinutes % 60
	hours := totalMinutes / 60
	return fmt.Sprintf("%02d:%02d:%02d:%02d", hours, minutes, seconds, frames)
}

// TimeRange is always start+duration; end is derived, never stored.
type TimeRange struct {
	Start    RationalTime
	Duration RationalTime
}

func NewTimeRange(start, duration RationalTime) (TimeRange, error) {
	if start.Rate != duration.Rate {
		return TimeRange{}, &RateMismatchError{A: start.Rate, B: duration.Rate}
	}
	return TimeRange{Start: start, Duration: duration}, nil
}

func (r TimeRange) End() RationalTime {
	return RationalTime{Frames: r.Start.Frames + r.Duration.Frames, Rate: r.Start.Rate}
}
