package timeline

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// GapToleranceFrames absorbs float snap error from UI drag operations: a gap
// of at most this many frames is treated as contiguous. The elision is
// presentation-only; recorded segment positions are never touched.
const GapToleranceFrames = 1

type ItemKind string

const (
	ItemKindClip ItemKind = "clip"
	ItemKindGap  ItemKind = "gap"
)

// SegmentSpan is the slice of a segment the layout builder needs.
type SegmentSpan struct {
	SegmentID uuid.UUID
	Name      string
	StartSec  float64
	EndSec    float64
}

// TrackItem is one entry of a gapless track layout. Start is the snapped
// track position; SourceStart is the segment's recorded position. The two
// differ by up to GapToleranceFrames when a gap was elided.
type TrackItem struct {
	Kind        ItemKind     `json:"kind"`
	SegmentID   uuid.UUID    `json:"segment_id,omitempty"`
	Name        string       `json:"name,omitempty"`
	Start       RationalTime `json:"start"`
	SourceStart RationalTime `json:"source_start"`
	Duration    RationalTime `json:"duration"`
}

// OverlapError reports two segments occupying the same frames. Overlap
// resolution (trim-and-push, reject, ...) is the caller's policy, not ours.
type OverlapError struct {
	SegmentID     uuid.UUID
	OverlapFrames int64
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("segment %s overlaps previous segment by %d frame(s)", e.SegmentID, e.OverlapFrames)
}

// SpanError reports a segment whose recorded span is not strictly positive.
type SpanError struct {
	SegmentID uuid.UUID
	StartSec  float64
	EndSec    float64
}

func (e *SpanError) Error() string {
	return fmt.Sprintf("segment %s has invalid span [%v, %v): end must be after start", e.SegmentID, e.StartSec, e.EndSec)
}

// BuildTrackItems converts an unordered set of segment spans into the ordered
// clip/gap sequence of one track. Pure: inputs are never mutated and every
// call returns a freshly built slice.
//
// Segments are stable-sorted by start frame (ties keep insertion order), then
// walked with a running frame cursor. A positive gap wider than
// GapToleranceFrames becomes a Gap item; a gap within tolerance is elided; a
// negative gap is rejected as an overlap.
func BuildTrackItems(spans []SegmentSpan, rate int) ([]TrackItem, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("invalid frame rate %d", rate)
	}

	ordered := make([]SegmentSpan, len(spans))
	copy(ordered, spans)
	sort.SliceStable(ordered, func(i, j int) bool {
		return FromSeconds(ordered[i].StartSec, rate).Frames < FromSeconds(ordered[j].StartSec, rate).Frames
	})

	items := make([]TrackItem, 0, len(ordered)*2)
	currentFrame := int64(0)

	for _, span := range ordered {
		start := FromSeconds(span.StartSec, rate)
		end := FromSeconds(span.EndSec, rate)
		durFrames := end.Frames - start.Frames
		if durFrames <= 0 {
			return nil, &SpanError{SegmentID: span.SegmentID, StartSec: span.StartSec, EndSec: span.EndSec}
		}

		gapFrames := start.Frames - currentFrame
		if gapFrames < 0 {
			return nil, &OverlapError{SegmentID: span.SegmentID, OverlapFrames: -gapFrames}
		}
		if gapFrames > GapToleranceFrames {
			items = append(items, TrackItem{
				Kind:        ItemKindGap,
				Start:       RationalTime{Frames: currentFrame, Rate: rate},
				SourceStart: RationalTime{Frames: currentFrame, Rate: rate},
				Duration:    RationalTime{Frames: gapFrames, Rate: rate},
			})
			currentFrame += gapFrames
		}
		// 0 < gapFrames <= tolerance: treat as contiguous, emit nothing.

		items = append(items, TrackItem{
			Kind:        ItemKindClip,
			SegmentID:   span.SegmentID,
			Name:        span.Name,
			Start:       RationalTime{Frames: currentFrame, Rate: rate},
			SourceStart: start,
			Duration:    RationalTime{Frames: durFrames, Rate: rate},
		})
		currentFrame += durFrames
	}

	return items, nil
}
