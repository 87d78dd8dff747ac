package timeline

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func span(startSec, endSec float64) SegmentSpan {
	return SegmentSpan{SegmentID: uuid.New(), StartSec: startSec, EndSec: endSec}
}

func TestBuildTrackItemsEmitsGapAndClips(t *testing.T) {
	a := span(0, 2)   // frames 0..60
	b := span(4, 5)   // starts at frame 120, gap of 60 frames
	items, err := BuildTrackItems([]SegmentSpan{a, b}, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("items: want=3 got=%d", len(items))
	}
	if items[0].Kind != ItemKindClip || items[0].SegmentID != a.SegmentID {
		t.Fatalf("item 0: want clip %s got %+v", a.SegmentID, items[0])
	}
	if items[1].Kind != ItemKindGap || items[1].Duration.Frames != 60 {
		t.Fatalf("item 1: want 60-frame gap got %+v", items[1])
	}
	if items[2].Kind != ItemKindClip || items[2].Start.Frames != 120 || items[2].Duration.Frames != 30 {
		t.Fatalf("item 2: got %+v", items[2])
	}
}

func TestBuildTrackItemsSortsByStart(t *testing.T) {
	first := span(0, 1)
	second := span(1, 2)
	items, err := BuildTrackItems([]SegmentSpan{second, first}, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if items[0].SegmentID != first.SegmentID {
		t.Fatalf("expected earlier segment first, got %s", items[0].SegmentID)
	}
}

func TestBuildTrackItemsOneFrameGapIsElided(t *testing.T) {
	// Second segment starts exactly 1 frame after the first ends.
	a := span(0, 1)                   // ends at frame 30
	b := span(31.0/30.0, 61.0/30.0)   // starts at frame 31
	items, err := BuildTrackItems([]SegmentSpan{a, b}, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, item := range items {
		if item.Kind == ItemKindGap {
			t.Fatalf("1-frame separation must not produce a gap, got %+v", item)
		}
	}
	if len(items) != 2 {
		t.Fatalf("items: want=2 got=%d", len(items))
	}
}

func TestBuildTrackItemsNeverEmitsSubToleranceGap(t *testing.T) {
	spans := []SegmentSpan{
		span(0, 1),
		span(2, 3),
		span(3.5, 4),
	}
	items, err := BuildTrackItems(spans, 24)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, item := range items {
		if item.Kind == ItemKindGap && item.Duration.Frames < 2 {
			t.Fatalf("emitted gap shorter than 2 frames: %+v", item)
		}
	}
}

func TestBuildTrackItemsRejectsOverlap(t *testing.T) {
	a := span(0, 2)
	b := span(1, 3)
	_, err := BuildTrackItems([]SegmentSpan{a, b}, 30)
	var overlap *OverlapError
	if !errors.As(err, &overlap) {
		t.Fatalf("expected OverlapError, got=%v", err)
	}
	if overlap.SegmentID != b.SegmentID {
		t.Fatalf("overlap segment: want=%s got=%s", b.SegmentID, overlap.SegmentID)
	}
}

func TestBuildTrackItemsRejectsEmptySpan(t *testing.T) {
	bad := span(1, 1)
	_, err := BuildTrackItems([]SegmentSpan{bad}, 30)
	var se *SpanError
	if !errors.As(err, &se) {
		t.Fatalf("expected SpanError, got=%v", err)
	}
}

func TestBuildTrackItemsIsPureAndRestartable(t *testing.T) {
	spans := []SegmentSpan{span(4, 5), span(0, 2)}
	before := make([]SegmentSpan, len(spans))
	copy(before, spans)

	first, err := BuildTrackItems(spans, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := BuildTrackItems(spans, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(spans, before) {
		t.Fatalf("input mutated: before=%+v after=%+v", before, spans)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeat call diverged: first=%+v second=%+v", first, second)
	}
}

func TestExportEDL(t *testing.T) {
	a := span(0, 2)
	b := span(4, 5)
	items, err := BuildTrackItems([]SegmentSpan{a, b}, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	edl := ExportEDL("storyboard", items, 30)
	if !contains(edl, "TITLE: storyboard") {
		t.Fatalf("missing title in:\n%s", edl)
	}
	// First clip records at 0, second one after the 2s clip plus 2s gap of
	// record time... record timeline is gapless except explicit gaps: clip A
	// occupies 00:00-00:02, the gap advances record to 00:04.
	if !contains(edl, "00:00:00:00 00:00:02:00 00:00:00:00 00:00:02:00") {
		t.Fatalf("first event timecodes wrong:\n%s", edl)
	}
	if !contains(edl, "00:00:04:00 00:00:05:00 00:00:04:00 00:00:05:00") {
		t.Fatalf("second event timecodes wrong:\n%s", edl)
	}
}

func TestExportEDLSourceTimecodeReadsRecordedPosition(t *testing.T) {
	// Segment B starts exactly 1 frame after A ends, so the layout elides
	// the gap and B plays at 00:00:02:00 on the record side while its
	// recorded source position stays 00:00:02:01.
	a := span(0, 2)
	b := span(2+1.0/30, 4+1.0/30)
	items, err := BuildTrackItems([]SegmentSpan{a, b}, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 clips without a gap, got %+v", items)
	}

	edl := ExportEDL("storyboard", items, 30)
	if !contains(edl, "00:00:02:01 00:00:04:01 00:00:02:00 00:00:04:00") {
		t.Fatalf("snapped clip source timecodes wrong:\n%s", edl)
	}
}

func contains(s, sub string) bool { return strings.Contains(s, sub) }
