package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/XrOne/studio-jenial-sub004/internal/timeline"
	"github.com/XrOne/studio-jenial-sub004/internal/types"
)

func TestCreateSegmentRejectsOverlap(t *testing.T) {
	env := newSvcEnv(t, nil)
	ctx := context.Background()

	// Seeded segment occupies [0,4). A second one starting inside it must be
	// rejected before anything is written.
	_, err := env.seg.Create(ctx, CreateSegmentInput{
		TrackID:  env.track.ID,
		Position: 1,
		InSec:    3.5,
		OutSec:   6,
	})
	var oe *timeline.OverlapError
	if !errors.As(err, &oe) {
		t.Fatalf("want OverlapError, got %v", err)
	}

	segs, err := env.segments.ListByTrack(ctx, nil, env.track.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(segs) != 1 {
		t.Fatalf("rejected segment must not be persisted, have %d", len(segs))
	}
}

func TestUpdateTimingRejectsOverlapKeepsOriginal(t *testing.T) {
	env := newSvcEnv(t, nil)
	ctx := context.Background()

	second, err := env.seg.Create(ctx, CreateSegmentInput{
		TrackID:  env.track.ID,
		Position: 1,
		InSec:    4,
		OutSec:   8,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = env.seg.UpdateTiming(ctx, UpdateTimingInput{
		SegmentID: second.ID,
		InSec:     2,
		OutSec:    6,
	})
	var oe *timeline.OverlapError
	if !errors.As(err, &oe) {
		t.Fatalf("want OverlapError, got %v", err)
	}

	got, err := env.seg.Get(ctx, second.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.InSec != 4 || got.OutSec != 8 {
		t.Fatalf("timing must be unchanged after rejection: [%v,%v)", got.InSec, got.OutSec)
	}
}

func TestUpdateTimingAllowsMovingWithinOwnSlot(t *testing.T) {
	env := newSvcEnv(t, nil)
	ctx := context.Background()

	got, err := env.seg.UpdateTiming(ctx, UpdateTimingInput{
		SegmentID: env.segment.ID,
		InSec:     1,
		OutSec:    3,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.InSec != 1 || got.OutSec != 3 {
		t.Fatalf("timing not applied: [%v,%v)", got.InSec, got.OutSec)
	}
}

func TestTrackLayoutEmitsGaps(t *testing.T) {
	env := newSvcEnv(t, nil)
	ctx := context.Background()

	if _, err := env.seg.Create(ctx, CreateSegmentInput{
		TrackID:  env.track.ID,
		Position: 1,
		InSec:    6,
		OutSec:   8,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	items, err := env.seg.TrackLayout(ctx, env.track.ID)
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("items: want=3 got=%d", len(items))
	}
	if items[0].Kind != timeline.ItemKindClip || items[1].Kind != timeline.ItemKindGap || items[2].Kind != timeline.ItemKindClip {
		t.Fatalf("layout shape wrong: %v %v %v", items[0].Kind, items[1].Kind, items[2].Kind)
	}
}

func TestActivateRevisionRequiresSucceeded(t *testing.T) {
	env := newSvcEnv(t, nil)
	ctx := context.Background()

	draft, err := env.revs.Create(ctx, nil, &types.Revision{
		SegmentID: env.segment.ID,
		Provider:  "mock",
	})
	if err != nil {
		t.Fatalf("create revision: %v", err)
	}

	err = env.seg.ActivateRevision(ctx, env.segment.ID, &draft.ID)
	var ns *NotSucceededError
	if !errors.As(err, &ns) {
		t.Fatalf("want NotSucceededError, got %v", err)
	}
}

func TestActivateRevisionClearsPointer(t *testing.T) {
	env := newSvcEnv(t, nil)
	ctx := context.Background()

	done, err := env.revs.Create(ctx, nil, &types.Revision{
		SegmentID: env.segment.ID,
		Provider:  "mock",
		Status:    types.RevisionStatusSucceeded,
	})
	if err != nil {
		t.Fatalf("create revision: %v", err)
	}
	if err := env.seg.ActivateRevision(ctx, env.segment.ID, &done.ID); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if err := env.seg.ActivateRevision(ctx, env.segment.ID, nil); err != nil {
		t.Fatalf("clear: %v", err)
	}
	got, err := env.seg.Get(ctx, env.segment.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ActiveRevisionID != nil {
		t.Fatalf("pointer must be cleared, got %v", got.ActiveRevisionID)
	}
}

func TestExportEDLListsClips(t *testing.T) {
	env := newSvcEnv(t, nil)
	ctx := context.Background()

	edl, err := env.seg.ExportEDL(ctx, env.track.ID)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(edl, "TITLE:") {
		t.Fatalf("missing title header:\n%s", edl)
	}
	if !strings.Contains(edl, "00:00:04:00") {
		t.Fatalf("expected out point timecode in EDL:\n%s", edl)
	}
}
