package repos

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/XrOne/studio-jenial-sub004/internal/logger"
	"github.com/XrOne/studio-jenial-sub004/internal/types"
)

var testDBSeq int

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDBSeq++
	dsn := fmt.Sprintf("file:repos_test_%d?mode=memory&cache=shared", testDBSeq)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&types.Project{},
		&types.Track{},
		&types.Segment{},
		&types.Revision{},
		&types.Asset{},
		&types.Keyframe{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

type fixture struct {
	db       *gorm.DB
	projects ProjectRepo
	tracks   TrackRepo
	segments SegmentRepo
	revs     RevisionRepo
	assets   AssetRepo

	project *types.Project
	track   *types.Track
	segment *types.Segment
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testDB(t)
	log := testLogger(t)
	f := &fixture{
		db:       db,
		projects: NewProjectRepo(db, log),
		tracks:   NewTrackRepo(db, log),
		segments: NewSegmentRepo(db, log),
		revs:     NewRevisionRepo(db, log),
		assets:   NewAssetRepo(db, log),
	}

	ctx := context.Background()
	project, err := f.projects.Create(ctx, nil, &types.Project{Name: "storyboard", FrameRate: 30})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	f.project = project

	track, err := f.tracks.Create(ctx, nil, &types.Track{ProjectID: project.ID, Kind: types.TrackKindVideo})
	if err != nil {
		t.Fatalf("create track: %v", err)
	}
	f.track = track

	segment, err := f.segments.Create(ctx, nil, &types.Segment{
		ProjectID: project.ID,
		TrackID:   track.ID,
		Position:  0,
		InSec:     0,
		OutSec:    4,
	})
	if err != nil {
		t.Fatalf("create segment: %v", err)
	}
	f.segment = segment
	return f
}

func (f *fixture) newRevision(t *testing.T, status types.RevisionStatus) *types.Revision {
	t.Helper()
	rev, err := f.revs.Create(context.Background(), nil, &types.Revision{
		SegmentID: f.segment.ID,
		Provider:  "mock",
		Status:    status,
	})
	if err != nil {
		t.Fatalf("create revision: %v", err)
	}
	return rev
}

func TestSegmentCreateRejectsInvalidSpan(t *testing.T) {
	f := newFixture(t)
	_, err := f.segments.Create(context.Background(), nil, &types.Segment{
		ProjectID: f.project.ID,
		TrackID:   f.track.ID,
		InSec:     2,
		OutSec:    2,
	})
	var se *InvalidSpanError
	if !errors.As(err, &se) {
		t.Fatalf("want InvalidSpanError, got %v", err)
	}
}

func TestSetActiveRevisionRejectsForeignRevision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other, err := f.segments.Create(ctx, nil, &types.Segment{
		ProjectID: f.project.ID,
		TrackID:   f.track.ID,
		Position:  1,
		InSec:     4,
		OutSec:    8,
	})
	if err != nil {
		t.Fatalf("create segment: %v", err)
	}
	rev := f.newRevision(t, types.RevisionStatusDraft)

	err = f.segments.SetActiveRevision(ctx, nil, other.ID, &rev.ID)
	var fe *ForeignRevisionError
	if !errors.As(err, &fe) {
		t.Fatalf("want ForeignRevisionError, got %v", err)
	}

	if err := f.segments.SetActiveRevision(ctx, nil, f.segment.ID, &rev.ID); err != nil {
		t.Fatalf("own revision must be accepted: %v", err)
	}
	got, err := f.segments.GetByID(ctx, nil, f.segment.ID)
	if err != nil {
		t.Fatalf("get segment: %v", err)
	}
	if got.ActiveRevisionID == nil || *got.ActiveRevisionID != rev.ID {
		t.Fatalf("active pointer not set: %+v", got.ActiveRevisionID)
	}
}

func TestRevisionLifecycleTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rev := f.newRevision(t, types.RevisionStatusDraft)

	if err := f.revs.TransitionStatus(ctx, nil, rev.ID, types.RevisionStatusDraft, types.RevisionStatusQueued, nil); err != nil {
		t.Fatalf("draft->queued: %v", err)
	}
	if err := f.revs.TransitionStatus(ctx, nil, rev.ID, types.RevisionStatusQueued, types.RevisionStatusRunning, nil); err != nil {
		t.Fatalf("queued->running: %v", err)
	}

	assetID := uuid.New()
	if err := f.revs.TransitionStatus(ctx, nil, rev.ID, types.RevisionStatusRunning, types.RevisionStatusSucceeded, map[string]interface{}{
		"output_asset_id": assetID,
	}); err != nil {
		t.Fatalf("running->succeeded: %v", err)
	}

	got, err := f.revs.GetByID(ctx, nil, rev.ID)
	if err != nil {
		t.Fatalf("get revision: %v", err)
	}
	if got.Status != types.RevisionStatusSucceeded {
		t.Fatalf("status: want=succeeded got=%s", got.Status)
	}
	if got.OutputAssetID == nil || *got.OutputAssetID != assetID {
		t.Fatalf("output asset: got=%v", got.OutputAssetID)
	}
}

func TestRevisionCannotSucceedWithoutOutput(t *testing.T) {
	f := newFixture(t)
	rev := f.newRevision(t, types.RevisionStatusRunning)

	err := f.revs.TransitionStatus(context.Background(), nil, rev.ID, types.RevisionStatusRunning, types.RevisionStatusSucceeded, nil)
	var ie *InvalidTransitionError
	if !errors.As(err, &ie) {
		t.Fatalf("want InvalidTransitionError, got %v", err)
	}
}

func TestRevisionCannotFailWithoutErrorCode(t *testing.T) {
	f := newFixture(t)
	rev := f.newRevision(t, types.RevisionStatusRunning)

	err := f.revs.TransitionStatus(context.Background(), nil, rev.ID, types.RevisionStatusRunning, types.RevisionStatusFailed, nil)
	var ie *InvalidTransitionError
	if !errors.As(err, &ie) {
		t.Fatalf("want InvalidTransitionError, got %v", err)
	}

	if err := f.revs.TransitionStatus(context.Background(), nil, rev.ID, types.RevisionStatusRunning, types.RevisionStatusFailed, map[string]interface{}{
		"error_json": []byte(`{"code":"Timeout","message":"operation did not complete"}`),
	}); err != nil {
		t.Fatalf("failed with error_json must work: %v", err)
	}
}

func TestRevisionTransitionSkipStatesRejected(t *testing.T) {
	f := newFixture(t)
	rev := f.newRevision(t, types.RevisionStatusDraft)

	err := f.revs.TransitionStatus(context.Background(), nil, rev.ID, types.RevisionStatusDraft, types.RevisionStatusSucceeded, map[string]interface{}{
		"output_asset_id": uuid.New(),
	})
	var ie *InvalidTransitionError
	if !errors.As(err, &ie) {
		t.Fatalf("draft->succeeded must be rejected, got %v", err)
	}
}

func TestRevisionTransitionIsCompareAndSet(t *testing.T) {
	f := newFixture(t)
	rev := f.newRevision(t, types.RevisionStatusQueued)

	// A concurrent writer already moved it to running.
	if err := f.revs.TransitionStatus(context.Background(), nil, rev.ID, types.RevisionStatusQueued, types.RevisionStatusRunning, nil); err != nil {
		t.Fatalf("first transition: %v", err)
	}
	err := f.revs.TransitionStatus(context.Background(), nil, rev.ID, types.RevisionStatusQueued, types.RevisionStatusRunning, nil)
	var se *StaleTransitionError
	if !errors.As(err, &se) {
		t.Fatalf("want StaleTransitionError, got %v", err)
	}
}

func TestRevisionParentCycleRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	root := f.newRevision(t, types.RevisionStatusFailed)

	selfID := uuid.New()
	_, err := f.revs.Create(ctx, nil, &types.Revision{
		ID:               selfID,
		SegmentID:        f.segment.ID,
		Provider:         "mock",
		ParentRevisionID: &selfID,
	})
	var ce *RevisionCycleError
	if !errors.As(err, &ce) {
		t.Fatalf("self-parent must be rejected, got %v", err)
	}

	child, err := f.revs.Create(ctx, nil, &types.Revision{
		SegmentID:        f.segment.ID,
		Provider:         "mock",
		ParentRevisionID: &root.ID,
	})
	if err != nil {
		t.Fatalf("valid child: %v", err)
	}
	if child.ParentRevisionID == nil || *child.ParentRevisionID != root.ID {
		t.Fatalf("parent pointer lost: %+v", child.ParentRevisionID)
	}
}

func TestRevisionDeleteGuardedByActivePointer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rev := f.newRevision(t, types.RevisionStatusSucceeded)

	if err := f.segments.SetActiveRevision(ctx, nil, f.segment.ID, &rev.ID); err != nil {
		t.Fatalf("activate: %v", err)
	}

	err := f.revs.Delete(ctx, nil, rev.ID)
	var ae *ActiveRevisionDeleteError
	if !errors.As(err, &ae) {
		t.Fatalf("want ActiveRevisionDeleteError, got %v", err)
	}

	if err := f.segments.SetActiveRevision(ctx, nil, f.segment.ID, nil); err != nil {
		t.Fatalf("clear pointer: %v", err)
	}
	if err := f.revs.Delete(ctx, nil, rev.ID); err != nil {
		t.Fatalf("delete after clearing pointer: %v", err)
	}
}

func TestFindOrphanSucceeded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	orphan := f.newRevision(t, types.RevisionStatusSucceeded)
	active := f.newRevision(t, types.RevisionStatusSucceeded)
	if err := f.segments.SetActiveRevision(ctx, nil, f.segment.ID, &active.ID); err != nil {
		t.Fatalf("activate: %v", err)
	}

	orphans, err := f.revs.FindOrphanSucceeded(ctx, nil)
	if err != nil {
		t.Fatalf("find orphans: %v", err)
	}
	if len(orphans) != 1 || orphans[0].ID != orphan.ID {
		t.Fatalf("orphans: want=[%s] got=%v", orphan.ID, orphans)
	}
}

func TestListByTrackOrdersByPosition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	second, err := f.segments.Create(ctx, nil, &types.Segment{
		ProjectID: f.project.ID,
		TrackID:   f.track.ID,
		Position:  1,
		InSec:     4,
		OutSec:    8,
	})
	if err != nil {
		t.Fatalf("create segment: %v", err)
	}

	segments, err := f.segments.ListByTrack(ctx, nil, f.track.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("segments: want=2 got=%d", len(segments))
	}
	if segments[0].ID != f.segment.ID || segments[1].ID != second.ID {
		t.Fatalf("ordering wrong: %v then %v", segments[0].Position, segments[1].Position)
	}
}
