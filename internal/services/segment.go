package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/XrOne/studio-jenial-sub004/internal/logger"
	"github.com/XrOne/studio-jenial-sub004/internal/repos"
	"github.com/XrOne/studio-jenial-sub004/internal/timeline"
	"github.com/XrOne/studio-jenial-sub004/internal/types"
)

type CreateSegmentInput struct {
	ProjectID uuid.UUID `json:"project_id"`
	TrackID   uuid.UUID `json:"track_id"`
	Position  int       `json:"position"`
	InSec     float64   `json:"in_sec"`
	OutSec    float64   `json:"out_sec"`
}

type UpdateTimingInput struct {
	SegmentID uuid.UUID `json:"segment_id"`
	InSec     float64   `json:"in_sec"`
	OutSec    float64   `json:"out_sec"`
}

// NotFoundError covers lookups by id across the timeline entities.
type NotFoundError struct {
	Entity string
	ID     uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// NotSucceededError rejects activating a revision that has not produced an
// output yet.
type NotSucceededError struct {
	RevisionID uuid.UUID
	Status     types.RevisionStatus
}

func (e *NotSucceededError) Error() string {
	return fmt.Sprintf("revision %s is %s, only succeeded revisions can be activated", e.RevisionID, e.Status)
}

type SegmentService interface {
	Create(ctx context.Context, input CreateSegmentInput) (*types.Segment, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Segment, error)
	UpdateTiming(ctx context.Context, input UpdateTimingInput) (*types.Segment, error)
	SetLocked(ctx context.Context, segmentID uuid.UUID, locked bool) error
	ActivateRevision(ctx context.Context, segmentID uuid.UUID, revisionID *uuid.UUID) error
	ListRevisions(ctx context.Context, segmentID uuid.UUID) ([]*types.Revision, error)
	Delete(ctx context.Context, id uuid.UUID) error
	TrackLayout(ctx context.Context, trackID uuid.UUID) ([]timeline.TrackItem, error)
	ExportEDL(ctx context.Context, trackID uuid.UUID) (string, error)
}

type segmentService struct {
	log      *logger.Logger
	projects repos.ProjectRepo
	tracks   repos.TrackRepo
	segments repos.SegmentRepo
	revs     repos.RevisionRepo
	notifier RevisionNotifier
}

func NewSegmentService(
	log *logger.Logger,
	projects repos.ProjectRepo,
	tracks repos.TrackRepo,
	segments repos.SegmentRepo,
	revs repos.RevisionRepo,
	notifier RevisionNotifier,
) SegmentService {
	return &segmentService{
		log:      log.With("service", "SegmentService"),
		projects: projects,
		tracks:   tracks,
		segments: segments,
		revs:     revs,
		notifier: notifier,
	}
}

func (s *segmentService) Create(ctx context.Context, input CreateSegmentInput) (*types.Segment, error) {
	track, err := s.tracks.GetByID(ctx, nil, input.TrackID)
	if err != nil {
		return nil, err
	}
	if track == nil {
		return nil, &NotFoundError{Entity: "track", ID: input.TrackID}
	}

	candidate := &types.Segment{
		ProjectID: track.ProjectID,
		TrackID:   track.ID,
		Position:  input.Position,
		InSec:     input.InSec,
		OutSec:    input.OutSec,
	}
	if err := s.checkLayout(ctx, track, candidate, uuid.Nil); err != nil {
		return nil, err
	}
	return s.segments.Create(ctx, nil, candidate)
}

func (s *segmentService) Get(ctx context.Context, id uuid.UUID) (*types.Segment, error) {
	segment, err := s.segments.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if segment == nil {
		return nil, &NotFoundError{Entity: "segment", ID: id}
	}
	return segment, nil
}

func (s *segmentService) UpdateTiming(ctx context.Context, input UpdateTimingInput) (*types.Segment, error) {
	segment, err := s.Get(ctx, input.SegmentID)
	if err != nil {
		return nil, err
	}
	track, err := s.tracks.GetByID(ctx, nil, segment.TrackID)
	if err != nil {
		return nil, err
	}
	if track == nil {
		return nil, &NotFoundError{Entity: "track", ID: segment.TrackID}
	}

	moved := *segment
	moved.InSec = input.InSec
	moved.OutSec = input.OutSec
	if err := s.checkLayout(ctx, track, &moved, segment.ID); err != nil {
		return nil, err
	}

	if err := s.segments.UpdateFields(ctx, nil, segment.ID, map[string]interface{}{
		"in_sec":  input.InSec,
		"out_sec": input.OutSec,
	}); err != nil {
		return nil, err
	}
	return s.Get(ctx, segment.ID)
}

// checkLayout rebuilds the track layout with the candidate in place so
// overlapping or degenerate spans are rejected before they hit the table.
// excludeID skips the pre-move row of the segment being edited.
func (s *segmentService) checkLayout(ctx context.Context, track *types.Track, candidate *types.Segment, excludeID uuid.UUID) error {
	rate, err := s.frameRate(ctx, track.ProjectID)
	if err != nil {
		return err
	}

	siblings, err := s.segments.ListByTrack(ctx, nil, track.ID)
	if err != nil {
		return err
	}
	spans := make([]timeline.SegmentSpan, 0, len(siblings)+1)
	for _, sibling := range siblings {
		if sibling.ID == excludeID {
			continue
		}
		spans = append(spans, segmentSpan(sibling))
	}
	spans = append(spans, segmentSpan(candidate))

	_, err = timeline.BuildTrackItems(spans, rate)
	return err
}

func (s *segmentService) frameRate(ctx context.Context, projectID uuid.UUID) (int, error) {
	project, err := s.projects.GetByID(ctx, nil, projectID)
	if err != nil {
		return 0, err
	}
	if project == nil {
		return 0, &NotFoundError{Entity: "project", ID: projectID}
	}
	return project.FrameRate, nil
}

func segmentSpan(segment *types.Segment) timeline.SegmentSpan {
	return timeline.SegmentSpan{
		SegmentID: segment.ID,
		Name:      segmentName(segment),
		StartSec:  segment.InSec,
		EndSec:    segment.OutSec,
	}
}

func segmentName(segment *types.Segment) string {
	if segment.ID == uuid.Nil {
		return fmt.Sprintf("SEG %03d", segment.Position+1)
	}
	return fmt.Sprintf("SEG %03d %s", segment.Position+1, segment.ID.String()[:8])
}

func (s *segmentService) SetLocked(ctx context.Context, segmentID uuid.UUID, locked bool) error {
	segment, err := s.Get(ctx, segmentID)
	if err != nil {
		return err
	}
	return s.segments.SetLocked(ctx, nil, segment.ID, locked)
}

// ActivateRevision repoints the segment at a succeeded revision, or clears
// the pointer when revisionID is nil. Manual activation works on locked
// segments; the lock only suppresses the automatic repoint after generation.
func (s *segmentService) ActivateRevision(ctx context.Context, segmentID uuid.UUID, revisionID *uuid.UUID) error {
	segment, err := s.Get(ctx, segmentID)
	if err != nil {
		return err
	}
	if revisionID != nil {
		rev, err := s.revs.GetByID(ctx, nil, *revisionID)
		if err != nil {
			return err
		}
		if rev == nil {
			return &NotFoundError{Entity: "revision", ID: *revisionID}
		}
		if rev.Status != types.RevisionStatusSucceeded {
			return &NotSucceededError{RevisionID: rev.ID, Status: rev.Status}
		}
	}
	if err := s.segments.SetActiveRevision(ctx, nil, segment.ID, revisionID); err != nil {
		return err
	}
	if revisionID != nil && s.notifier != nil {
		s.notifier.SegmentActivated(segment.ProjectID, segment.ID, *revisionID)
	}
	return nil
}

func (s *segmentService) ListRevisions(ctx context.Context, segmentID uuid.UUID) ([]*types.Revision, error) {
	if _, err := s.Get(ctx, segmentID); err != nil {
		return nil, err
	}
	return s.revs.ListBySegment(ctx, nil, segmentID)
}

func (s *segmentService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.segments.Delete(ctx, nil, id)
}

func (s *segmentService) TrackLayout(ctx context.Context, trackID uuid.UUID) ([]timeline.TrackItem, error) {
	track, err := s.tracks.GetByID(ctx, nil, trackID)
	if err != nil {
		return nil, err
	}
	if track == nil {
		return nil, &NotFoundError{Entity: "track", ID: trackID}
	}
	rate, err := s.frameRate(ctx, track.ProjectID)
	if err != nil {
		return nil, err
	}
	segments, err := s.segments.ListByTrack(ctx, nil, trackID)
	if err != nil {
		return nil, err
	}
	spans := make([]timeline.SegmentSpan, 0, len(segments))
	for _, segment := range segments {
		spans = append(spans, segmentSpan(segment))
	}
	return timeline.BuildTrackItems(spans, rate)
}

func (s *segmentService) ExportEDL(ctx context.Context, trackID uuid.UUID) (string, error) {
	track, err := s.tracks.GetByID(ctx, nil, trackID)
	if err != nil {
		return "", err
	}
	if track == nil {
		return "", &NotFoundError{Entity: "track", ID: trackID}
	}
	project, err := s.projects.GetByID(ctx, nil, track.ProjectID)
	if err != nil {
		return "", err
	}
	if project == nil {
		return "", &NotFoundError{Entity: "project", ID: track.ProjectID}
	}
	items, err := s.TrackLayout(ctx, trackID)
	if err != nil {
		return "", err
	}
	return timeline.ExportEDL(project.Name, items, project.FrameRate), nil
}
