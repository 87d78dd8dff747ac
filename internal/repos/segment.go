package repos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/XrOne/studio-jenial-sub004/internal/logger"
	"github.com/XrOne/studio-jenial-sub004/internal/types"
)

// InvalidSpanError rejects a segment whose out edge is not after its in edge.
type InvalidSpanError struct {
	SegmentID uuid.UUID
	InSec     float64
	OutSec    float64
}

func (e *InvalidSpanError) Error() string {
	return fmt.Sprintf("segment %s: out_sec (%v) must be greater than in_sec (%v)", e.SegmentID, e.OutSec, e.InSec)
}

// ForeignRevisionError rejects pointing active_revision_id at a revision that
// belongs to another segment.
type ForeignRevisionError struct {
	SegmentID  uuid.UUID
	RevisionID uuid.UUID
}

func (e *ForeignRevisionError) Error() string {
	return fmt.Sprintf("revision %s does not belong to segment %s", e.RevisionID, e.SegmentID)
}

type SegmentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, segment *types.Segment) (*types.Segment, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Segment, error)
	ListByTrack(ctx context.Context, tx *gorm.DB, trackID uuid.UUID) ([]*types.Segment, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	SetActiveRevision(ctx context.Context, tx *gorm.DB, segmentID uuid.UUID, revisionID *uuid.UUID) error
	SetLocked(ctx context.Context, tx *gorm.DB, segmentID uuid.UUID, locked bool) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type segmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSegmentRepo(db *gorm.DB, baseLog *logger.Logger) SegmentRepo {
	return &segmentRepo{db: db, log: baseLog.With("repo", "SegmentRepo")}
}

func (r *segmentRepo) Create(ctx context.Context, tx *gorm.DB, segment *types.Segment) (*types.Segment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if segment == nil {
		return nil, nil
	}
	if segment.OutSec <= segment.InSec {
		return nil, &InvalidSpanError{SegmentID: segment.ID, InSec: segment.InSec, OutSec: segment.OutSec}
	}
	if err := transaction.WithContext(ctx).Create(segment).Error; err != nil {
		return nil, err
	}
	return segment, nil
}

func (r *segmentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Segment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var segment types.Segment
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&segment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &segment, nil
}

func (r *segmentRepo) ListByTrack(ctx context.Context, tx *gorm.DB, trackID uuid.UUID) ([]*types.Segment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Segment
	if trackID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(ctx).
		Where("track_id = ?", trackID).
		Order("position ASC, created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *segmentRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return transaction.WithContext(ctx).
		Model(&types.Segment{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// SetActiveRevision re-points the active pointer. A non-nil revision must
// belong to this segment; nil clears the pointer.
func (r *segmentRepo) SetActiveRevision(ctx context.Context, tx *gorm.DB, segmentID uuid.UUID, revisionID *uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if segmentID == uuid.Nil {
		return nil
	}
	if revisionID != nil {
		var count int64
		if err := transaction.WithContext(ctx).
			Model(&types.Revision{}).
			Where("id = ? AND segment_id = ?", *revisionID, segmentID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return &ForeignRevisionError{SegmentID: segmentID, RevisionID: *revisionID}
		}
	}
	return transaction.WithContext(ctx).
		Model(&types.Segment{}).
		Where("id = ?", segmentID).
		Updates(map[string]interface{}{
			"active_revision_id": revisionID,
			"updated_at":         time.Now(),
		}).Error
}

func (r *segmentRepo) SetLocked(ctx context.Context, tx *gorm.DB, segmentID uuid.UUID, locked bool) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if segmentID == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Segment{}).
		Where("id = ?", segmentID).
		Updates(map[string]interface{}{
			"locked":     locked,
			"updated_at": time.Now(),
		}).Error
}

func (r *segmentRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).Where("id = ?", id).Delete(&types.Segment{}).Error
}
