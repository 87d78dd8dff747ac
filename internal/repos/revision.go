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

// maxParentChainDepth bounds the acyclicity walk; a revision tree deeper than
// this is treated as corrupt.
const maxParentChainDepth = 1024

// RevisionCycleError rejects a parent pointer that is the revision itself or
// one of its descendants. The parent chain is a tree only by convention, so
// this check is enforced here.
type RevisionCycleError struct {
	RevisionID uuid.UUID
	ParentID   uuid.UUID
}

func (e *RevisionCycleError) Error() string {
	return fmt.Sprintf("revision %s: parent %s would create a cycle", e.RevisionID, e.ParentID)
}

// InvalidTransitionError reports a lifecycle move the state machine forbids.
type InvalidTransitionError struct {
	RevisionID uuid.UUID
	From       types.RevisionStatus
	To         types.RevisionStatus
	Reason     string
}

func (e *InvalidTransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("revision %s: cannot move %s -> %s: %s", e.RevisionID, e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("revision %s: cannot move %s -> %s", e.RevisionID, e.From, e.To)
}

// StaleTransitionError means the compare-and-set found the revision in a
// different status than expected; some other writer got there first.
type StaleTransitionError struct {
	RevisionID uuid.UUID
	Expected   types.RevisionStatus
}

func (e *StaleTransitionError) Error() string {
	return fmt.Sprintf("revision %s: status changed concurrently (expected %s)", e.RevisionID, e.Expected)
}

// ActiveRevisionDeleteError refuses deleting a revision while its segment's
// active pointer still names it.
type ActiveRevisionDeleteError struct {
	RevisionID uuid.UUID
	SegmentID  uuid.UUID
}

func (e *ActiveRevisionDeleteError) Error() string {
	return fmt.Sprintf("revision %s is the active revision of segment %s; clear or redirect the pointer first", e.RevisionID, e.SegmentID)
}

var allowedTransitions = map[types.RevisionStatus][]types.RevisionStatus{
	types.RevisionStatusDraft:   {types.RevisionStatusQueued},
	types.RevisionStatusQueued:  {types.RevisionStatusRunning},
	types.RevisionStatusRunning: {types.RevisionStatusSucceeded, types.RevisionStatusFailed},
	// failed is terminal for the attempt; retries spawn a child revision.
}

type RevisionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, revision *types.Revision) (*types.Revision, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Revision, error)
	ListBySegment(ctx context.Context, tx *gorm.DB, segmentID uuid.UUID) ([]*types.Revision, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	TransitionStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, from, to types.RevisionStatus, updates map[string]interface{}) error
	FindOrphanSucceeded(ctx context.Context, tx *gorm.DB) ([]*types.Revision, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type revisionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRevisionRepo(db *gorm.DB, baseLog *logger.Logger) RevisionRepo {
	return &revisionRepo{db: db, log: baseLog.With("repo", "RevisionRepo")}
}

func (r *revisionRepo) Create(ctx context.Context, tx *gorm.DB, revision *types.Revision) (*types.Revision, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if revision == nil {
		return nil, nil
	}
	if revision.ID == uuid.Nil {
		revision.ID = uuid.New()
	}
	if revision.ParentRevisionID != nil {
		if err := r.checkParentChain(ctx, transaction, revision.ID, revision.SegmentID, *revision.ParentRevisionID); err != nil {
			return nil, err
		}
	}
	if err := transaction.WithContext(ctx).Create(revision).Error; err != nil {
		return nil, err
	}
	return revision, nil
}

// checkParentChain walks parent pointers to the root, rejecting self-parents,
// cross-segment parents and cycles.
func (r *revisionRepo) checkParentChain(ctx context.Context, tx *gorm.DB, newID, segmentID, parentID uuid.UUID) error {
	if parentID == newID {
		return &RevisionCycleError{RevisionID: newID, ParentID: parentID}
	}
	seen := map[uuid.UUID]bool{newID: true}
	current := parentID
	for depth := 0; depth < maxParentChainDepth; depth++ {
		if seen[current] {
			return &RevisionCycleError{RevisionID: newID, ParentID: parentID}
		}
		seen[current] = true

		var parent types.Revision
		err := tx.WithContext(ctx).
			Select("id", "segment_id", "parent_revision_id").
			Where("id = ?", current).
			First(&parent).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("parent revision %s not found", current)
		}
		if err != nil {
			return err
		}
		if parent.SegmentID != segmentID {
			return fmt.Errorf("parent revision %s belongs to another segment", current)
		}
		if parent.ParentRevisionID == nil {
			return nil
		}
		current = *parent.ParentRevisionID
	}
	return &RevisionCycleError{RevisionID: newID, ParentID: parentID}
}

func (r *revisionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Revision, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var revision types.Revision
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&revision).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &revision, nil
}

func (r *revisionRepo) ListBySegment(ctx context.Context, tx *gorm.DB, segmentID uuid.UUID) ([]*types.Revision, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Revision
	if segmentID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(ctx).
		Where("segment_id = ?", segmentID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *revisionRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.Revision{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// TransitionStatus performs one lifecycle move as a compare-and-set on the
// current status. Succeeding requires output_asset_id in updates; failing
// requires error_json.
func (r *revisionRepo) TransitionStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, from, to types.RevisionStatus, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}

	if !transitionAllowed(from, to) {
		return &InvalidTransitionError{RevisionID: id, From: from, To: to}
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if to == types.RevisionStatusSucceeded {
		if v, ok := updates["output_asset_id"]; !ok || v == nil {
			return &InvalidTransitionError{RevisionID: id, From: from, To: to, Reason: "succeeded requires output_asset_id"}
		}
	}
	if to == types.RevisionStatusFailed {
		if v, ok := updates["error_json"]; !ok || v == nil {
			return &InvalidTransitionError{RevisionID: id, From: from, To: to, Reason: "failed requires error_json"}
		}
	}

	updates["status"] = to
	updates["updated_at"] = time.Now()

	result := transaction.WithContext(ctx).
		Model(&types.Revision{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &StaleTransitionError{RevisionID: id, Expected: from}
	}
	return nil
}

func transitionAllowed(from, to types.RevisionStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// FindOrphanSucceeded is the reconciliation read for the at-least-once
// activation discipline: succeeded revisions that are not their segment's
// active pointer.
func (r *revisionRepo) FindOrphanSucceeded(ctx context.Context, tx *gorm.DB) ([]*types.Revision, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Revision
	err := transaction.WithContext(ctx).
		Joins("JOIN segment ON segment.id = revision.segment_id").
		Where("revision.status = ?", types.RevisionStatusSucceeded).
		Where("segment.active_revision_id IS NULL OR segment.active_revision_id <> revision.id").
		Where("segment.deleted_at IS NULL").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *revisionRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}

	revision, err := r.GetByID(ctx, transaction, id)
	if err != nil {
		return err
	}
	if revision == nil {
		return nil
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Segment{}).
		Where("id = ? AND active_revision_id = ?", revision.SegmentID, id).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return &ActiveRevisionDeleteError{RevisionID: id, SegmentID: revision.SegmentID}
	}

	return transaction.WithContext(ctx).Where("id = ?", id).Delete(&types.Revision{}).Error
}
