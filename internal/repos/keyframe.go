package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/XrOne/studio-jenial-sub004/internal/logger"
	"github.com/XrOne/studio-jenial-sub004/internal/types"
)

type KeyframeRepo interface {
	Create(ctx context.Context, tx *gorm.DB, keyframe *types.Keyframe) (*types.Keyframe, error)
	ListByRevision(ctx context.Context, tx *gorm.DB, revisionID uuid.UUID) ([]*types.Keyframe, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type keyframeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewKeyframeRepo(db *gorm.DB, baseLog *logger.Logger) KeyframeRepo {
	return &keyframeRepo{db: db, log: baseLog.With("repo", "KeyframeRepo")}
}

func (r *keyframeRepo) Create(ctx context.Context, tx *gorm.DB, keyframe *types.Keyframe) (*types.Keyframe, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if keyframe == nil {
		return nil, nil
	}
	if keyframe.Role == "" {
		keyframe.Role = types.KeyframeRoleShot
	}
	if err := transaction.WithContext(ctx).Create(keyframe).Error; err != nil {
		return nil, err
	}
	return keyframe, nil
}

func (r *keyframeRepo) ListByRevision(ctx context.Context, tx *gorm.DB, revisionID uuid.UUID) ([]*types.Keyframe, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Keyframe
	if revisionID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(ctx).
		Where("revision_id = ?", revisionID).
		Order("at_sec ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *keyframeRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).Where("id = ?", id).Delete(&types.Keyframe{}).Error
}
