package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/XrOne/studio-jenial-sub004/internal/logger"
	"github.com/XrOne/studio-jenial-sub004/internal/types"
)

type TrackRepo interface {
	Create(ctx context.Context, tx *gorm.DB, track *types.Track) (*types.Track, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Track, error)
	ListByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) ([]*types.Track, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type trackRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTrackRepo(db *gorm.DB, baseLog *logger.Logger) TrackRepo {
	return &trackRepo{db: db, log: baseLog.With("repo", "TrackRepo")}
}

func (r *trackRepo) Create(ctx context.Context, tx *gorm.DB, track *types.Track) (*types.Track, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if track == nil {
		return nil, nil
	}
	if track.Kind == "" {
		track.Kind = types.TrackKindVideo
	}
	if err := transaction.WithContext(ctx).Create(track).Error; err != nil {
		return nil, err
	}
	return track, nil
}

func (r *trackRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Track, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var track types.Track
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&track).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &track, nil
}

func (r *trackRepo) ListByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) ([]*types.Track, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Track
	if projectID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("position ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *trackRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).Where("id = ?", id).Delete(&types.Track{}).Error
}
