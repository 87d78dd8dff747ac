package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type KeyframeRole string

const (
	KeyframeRoleRoot KeyframeRole = "root"
	KeyframeRoleShot KeyframeRole = "shot"
)

// Keyframe is a time-stamped reference from a revision to an asset, used for
// multi-image and multi-shot generation. Many keyframes may reference the
// same asset.
type Keyframe struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	RevisionID uuid.UUID      `gorm:"type:uuid;column:revision_id;not null;index" json:"revision_id"`
	AssetID    uuid.UUID      `gorm:"type:uuid;column:asset_id;not null;index" json:"asset_id"`
	AtSec      float64        `gorm:"column:at_sec;not null" json:"at_sec"`
	Role       KeyframeRole   `gorm:"column:role;not null;default:shot" json:"role"`
	Label      string         `gorm:"column:label" json:"label,omitempty"`
	CreatedAt  time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Keyframe) TableName() string { return "keyframe" }

func (k *Keyframe) BeforeCreate(tx *gorm.DB) error {
	if k.ID == uuid.Nil {
		k.ID = uuid.New()
	}
	return nil
}
