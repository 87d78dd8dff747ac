package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AssetKind string

const (
	AssetKindImage AssetKind = "image"
	AssetKindVideo AssetKind = "video"
)

// Asset is an immutable record of a stored media object. It is owned by the
// revision that first produced it; later revisions and keyframes reference it
// without taking ownership.
type Asset struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Kind            AssetKind      `gorm:"column:kind;not null;index" json:"kind"`
	StorageKey      string         `gorm:"column:storage_key;not null;index" json:"storage_key"`
	StorageProvider string         `gorm:"column:storage_provider;not null" json:"storage_provider"`
	URL             string         `gorm:"column:url" json:"url,omitempty"`
	Mime            string         `gorm:"column:mime" json:"mime,omitempty"`
	SizeBytes       int64          `gorm:"column:size_bytes" json:"size_bytes,omitempty"`
	Width           *int           `gorm:"column:width" json:"width,omitempty"`
	Height          *int           `gorm:"column:height" json:"height,omitempty"`
	DurationSec     *float64       `gorm:"column:duration_sec" json:"duration_sec,omitempty"`
	OwnerRevisionID uuid.UUID      `gorm:"type:uuid;column:owner_revision_id;not null;index" json:"owner_revision_id"`
	Metadata        datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt       time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Asset) TableName() string { return "asset" }

func (a *Asset) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
