package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TrackKind string

const (
	TrackKindVideo TrackKind = "video"
	TrackKindAudio TrackKind = "audio"
)

// Track is a layout/visibility grouping only; it carries no generation state.
type Track struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID      `gorm:"type:uuid;column:project_id;not null;index" json:"project_id"`
	Kind      TrackKind      `gorm:"column:kind;not null;index" json:"kind"`
	Name      string         `gorm:"column:name" json:"name,omitempty"`
	Position  int            `gorm:"column:position;not null" json:"position"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Track) TableName() string { return "track" }

func (t *Track) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
