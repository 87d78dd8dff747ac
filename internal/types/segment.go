package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Segment is a clip slot on a track. ActiveRevisionID stays nil until at
// least one revision succeeds; when set it must name a revision whose
// SegmentID is this segment.
type Segment struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID        uuid.UUID      `gorm:"type:uuid;column:project_id;not null;index" json:"project_id"`
	TrackID          uuid.UUID      `gorm:"type:uuid;column:track_id;not null;index" json:"track_id"`
	Position         int            `gorm:"column:position;not null" json:"position"`
	InSec            float64        `gorm:"column:in_sec;not null" json:"in_sec"`
	OutSec           float64        `gorm:"column:out_sec;not null" json:"out_sec"`
	ActiveRevisionID *uuid.UUID     `gorm:"type:uuid;column:active_revision_id;index" json:"active_revision_id,omitempty"`
	Locked           bool           `gorm:"column:locked;not null;default:false" json:"locked"`
	CreatedAt        time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Segment) TableName() string { return "segment" }

func (s *Segment) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
