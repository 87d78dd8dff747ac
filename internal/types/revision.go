package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type RevisionStatus string

const (
	RevisionStatusDraft     RevisionStatus = "draft"
	RevisionStatusQueued    RevisionStatus = "queued"
	RevisionStatusRunning   RevisionStatus = "running"
	RevisionStatusSucceeded RevisionStatus = "succeeded"
	RevisionStatusFailed    RevisionStatus = "failed"
)

// Revision is one generation attempt for a segment. ParentRevisionID forms a
// tree rooted at revisions with no parent ("branch from this take").
// OutputAssetID is set only on success, ErrorJSON only on failure.
type Revision struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SegmentID        uuid.UUID      `gorm:"type:uuid;column:segment_id;not null;index" json:"segment_id"`
	ParentRevisionID *uuid.UUID     `gorm:"type:uuid;column:parent_revision_id;index" json:"parent_revision_id,omitempty"`
	Provider         string         `gorm:"column:provider;not null;index" json:"provider"`
	Status           RevisionStatus `gorm:"column:status;not null;index" json:"status"`
	PromptJSON       datatypes.JSON `gorm:"column:prompt_json;type:jsonb" json:"prompt_json,omitempty"`
	BaseAssetID      *uuid.UUID     `gorm:"type:uuid;column:base_asset_id" json:"base_asset_id,omitempty"`
	OutputAssetID    *uuid.UUID     `gorm:"type:uuid;column:output_asset_id" json:"output_asset_id,omitempty"`
	ErrorJSON        datatypes.JSON `gorm:"column:error_json;type:jsonb" json:"error_json,omitempty"`
	MetricsJSON      datatypes.JSON `gorm:"column:metrics_json;type:jsonb" json:"metrics_json,omitempty"`
	CreatedAt        time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Revision) TableName() string { return "revision" }

func (r *Revision) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Status == "" {
		r.Status = RevisionStatusDraft
	}
	return nil
}
