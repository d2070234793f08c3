package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ImportStatusQueued     = "queued"
	ImportStatusProcessing = "processing"
	ImportStatusCompleted  = "completed"
	ImportStatusFailed     = "failed"
)

// ImportRun is both the import-batch metadata row and the job row the worker
// claims. One row per ingestion run; completed/failed are terminal.
type ImportRun struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	FileName   string `gorm:"column:file_name;not null" json:"file_name"`
	FilePath   string `gorm:"column:file_path;not null" json:"file_path"`
	FileFormat string `gorm:"column:file_format;not null" json:"file_format"` // xlsx|csv

	Status   string `gorm:"column:status;not null;index" json:"status"` // queued|processing|completed|failed
	Stage    string `gorm:"column:stage;not null" json:"stage"`         // queued|cleanup|ingest|detect|done, or the failed step
	Progress int    `gorm:"column:progress;not null;default:0" json:"progress"`
	Attempts int    `gorm:"column:attempts;not null;default:0" json:"attempts"`

	TotalRows      int `gorm:"column:total_rows;not null;default:0" json:"total_rows"`
	DuplicateCount int `gorm:"column:duplicate_count;not null;default:0" json:"duplicate_count"`

	Error       string         `gorm:"column:error" json:"error"`
	LastErrorAt *time.Time     `gorm:"column:last_error_at" json:"last_error_at,omitempty"`
	LockedAt    *time.Time     `gorm:"column:locked_at;index" json:"locked_at,omitempty"`
	HeartbeatAt *time.Time     `gorm:"column:heartbeat_at;index" json:"heartbeat_at,omitempty"`
	Metadata    datatypes.JSON `gorm:"type:jsonb;column:metadata" json:"metadata"`

	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ImportRun) TableName() string { return "import_run" }
