package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EntityTypeLead tags duplicate ledger rows and links that point at core_lead.
const EntityTypeLead = "core_lead"

// DuplicateRecord is the dedup ledger: one row per distinct duplicated value
// per field group. Count always mirrors the number of live links that
// reference it; Cleanup restores that invariant on rollback.
type DuplicateRecord struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EntityType string    `gorm:"column:entity_type;not null;uniqueIndex:idx_duplicate_record_identity" json:"entity_type"`
	GroupName  string    `gorm:"column:group_name;not null;uniqueIndex:idx_duplicate_record_identity" json:"group_name"`
	Value      string    `gorm:"column:value;not null;uniqueIndex:idx_duplicate_record_identity" json:"value"`
	Count      int       `gorm:"column:count;not null;default:0" json:"count"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (DuplicateRecord) TableName() string { return "duplicate_record" }
