package types

import (
	"time"

	"github.com/google/uuid"
)

// DuplicateLink joins a ledger row to one concrete lead holding its value.
// Unique per (duplicate_record_id, entity_type, lead_id); hard-deleted by
// cleanup, never soft-deleted.
type DuplicateLink struct {
	ID                uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	DuplicateRecordID uuid.UUID        `gorm:"type:uuid;not null;index;uniqueIndex:idx_duplicate_link_identity" json:"duplicate_record_id"`
	DuplicateRecord   *DuplicateRecord `gorm:"constraint:OnDelete:CASCADE;foreignKey:DuplicateRecordID;references:ID" json:"duplicate_record,omitempty"`
	EntityType        string           `gorm:"column:entity_type;not null;uniqueIndex:idx_duplicate_link_identity" json:"entity_type"`
	LeadID            int64            `gorm:"column:lead_id;not null;index;uniqueIndex:idx_duplicate_link_identity" json:"lead_id"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (DuplicateLink) TableName() string { return "duplicate_link" }
