package types

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Lead is one ingested contact row. Matchable fields are nullable text so a
// blank cell stays NULL and never participates in duplicate matching.
type Lead struct {
	ID       int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID   uuid.UUID  `gorm:"type:uuid;index" json:"user_id"`
	ImportID *uuid.UUID `gorm:"type:uuid;index" json:"import_id,omitempty"`

	SourceLeadID *string    `gorm:"column:source_lead_id" json:"source_lead_id,omitempty"`
	Categories   *string    `gorm:"column:categories" json:"categories,omitempty"`
	DateAdded    *time.Time `gorm:"column:date_added" json:"date_added,omitempty"`
	Referrer     *string    `gorm:"column:referrer" json:"referrer,omitempty"`

	FirstName *string `gorm:"column:first_name" json:"first_name,omitempty"`
	Surname   *string `gorm:"column:surname" json:"surname,omitempty"`
	Country   *string `gorm:"column:country" json:"country,omitempty"`

	PrivateEmail1 *string `gorm:"column:private_email_1" json:"private_email_1,omitempty"`
	PrivateEmail2 *string `gorm:"column:private_email_2" json:"private_email_2,omitempty"`
	CompanyEmail1 *string `gorm:"column:company_email_1" json:"company_email_1,omitempty"`
	CompanyEmail2 *string `gorm:"column:company_email_2" json:"company_email_2,omitempty"`

	HomeTelephone1   *string `gorm:"column:home_telephone_1" json:"home_telephone_1,omitempty"`
	HomeTelephone2   *string `gorm:"column:home_telephone_2" json:"home_telephone_2,omitempty"`
	MobileTelephone1 *string `gorm:"column:mobile_telephone_1" json:"mobile_telephone_1,omitempty"`
	MobileTelephone2 *string `gorm:"column:mobile_telephone_2" json:"mobile_telephone_2,omitempty"`
	OfficePhone1     *string `gorm:"column:office_phone_1" json:"office_phone_1,omitempty"`
	OfficePhone2     *string `gorm:"column:office_phone_2" json:"office_phone_2,omitempty"`

	DecisionMaker *bool   `gorm:"column:decision_maker" json:"decision_maker,omitempty"`
	VerifiedTime  *string `gorm:"column:verified_time" json:"verified_time,omitempty"`

	IsDuplicate bool `gorm:"column:is_duplicate;not null;default:false;index" json:"is_duplicate"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Lead) TableName() string { return "core_lead" }

// FieldValue reads a matchable column off the struct by its column name,
// in the canonical string form duplicate matching runs on. Unknown columns
// and NULLs are nil.
func (l *Lead) FieldValue(column string) *string {
	switch column {
	case "source_lead_id":
		return l.SourceLeadID
	case "categories":
		return l.Categories
	case "referrer":
		return l.Referrer
	case "first_name":
		return l.FirstName
	case "surname":
		return l.Surname
	case "country":
		return l.Country
	case "private_email_1":
		return l.PrivateEmail1
	case "private_email_2":
		return l.PrivateEmail2
	case "company_email_1":
		return l.CompanyEmail1
	case "company_email_2":
		return l.CompanyEmail2
	case "home_telephone_1":
		return l.HomeTelephone1
	case "home_telephone_2":
		return l.HomeTelephone2
	case "mobile_telephone_1":
		return l.MobileTelephone1
	case "mobile_telephone_2":
		return l.MobileTelephone2
	case "office_phone_1":
		return l.OfficePhone1
	case "office_phone_2":
		return l.OfficePhone2
	case "verified_time":
		return l.VerifiedTime
	case "decision_maker":
		if l.DecisionMaker == nil {
			return nil
		}
		s := strconv.FormatBool(*l.DecisionMaker)
		return &s
	default:
		return nil
	}
}
