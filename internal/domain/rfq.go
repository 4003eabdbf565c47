package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	RFQStatusDraft        = "draft"
	RFQStatusOpen         = "open"
	RFQStatusInReview     = "in_review"
	RFQStatusPendingAward = "pending_award"
	RFQStatusAwarded      = "awarded"
	RFQStatusClosed       = "closed"
	RFQStatusCancelled    = "cancelled"
)

// RFQOpenStatuses are the statuses in which an RFQ accepts new bids.
func RFQOpenStatuses() []string {
	return []string{RFQStatusOpen, RFQStatusInReview, RFQStatusPendingAward}
}

// RFQStatusIsOpen reports whether status belongs to the open family.
func RFQStatusIsOpen(status string) bool {
	switch status {
	case RFQStatusOpen, RFQStatusInReview, RFQStatusPendingAward:
		return true
	}
	return false
}

type RFQ struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;index" json:"customer_id"`

	Status string `gorm:"type:text;not null;index;default:'draft'" json:"status"`

	Processes      datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"processes"`
	Materials      datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"materials"`
	Certifications datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"certifications"`

	Quantity   int        `gorm:"not null;default:1" json:"quantity"`
	TargetDate *time.Time `gorm:"column:target_date" json:"target_date,omitempty"`
	Priority   string     `gorm:"type:text;default:'normal'" json:"priority"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (RFQ) TableName() string { return "rfq" }
