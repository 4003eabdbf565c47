package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	BidStatusSubmitted = "submitted"
	BidStatusWithdrawn = "withdrawn"
	BidStatusAccepted  = "accepted"
	BidStatusRejected  = "rejected"
)

// BidStatusIsLive reports whether a bid participates in aggregate
// computations (pressure, pricing, comparison views).
func BidStatusIsLive(status string) bool {
	return status != BidStatusWithdrawn
}

// Bid is a supplier's offer against an RFQ. Exactly one row exists per
// (RFQ, supplier) pair; repeated submissions update the row in place.
type Bid struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	RFQID      uuid.UUID `gorm:"column:rfq_id;type:uuid;not null;uniqueIndex:idx_bid_rfq_supplier;index" json:"rfq_id"`
	SupplierID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_bid_rfq_supplier;index" json:"supplier_id"`

	PriceTotal   float64 `gorm:"column:price_total;not null" json:"price_total"`
	Currency     string  `gorm:"type:text;not null;default:'USD'" json:"currency"`
	LeadTimeDays int     `gorm:"column:lead_time_days;not null;default:0" json:"lead_time_days"`
	Notes        string  `gorm:"type:text" json:"notes"`

	Status string `gorm:"type:text;not null;index;default:'submitted'" json:"status"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Bid) TableName() string { return "bid" }
