package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	EventVisibilityFiltered       = "visibility_filtered"
	EventMarketPressureCalculated = "market_pressure_calculated"
	EventPricingRecommended       = "pricing_recommended"
	EventBidSubmitted             = "bid_submitted"
	EventBidUpdated               = "bid_updated"
	EventBidWithdrawn             = "bid_withdrawn"
	EventRFQAwarded               = "rfq_awarded"
	EventAwardDeclined            = "award_declined"
	EventRFQStatusChanged         = "rfq_status_changed"
)

// DomainEvent is the append-only record of matching, pricing and lifecycle
// decisions. Write-only from the engine's perspective; analytics and
// notification collaborators consume it downstream.
type DomainEvent struct {
	ID      uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	RFQID   uuid.UUID  `gorm:"column:rfq_id;type:uuid;not null;index" json:"rfq_id"`
	ActorID *uuid.UUID `gorm:"type:uuid;index" json:"actor_id,omitempty"`

	EventType string         `gorm:"column:event_type;type:text;not null;index" json:"event_type"`
	Payload   datatypes.JSON `gorm:"type:jsonb" json:"payload"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
}

func (DomainEvent) TableName() string { return "domain_event" }
