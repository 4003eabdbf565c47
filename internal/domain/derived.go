package domain

import (
	"time"

	"github.com/google/uuid"
)

// ScoreFactor explains one weighted component of an eligibility score.
type ScoreFactor struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
	Points float64 `json:"points"`
	Ratio  float64 `json:"ratio"`
	Reason string  `json:"reason"`
}

// ScoreBreakdown is computed fresh on each evaluation and never persisted.
// Total always lies in [0, 100].
type ScoreBreakdown struct {
	RFQID      uuid.UUID     `json:"rfq_id"`
	SupplierID uuid.UUID     `json:"supplier_id"`
	Factors    []ScoreFactor `json:"factors"`
	Total      float64       `json:"total"`
	Eligible   bool          `json:"eligible"`
	Threshold  float64       `json:"threshold"`
	ComputedAt time.Time     `json:"computed_at"`
}

const (
	PressureLabelStable   = "stable"
	PressureLabelElevated = "elevated"
	PressureLabelCritical = "critical"
)

// MarketPressureReading is a derived signal bundle for one RFQ. Never
// persisted; only logged as a domain event.
type MarketPressureReading struct {
	RFQID              uuid.UUID `json:"rfq_id"`
	Scarcity           float64   `json:"scarcity"`
	Urgency            float64   `json:"urgency"`
	CoverageGap        float64   `json:"coverage_gap"`
	Score              float64   `json:"score"`
	Label              string    `json:"label"`
	UniqueBidders      int       `json:"unique_bidders"`
	QualifiedSuppliers int       `json:"qualified_suppliers"`
	ComputedAt         time.Time `json:"computed_at"`
}

const (
	PriceBandFloor   = "floor"
	PriceBandCeiling = "ceiling"
)

// PricingBasis names the data source a recommendation was derived from.
const (
	PricingBasisHistory = "historical_accepted"
	PricingBasisLive    = "live_bids"
	PricingBasisSeed    = "seed"
)

// PricingRecommendation is a recommended price bound with a confidence
// estimate. Amounts are whole currency units, floored at 1.
type PricingRecommendation struct {
	RFQID      uuid.UUID `json:"rfq_id"`
	Band       string    `json:"band"`
	Amount     float64   `json:"amount"`
	Currency   string    `json:"currency"`
	Confidence float64   `json:"confidence"`
	Basis      string    `json:"basis"`
	SampleSize int       `json:"sample_size"`
	LiveBids   int       `json:"live_bids"`
	ComputedAt time.Time `json:"computed_at"`
}
