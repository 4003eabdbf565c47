// Package market implements the market pressure estimator and the pricing
// recommender. Both are pure computations over bounded samples the service
// layer fetches; they never touch storage themselves.
package market

import (
	"time"

	"github.com/google/uuid"

	"github.com/partforge/sourcing-backend/internal/domain"
	"github.com/partforge/sourcing-backend/internal/matching"
)

const (
	urgencyHorizonDays    = 14.0
	stalenessHorizonDays  = 30.0
	scarcityNormalization = 2.0

	weightUrgency     = 0.45
	weightScarcity    = 0.35
	weightCoverageGap = 0.20
	weightStaleness   = 0.05

	labelCriticalAt = 0.75
	labelElevatedAt = 0.45

	// CapabilitySampleCap bounds the capability census scan.
	CapabilitySampleCap = 500
	// OpenRFQSampleCap bounds the demand census scan.
	OpenRFQSampleCap = 200
)

// PressureInputs carries the bounded samples a pressure reading derives from.
// LiveBids must already exclude withdrawn bids.
type PressureInputs struct {
	RFQ          *domain.RFQ
	LiveBids     []*domain.Bid
	Capabilities []*domain.Capability // census sample across all suppliers
	OpenRFQs     []*domain.RFQ       // recent open RFQs, excluding the subject
	Now          time.Time
}

// ComputePressure derives the supply/demand imbalance signals for one RFQ.
func ComputePressure(in PressureInputs) *domain.MarketPressureReading {
	reading := &domain.MarketPressureReading{ComputedAt: in.Now}
	if in.RFQ == nil {
		reading.Label = domain.PressureLabelStable
		return reading
	}
	reading.RFQID = in.RFQ.ID

	scarcity := scarcityIndex(in.RFQ, in.Capabilities, in.OpenRFQs)
	urgency := urgencyIndex(in.RFQ, in.Now)
	gap, bidders, qualified := coverageGap(in.RFQ, in.LiveBids, in.Capabilities)
	staleness := clamp(daysOpen(in.RFQ, in.Now)/stalenessHorizonDays, 0, 1)

	score := weightUrgency*urgency +
		weightScarcity*scarcity +
		weightCoverageGap*gap +
		weightStaleness*staleness

	reading.Scarcity = scarcity
	reading.Urgency = urgency
	reading.CoverageGap = gap
	reading.Score = clamp(score, 0, 1)
	reading.Label = pressureLabel(reading.Score)
	reading.UniqueBidders = bidders
	reading.QualifiedSuppliers = qualified
	return reading
}

// scarcityIndex averages demand/supply per required process, where supply is
// the count of distinct capable suppliers in the census sample and demand the
// count of other open RFQs requiring the process.
func scarcityIndex(rfq *domain.RFQ, capabilities []*domain.Capability, openRFQs []*domain.RFQ) float64 {
	processes := matching.NormalizeSet(rfq.Processes)
	if len(processes) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range processes {
		supply := supplierCountForProcess(p, capabilities)
		demand := 0
		for _, other := range openRFQs {
			if other == nil || other.ID == rfq.ID {
				continue
			}
			for _, req := range other.Processes {
				if matching.FuzzyContains(p, req) {
					demand++
					break
				}
			}
		}
		sum += float64(demand) / float64(max(supply, 1))
	}
	avg := sum / float64(len(processes))
	return clamp(avg/scarcityNormalization, 0, 1)
}

func urgencyIndex(rfq *domain.RFQ, now time.Time) float64 {
	if rfq.TargetDate != nil {
		daysUntil := rfq.TargetDate.Sub(now).Hours() / 24
		return clamp(1-daysUntil/urgencyHorizonDays, 0, 1)
	}
	// No target date: an RFQ sitting open gets more urgent as it ages.
	return clamp(daysOpen(rfq, now)/urgencyHorizonDays, 0, 1)
}

// coverageGap measures how far observed bidding falls short of the estimated
// qualified supplier pool. When the capability census yields no qualified
// suppliers the unique bidder count stands in as the estimate; that conflates
// supply with observed demand and is a documented approximation.
func coverageGap(rfq *domain.RFQ, liveBids []*domain.Bid, capabilities []*domain.Capability) (gap float64, bidders, qualified int) {
	seen := map[uuid.UUID]bool{}
	for _, b := range liveBids {
		if b != nil && !seen[b.SupplierID] {
			seen[b.SupplierID] = true
			bidders++
		}
	}
	qualified = qualifiedSupplierEstimate(rfq, capabilities)
	if qualified == 0 {
		qualified = bidders
	}
	if qualified == 0 {
		return 1, bidders, qualified
	}
	return clamp(1-float64(bidders)/float64(qualified), 0, 1), bidders, qualified
}

func qualifiedSupplierEstimate(rfq *domain.RFQ, capabilities []*domain.Capability) int {
	processes := matching.NormalizeSet(rfq.Processes)
	if len(processes) == 0 {
		return distinctSuppliers(capabilities)
	}
	seen := map[uuid.UUID]bool{}
	count := 0
	for _, c := range capabilities {
		if c == nil || seen[c.SupplierID] {
			continue
		}
		for _, p := range processes {
			if matching.FuzzyContains(p, c.Process) {
				seen[c.SupplierID] = true
				count++
				break
			}
		}
	}
	return count
}

func supplierCountForProcess(process string, capabilities []*domain.Capability) int {
	seen := map[uuid.UUID]bool{}
	count := 0
	for _, c := range capabilities {
		if c == nil || seen[c.SupplierID] {
			continue
		}
		if matching.FuzzyContains(process, c.Process) {
			seen[c.SupplierID] = true
			count++
		}
	}
	return count
}

func distinctSuppliers(capabilities []*domain.Capability) int {
	seen := map[uuid.UUID]bool{}
	for _, c := range capabilities {
		if c != nil {
			seen[c.SupplierID] = true
		}
	}
	return len(seen)
}

func pressureLabel(score float64) string {
	switch {
	case score >= labelCriticalAt:
		return domain.PressureLabelCritical
	case score >= labelElevatedAt:
		return domain.PressureLabelElevated
	default:
		return domain.PressureLabelStable
	}
}

func daysOpen(rfq *domain.RFQ, now time.Time) float64 {
	d := now.Sub(rfq.CreatedAt).Hours() / 24
	if d < 0 {
		return 0
	}
	return d
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
