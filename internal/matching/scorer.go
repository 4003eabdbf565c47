package matching

import (
	"fmt"
	"math"
	"time"

	"github.com/partforge/sourcing-backend/internal/domain"
)

const (
	WeightProcess        = 40.0
	WeightMaterial       = 25.0
	WeightCertifications = 15.0
	WeightWinRate        = 10.0
	WeightRecency        = 10.0

	// MaxScore is the clamped upper bound of a breakdown total.
	MaxScore = WeightProcess + WeightMaterial + WeightCertifications + WeightWinRate + WeightRecency

	// MinMatchScore gates both RFQ visibility and bid submission. A supplier
	// below it is invisible for that RFQ, not merely ranked low.
	MinMatchScore = 50.0

	// HistoryWindow caps how many recent bids feed the win-rate factor.
	HistoryWindow = 200

	recencyFullDays = 1.0
	recencyZeroDays = 90.0
)

// Score computes the weighted fit between one RFQ and one supplier.
// bidHistory is the supplier's recent bids, newest first; the caller passes
// nil when history could not be read and the history factors score zero.
func Score(rfq *domain.RFQ, supplier *domain.Supplier, bidHistory []*domain.Bid, now time.Time) *domain.ScoreBreakdown {
	bd := &domain.ScoreBreakdown{
		Threshold:  MinMatchScore,
		ComputedAt: now,
	}
	if rfq != nil {
		bd.RFQID = rfq.ID
	}
	if supplier != nil {
		bd.SupplierID = supplier.ID
	}

	bd.Factors = append(bd.Factors,
		processFactor(rfq, supplier),
		materialFactor(rfq, supplier),
		certificationFactor(rfq, supplier),
		winRateFactor(bidHistory),
		recencyFactor(bidHistory, now),
	)

	total := 0.0
	for _, f := range bd.Factors {
		total += f.Points
	}
	bd.Total = clamp(total, 0, MaxScore)
	bd.Eligible = bd.Total >= MinMatchScore
	return bd
}

func processFactor(rfq *domain.RFQ, supplier *domain.Supplier) domain.ScoreFactor {
	var required, offered []string
	if rfq != nil {
		required = rfq.Processes
	}
	if supplier != nil {
		for _, c := range supplier.Capabilities {
			offered = append(offered, c.Process)
		}
	}
	ratio := MatchFraction(required, offered)
	return domain.ScoreFactor{
		Name:   "process_match",
		Weight: WeightProcess,
		Points: ratio * WeightProcess,
		Ratio:  ratio,
		Reason: fractionReason(ratio, len(NormalizeSet(required)), "required processes"),
	}
}

func materialFactor(rfq *domain.RFQ, supplier *domain.Supplier) domain.ScoreFactor {
	var required, offered []string
	if rfq != nil {
		required = rfq.Materials
	}
	if supplier != nil {
		// Materials pool across all capability rows.
		for _, c := range supplier.Capabilities {
			offered = append(offered, c.Materials...)
		}
	}
	ratio := MatchFraction(required, offered)
	return domain.ScoreFactor{
		Name:   "material_match",
		Weight: WeightMaterial,
		Points: ratio * WeightMaterial,
		Ratio:  ratio,
		Reason: fractionReason(ratio, len(NormalizeSet(required)), "required materials"),
	}
}

func certificationFactor(rfq *domain.RFQ, supplier *domain.Supplier) domain.ScoreFactor {
	var required, offered []string
	if rfq != nil {
		required = rfq.Certifications
	}
	if supplier != nil {
		// Either a capability-declared cert or an uploaded document counts.
		for _, c := range supplier.Capabilities {
			offered = append(offered, c.Certifications...)
		}
		for _, d := range supplier.Documents {
			offered = append(offered, d.DocType)
		}
	}
	ratio := MatchFraction(required, offered)
	return domain.ScoreFactor{
		Name:   "certifications",
		Weight: WeightCertifications,
		Points: ratio * WeightCertifications,
		Ratio:  ratio,
		Reason: fractionReason(ratio, len(NormalizeSet(required)), "required certifications"),
	}
}

func winRateFactor(bidHistory []*domain.Bid) domain.ScoreFactor {
	f := domain.ScoreFactor{
		Name:   "historical_win_rate",
		Weight: WeightWinRate,
		Reason: "no bid history",
	}
	if len(bidHistory) == 0 {
		return f
	}
	sample := bidHistory
	if len(sample) > HistoryWindow {
		sample = sample[:HistoryWindow]
	}
	accepted := 0
	for _, b := range sample {
		if b != nil && b.Status == domain.BidStatusAccepted {
			accepted++
		}
	}
	ratio := float64(accepted) / float64(len(sample))
	f.Ratio = ratio
	f.Points = ratio * WeightWinRate
	f.Reason = fmt.Sprintf("%d of last %d bids accepted", accepted, len(sample))
	return f
}

func recencyFactor(bidHistory []*domain.Bid, now time.Time) domain.ScoreFactor {
	f := domain.ScoreFactor{
		Name:   "recency",
		Weight: WeightRecency,
		Reason: "no bid activity",
	}
	var last time.Time
	for _, b := range bidHistory {
		if b != nil && b.UpdatedAt.After(last) {
			last = b.UpdatedAt
		}
	}
	if last.IsZero() {
		return f
	}
	days := now.Sub(last).Hours() / 24
	ratio := clamp((recencyZeroDays-days)/(recencyZeroDays-recencyFullDays), 0, 1)
	f.Ratio = ratio
	f.Points = ratio * WeightRecency
	f.Reason = fmt.Sprintf("last bid activity %.0f days ago", math.Max(days, 0))
	return f
}

func fractionReason(ratio float64, required int, what string) string {
	if required == 0 {
		return fmt.Sprintf("no %s declared", what)
	}
	return fmt.Sprintf("%.0f%% of %d %s satisfied", ratio*100, required, what)
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
