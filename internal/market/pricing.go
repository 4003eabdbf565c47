package market

import (
	"math"
	"sort"
	"time"

	"github.com/partforge/sourcing-backend/internal/domain"
	"github.com/partforge/sourcing-backend/internal/matching"
)

const (
	// SeedPrice anchors recommendations when neither history nor live bids
	// exist. Confidence is capped when it is used.
	SeedPrice            = 1000.0
	seedCeilingMultiple  = 1.2
	seedConfidenceCap    = 0.6
	historyFullSamples   = 25.0
	liveFullSamples      = 5.0
	confidenceFloor      = 0.2
	confidenceCeil       = 0.95
	minCeilingOverFloor  = 1.05
	defaultCurrency      = "USD"
	// HistorySampleCap bounds the accepted-price lookback.
	HistorySampleCap = 200
)

// HistoricalSample is one accepted-bid price with the process requirements of
// the RFQ it won.
type HistoricalSample struct {
	Price     float64
	Processes []string
}

// PricingInputs carries everything a price band derives from. LiveBids must
// already exclude withdrawn bids; Pressure is the reading for the same RFQ.
type PricingInputs struct {
	RFQ      *domain.RFQ
	LiveBids []*domain.Bid
	History  []HistoricalSample
	Pressure *domain.MarketPressureReading
	Now      time.Time
}

// RecommendFloor derives the recommended lower bound of the price band.
func RecommendFloor(in PricingInputs) *domain.PricingRecommendation {
	hist, live := relevantSamples(in)
	base, basis := floorBase(hist, live)

	scarcity, urgency, pressure := pressureSignals(in.Pressure)
	amount := base + base*scarcity*0.15 + base*urgency*0.10

	return finishRecommendation(in, domain.PriceBandFloor, amount, basis, hist, live, pressure)
}

// RecommendCeiling derives the recommended upper bound. It never falls below
// the floor: an inverted raw computation is forced to floor*1.05.
func RecommendCeiling(in PricingInputs) *domain.PricingRecommendation {
	hist, live := relevantSamples(in)
	base, basis := ceilingBase(hist, live)

	scarcity, urgency, pressure := pressureSignals(in.Pressure)
	amount := base + base*scarcity*0.10 - base*urgency*0.15 - pressure*0.05*base

	floorBaseV, _ := floorBase(hist, live)
	floorAmount := floorBaseV + floorBaseV*scarcity*0.15 + floorBaseV*urgency*0.10
	if amount < floorAmount {
		amount = floorAmount * minCeilingOverFloor
	}

	return finishRecommendation(in, domain.PriceBandCeiling, amount, basis, hist, live, pressure)
}

func relevantSamples(in PricingInputs) (hist []float64, live []float64) {
	var required []string
	if in.RFQ != nil {
		required = matching.NormalizeSet(in.RFQ.Processes)
	}
	for _, s := range in.History {
		if len(hist) >= HistorySampleCap {
			break
		}
		if s.Price <= 0 {
			continue
		}
		if len(required) == 0 || processesOverlap(required, s.Processes) {
			hist = append(hist, s.Price)
		}
	}
	for _, b := range in.LiveBids {
		if b != nil && b.PriceTotal > 0 {
			live = append(live, b.PriceTotal)
		}
	}
	return hist, live
}

func processesOverlap(required, offered []string) bool {
	for _, r := range required {
		for _, o := range offered {
			if matching.FuzzyContains(r, o) {
				return true
			}
		}
	}
	return false
}

func floorBase(hist, live []float64) (float64, string) {
	switch {
	case len(hist) > 0:
		return percentile(hist, 0.25), domain.PricingBasisHistory
	case len(live) > 0:
		return percentile(live, 0.5) * 0.95, domain.PricingBasisLive
	default:
		return SeedPrice, domain.PricingBasisSeed
	}
}

func ceilingBase(hist, live []float64) (float64, string) {
	switch {
	case len(hist) > 0:
		return percentile(hist, 0.75), domain.PricingBasisHistory
	case len(live) > 0:
		return maxOf(live), domain.PricingBasisLive
	default:
		return SeedPrice * seedCeilingMultiple, domain.PricingBasisSeed
	}
}

func pressureSignals(p *domain.MarketPressureReading) (scarcity, urgency, score float64) {
	if p == nil {
		return 0, 0, 0
	}
	return p.Scarcity, p.Urgency, p.Score
}

func finishRecommendation(in PricingInputs, band string, amount float64, basis string, hist, live []float64, pressure float64) *domain.PricingRecommendation {
	rec := &domain.PricingRecommendation{
		Band:       band,
		Amount:     roundAmount(amount),
		Currency:   currencyOf(in.LiveBids),
		Confidence: confidence(len(hist), len(live), pressure, basis),
		Basis:      basis,
		SampleSize: len(hist),
		LiveBids:   len(live),
		ComputedAt: in.Now,
	}
	if in.RFQ != nil {
		rec.RFQID = in.RFQ.ID
	}
	return rec
}

// confidence blends historical depth, live coverage and market stability.
func confidence(histN, liveN int, pressure float64, basis string) float64 {
	c := 0.5*math.Min(float64(histN)/historyFullSamples, 1) +
		0.3*math.Min(float64(liveN)/liveFullSamples, 1) +
		0.2*(1-pressure)
	c = clamp(c, confidenceFloor, confidenceCeil)
	if basis == domain.PricingBasisSeed && c > seedConfidenceCap {
		c = seedConfidenceCap
	}
	return c
}

// roundAmount rounds to whole currency units and floors at 1.
func roundAmount(v float64) float64 {
	r := math.Round(v)
	if r < 1 {
		return 1
	}
	return r
}

func currencyOf(bids []*domain.Bid) string {
	for _, b := range bids {
		if b != nil && b.Currency != "" {
			return b.Currency
		}
	}
	return defaultCurrency
}

// percentile computes the p-quantile (0..1) with linear interpolation.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func maxOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
