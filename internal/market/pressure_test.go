package market

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/partforge/sourcing-backend/internal/domain"
)

func pressureRFQ(processes ...string) *domain.RFQ {
	return &domain.RFQ{
		ID:        uuid.New(),
		Status:    domain.RFQStatusOpen,
		Processes: datatypes.JSONSlice[string](processes),
		CreatedAt: time.Now(),
	}
}

func capabilityRow(supplierID uuid.UUID, process string) *domain.Capability {
	return &domain.Capability{ID: uuid.New(), SupplierID: supplierID, Process: process}
}

func TestComputePressureNilRFQ(t *testing.T) {
	reading := ComputePressure(PressureInputs{Now: time.Now()})
	if reading.Label != domain.PressureLabelStable {
		t.Fatalf("label = %q, want stable", reading.Label)
	}
	if reading.Score != 0 {
		t.Fatalf("score = %v, want 0", reading.Score)
	}
}

func TestUrgencyFromTargetDate(t *testing.T) {
	now := time.Now()

	past := now.Add(-24 * time.Hour)
	rfq := pressureRFQ("cnc")
	rfq.TargetDate = &past
	if got := urgencyIndex(rfq, now); got != 1 {
		t.Fatalf("past target urgency = %v, want 1", got)
	}

	far := now.Add(30 * 24 * time.Hour)
	rfq.TargetDate = &far
	if got := urgencyIndex(rfq, now); got != 0 {
		t.Fatalf("distant target urgency = %v, want 0", got)
	}

	week := now.Add(7 * 24 * time.Hour)
	rfq.TargetDate = &week
	if got := urgencyIndex(rfq, now); math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("one-week target urgency = %v, want 0.5", got)
	}
}

func TestUrgencyWithoutTargetDateGrowsWithAge(t *testing.T) {
	now := time.Now()
	rfq := pressureRFQ("cnc")

	rfq.CreatedAt = now
	if got := urgencyIndex(rfq, now); got != 0 {
		t.Fatalf("fresh RFQ urgency = %v, want 0", got)
	}

	rfq.CreatedAt = now.Add(-7 * 24 * time.Hour)
	if got := urgencyIndex(rfq, now); math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("week-old RFQ urgency = %v, want 0.5", got)
	}

	rfq.CreatedAt = now.Add(-60 * 24 * time.Hour)
	if got := urgencyIndex(rfq, now); got != 1 {
		t.Fatalf("aged RFQ urgency = %v, want 1", got)
	}
}

func TestScarcityIndex(t *testing.T) {
	rfq := pressureRFQ("cnc")

	// One capable supplier, two competing open RFQs demanding the same
	// process: demand/supply = 2, normalized by 2 and clamped to 1.
	capabilities := []*domain.Capability{capabilityRow(uuid.New(), "cnc machining")}
	others := []*domain.RFQ{pressureRFQ("cnc"), pressureRFQ("CNC Machining")}
	if got := scarcityIndex(rfq, capabilities, others); got != 1 {
		t.Fatalf("scarcity = %v, want 1", got)
	}

	// Ample supply, no competing demand.
	capabilities = []*domain.Capability{
		capabilityRow(uuid.New(), "cnc"),
		capabilityRow(uuid.New(), "cnc"),
		capabilityRow(uuid.New(), "cnc"),
	}
	if got := scarcityIndex(rfq, capabilities, nil); got != 0 {
		t.Fatalf("scarcity with no demand = %v, want 0", got)
	}

	// No declared processes reads as no scarcity signal.
	if got := scarcityIndex(pressureRFQ(), capabilities, others); got != 0 {
		t.Fatalf("scarcity without processes = %v, want 0", got)
	}
}

func TestCoverageGap(t *testing.T) {
	rfq := pressureRFQ("cnc")

	supplierA, supplierB, supplierC, supplierD := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	capabilities := []*domain.Capability{
		capabilityRow(supplierA, "cnc"),
		capabilityRow(supplierB, "cnc machining"),
		capabilityRow(supplierC, "cnc"),
		capabilityRow(supplierD, "cnc"),
	}
	bids := []*domain.Bid{{SupplierID: supplierA, Status: domain.BidStatusSubmitted}}

	gap, bidders, qualified := coverageGap(rfq, bids, capabilities)
	if bidders != 1 || qualified != 4 {
		t.Fatalf("bidders/qualified = %d/%d, want 1/4", bidders, qualified)
	}
	if math.Abs(gap-0.75) > 1e-9 {
		t.Fatalf("gap = %v, want 0.75", gap)
	}
}

func TestCoverageGapFallbacks(t *testing.T) {
	rfq := pressureRFQ("cnc")

	// No census and no bids: maximal gap.
	gap, bidders, qualified := coverageGap(rfq, nil, nil)
	if gap != 1 || bidders != 0 || qualified != 0 {
		t.Fatalf("empty inputs gap/bidders/qualified = %v/%d/%d, want 1/0/0", gap, bidders, qualified)
	}

	// No census but observed bidders: bidder count stands in for the pool
	// and the gap reads as fully covered.
	bids := []*domain.Bid{
		{SupplierID: uuid.New(), Status: domain.BidStatusSubmitted},
		{SupplierID: uuid.New(), Status: domain.BidStatusSubmitted},
	}
	gap, bidders, qualified = coverageGap(rfq, bids, nil)
	if gap != 0 || bidders != 2 || qualified != 2 {
		t.Fatalf("fallback gap/bidders/qualified = %v/%d/%d, want 0/2/2", gap, bidders, qualified)
	}

	// Duplicate supplier rows count once.
	dup := uuid.New()
	bids = []*domain.Bid{
		{SupplierID: dup, Status: domain.BidStatusSubmitted},
		{SupplierID: dup, Status: domain.BidStatusSubmitted},
	}
	_, bidders, _ = coverageGap(rfq, bids, nil)
	if bidders != 1 {
		t.Fatalf("duplicate bidders counted as %d, want 1", bidders)
	}
}

func TestPressureLabels(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{0, domain.PressureLabelStable},
		{0.44, domain.PressureLabelStable},
		{0.45, domain.PressureLabelElevated},
		{0.74, domain.PressureLabelElevated},
		{0.75, domain.PressureLabelCritical},
		{1, domain.PressureLabelCritical},
	}
	for _, tc := range cases {
		if got := pressureLabel(tc.score); got != tc.want {
			t.Fatalf("label(%v) = %q, want %q", tc.score, got, tc.want)
		}
	}
}

func TestComputePressureComposite(t *testing.T) {
	now := time.Now()
	rfq := pressureRFQ("cnc")
	rfq.CreatedAt = now
	past := now.Add(-24 * time.Hour)
	rfq.TargetDate = &past

	// Urgency 1, scarcity 1, gap 1, staleness 0:
	// 0.45 + 0.35 + 0.20 = 1.0.
	capabilities := []*domain.Capability{capabilityRow(uuid.New(), "cnc")}
	others := []*domain.RFQ{pressureRFQ("cnc"), pressureRFQ("cnc")}

	reading := ComputePressure(PressureInputs{
		RFQ:          rfq,
		Capabilities: capabilities,
		OpenRFQs:     others,
		Now:          now,
	})
	if math.Abs(reading.Score-1) > 1e-9 {
		t.Fatalf("score = %v, want 1", reading.Score)
	}
	if reading.Label != domain.PressureLabelCritical {
		t.Fatalf("label = %q, want critical", reading.Label)
	}
	if reading.RFQID != rfq.ID {
		t.Fatalf("reading bound to wrong RFQ")
	}
}
