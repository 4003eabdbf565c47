package matching

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/partforge/sourcing-backend/internal/domain"
)

func testRFQ() *domain.RFQ {
	return &domain.RFQ{
		ID:             uuid.New(),
		Processes:      datatypes.JSONSlice[string]{"CNC Machining"},
		Materials:      datatypes.JSONSlice[string]{"Aluminum"},
		Certifications: datatypes.JSONSlice[string]{"ISO 9001"},
	}
}

func testSupplier(capabilities ...domain.Capability) *domain.Supplier {
	return &domain.Supplier{
		ID:           uuid.New(),
		Capabilities: capabilities,
	}
}

func factorByName(t *testing.T, bd *domain.ScoreBreakdown, name string) domain.ScoreFactor {
	t.Helper()
	for _, f := range bd.Factors {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("factor %q missing from breakdown", name)
	return domain.ScoreFactor{}
}

func TestScoreProcessAndMaterialOnly(t *testing.T) {
	// A supplier matching process and material but holding no certifications
	// or history lands on exactly 40 + 25 = 65 and clears the gate.
	supplier := testSupplier(domain.Capability{
		Process:   "cnc",
		Materials: datatypes.JSONSlice[string]{"aluminum 6061"},
	})

	bd := Score(testRFQ(), supplier, nil, time.Now())
	if bd.Total != 65 {
		t.Fatalf("total = %v, want 65", bd.Total)
	}
	if !bd.Eligible {
		t.Fatalf("supplier at 65 should be eligible")
	}
	if got := factorByName(t, bd, "process_match").Points; got != WeightProcess {
		t.Fatalf("process points = %v, want %v", got, WeightProcess)
	}
	if got := factorByName(t, bd, "certifications").Points; got != 0 {
		t.Fatalf("certification points = %v, want 0", got)
	}
}

func TestScoreBelowThresholdIsIneligible(t *testing.T) {
	// Material only: 25 points, well under the gate.
	supplier := testSupplier(domain.Capability{
		Process:   "injection molding",
		Materials: datatypes.JSONSlice[string]{"aluminum"},
	})

	bd := Score(testRFQ(), supplier, nil, time.Now())
	if bd.Total != 25 {
		t.Fatalf("total = %v, want 25", bd.Total)
	}
	if bd.Eligible {
		t.Fatalf("supplier at 25 must not be eligible")
	}
	if bd.Threshold != MinMatchScore {
		t.Fatalf("threshold = %v, want %v", bd.Threshold, MinMatchScore)
	}
}

func TestScoreDocumentSatisfiesCertification(t *testing.T) {
	supplier := testSupplier(domain.Capability{Process: "cnc"})
	supplier.Documents = []domain.SupplierDocument{{DocType: "iso 9001"}}

	bd := Score(testRFQ(), supplier, nil, time.Now())
	if got := factorByName(t, bd, "certifications").Points; got != WeightCertifications {
		t.Fatalf("certification points = %v, want %v", got, WeightCertifications)
	}
}

func TestScoreBoundsWithFullHistory(t *testing.T) {
	now := time.Now()
	supplier := testSupplier(domain.Capability{
		Process:        "cnc machining",
		Materials:      datatypes.JSONSlice[string]{"aluminum"},
		Certifications: datatypes.JSONSlice[string]{"iso 9001"},
	})
	history := []*domain.Bid{
		{Status: domain.BidStatusAccepted, UpdatedAt: now.Add(-12 * time.Hour)},
		{Status: domain.BidStatusAccepted, UpdatedAt: now.Add(-24 * time.Hour)},
	}

	bd := Score(testRFQ(), supplier, history, now)
	if bd.Total != MaxScore {
		t.Fatalf("total = %v, want %v", bd.Total, MaxScore)
	}
	if bd.Total > 100 || bd.Total < 0 {
		t.Fatalf("total %v out of bounds", bd.Total)
	}
}

func TestWinRateFactor(t *testing.T) {
	history := []*domain.Bid{
		{Status: domain.BidStatusAccepted},
		{Status: domain.BidStatusRejected},
		{Status: domain.BidStatusRejected},
		{Status: domain.BidStatusRejected},
	}
	f := winRateFactor(history)
	if f.Ratio != 0.25 {
		t.Fatalf("win rate = %v, want 0.25", f.Ratio)
	}
	if f.Points != 0.25*WeightWinRate {
		t.Fatalf("win-rate points = %v, want %v", f.Points, 0.25*WeightWinRate)
	}
	if f = winRateFactor(nil); f.Points != 0 {
		t.Fatalf("empty history should score zero, got %v", f.Points)
	}
}

func TestRecencyFactor(t *testing.T) {
	now := time.Now()

	fresh := recencyFactor([]*domain.Bid{{UpdatedAt: now.Add(-time.Hour)}}, now)
	if fresh.Points != WeightRecency {
		t.Fatalf("fresh activity points = %v, want %v", fresh.Points, WeightRecency)
	}

	stale := recencyFactor([]*domain.Bid{{UpdatedAt: now.Add(-120 * 24 * time.Hour)}}, now)
	if stale.Points != 0 {
		t.Fatalf("stale activity points = %v, want 0", stale.Points)
	}

	// Halfway through the window decays linearly.
	mid := recencyFactor([]*domain.Bid{{UpdatedAt: now.Add(-45 * 24 * time.Hour)}}, now)
	wantRatio := (recencyZeroDays - 45) / (recencyZeroDays - recencyFullDays)
	if math.Abs(mid.Ratio-wantRatio) > 1e-9 {
		t.Fatalf("mid-window ratio = %v, want %v", mid.Ratio, wantRatio)
	}
}

func TestScoreNilInputs(t *testing.T) {
	bd := Score(nil, nil, nil, time.Now())
	// No requirements declared: the match factors are fully satisfied by
	// definition, history factors score zero.
	want := WeightProcess + WeightMaterial + WeightCertifications
	if bd.Total != want {
		t.Fatalf("total = %v, want %v", bd.Total, want)
	}
}
