package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/partforge/sourcing-backend/internal/data/aggregates"
	"github.com/partforge/sourcing-backend/internal/data/repos"
	"github.com/partforge/sourcing-backend/internal/domain"
	"github.com/partforge/sourcing-backend/internal/matching"
	"github.com/partforge/sourcing-backend/internal/observability"
	"github.com/partforge/sourcing-backend/internal/platform/logger"
)

// VisibleRFQ pairs an RFQ with the supplier's score for it.
type VisibleRFQ struct {
	RFQ   *domain.RFQ            `json:"rfq"`
	Score *domain.ScoreBreakdown `json:"score"`
}

// MatchingService computes eligibility scores and applies the visibility
// gate. Score computations for the same (RFQ, supplier) pair are coalesced:
// concurrent duplicate evaluations share one in-flight computation and the
// key is forgotten as soon as the flight lands, so nothing is cached across
// requests.
type MatchingService interface {
	EvaluateMatch(ctx context.Context, rfqID, supplierID uuid.UUID) (*domain.ScoreBreakdown, error)
	ListVisibleRFQs(ctx context.Context, supplierID uuid.UUID) ([]VisibleRFQ, error)
}

type matchingService struct {
	suppliers repos.SupplierRepo
	rfqs      repos.RFQRepo
	bids      repos.BidRepo
	events    EventService
	metrics   *observability.Metrics
	log       *logger.Logger

	flight singleflight.Group
}

// VisibleRFQSampleCap bounds how many open RFQs a visibility feed considers.
const VisibleRFQSampleCap = 200

func NewMatchingService(
	suppliers repos.SupplierRepo,
	rfqs repos.RFQRepo,
	bids repos.BidRepo,
	events EventService,
	metrics *observability.Metrics,
	baseLog *logger.Logger,
) MatchingService {
	return &matchingService{
		suppliers: suppliers,
		rfqs:      rfqs,
		bids:      bids,
		events:    events,
		metrics:   metrics,
		log:       baseLog.With("service", "MatchingService"),
	}
}

func (s *matchingService) EvaluateMatch(ctx context.Context, rfqID, supplierID uuid.UUID) (*domain.ScoreBreakdown, error) {
	const op = "matching.evaluate"
	if rfqID == uuid.Nil || supplierID == uuid.Nil {
		return nil, domain.NewError(domain.CodeValidation, op, "rfq id and supplier id are required", nil)
	}

	key := rfqID.String() + ":" + supplierID.String()
	v, err, _ := s.flight.Do(key, func() (interface{}, error) {
		defer s.flight.Forget(key)
		return s.computeScore(ctx, rfqID, supplierID)
	})
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	return v.(*domain.ScoreBreakdown), nil
}

// computeScore is the expensive path: capability/document/history fetch plus
// the weighted factor math.
func (s *matchingService) computeScore(ctx context.Context, rfqID, supplierID uuid.UUID) (*domain.ScoreBreakdown, error) {
	const op = "matching.evaluate"
	rfq, err := s.rfqs.GetByID(ctx, nil, rfqID)
	if err != nil {
		return nil, err
	}
	if rfq == nil {
		return nil, domain.NewError(domain.CodeNotFound, op, fmt.Sprintf("rfq %s not found", rfqID), nil)
	}
	supplier, err := s.suppliers.GetWithProfile(ctx, nil, supplierID)
	if err != nil {
		return nil, err
	}
	if supplier == nil {
		return nil, domain.NewError(domain.CodeNotFound, op, fmt.Sprintf("supplier %s not found", supplierID), nil)
	}

	// Bid history is optional context: a read failure degrades to "no
	// history" and the history factors score zero.
	history, err := s.bids.ListRecentBySupplier(ctx, nil, supplierID, matching.HistoryWindow)
	if err != nil {
		s.log.Warn("bid history unavailable, scoring without it", "error", err, "supplier_id", supplierID)
		history = nil
	}

	s.metrics.IncScoreEvaluation()
	return matching.Score(rfq, supplier, history, time.Now().UTC()), nil
}

func (s *matchingService) ListVisibleRFQs(ctx context.Context, supplierID uuid.UUID) ([]VisibleRFQ, error) {
	const op = "matching.visible_rfqs"
	if supplierID == uuid.Nil {
		return nil, domain.NewError(domain.CodeValidation, op, "supplier id is required", nil)
	}
	supplier, err := s.suppliers.GetWithProfile(ctx, nil, supplierID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if supplier == nil {
		return nil, domain.NewError(domain.CodeNotFound, op, fmt.Sprintf("supplier %s not found", supplierID), nil)
	}

	open, err := s.rfqs.ListOpen(ctx, nil, uuid.Nil, VisibleRFQSampleCap)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}

	history, err := s.bids.ListRecentBySupplier(ctx, nil, supplierID, matching.HistoryWindow)
	if err != nil {
		s.log.Warn("bid history unavailable, scoring without it", "error", err, "supplier_id", supplierID)
		history = nil
	}

	now := time.Now().UTC()
	out := make([]VisibleRFQ, 0, len(open))
	for _, rfq := range open {
		s.metrics.IncScoreEvaluation()
		score := matching.Score(rfq, supplier, history, now)
		if !score.Eligible {
			s.metrics.IncVisibilityFiltered()
			s.events.RecordBestEffort(ctx, rfq.ID, &supplierID, domain.EventVisibilityFiltered, map[string]interface{}{
				"supplier_id": supplierID.String(),
				"score":       score.Total,
				"threshold":   score.Threshold,
			})
			continue
		}
		out = append(out, VisibleRFQ{RFQ: rfq, Score: score})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score.Total > out[j].Score.Total
	})
	return out, nil
}
