package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/partforge/sourcing-backend/internal/data/aggregates"
	"github.com/partforge/sourcing-backend/internal/data/repos"
	"github.com/partforge/sourcing-backend/internal/domain"
	"github.com/partforge/sourcing-backend/internal/market"
	"github.com/partforge/sourcing-backend/internal/observability"
	"github.com/partforge/sourcing-backend/internal/platform/logger"
)

// ReadingCache memoizes pressure readings briefly. A nil cache means every
// call recomputes.
type ReadingCache interface {
	Get(ctx context.Context, rfqID uuid.UUID) (*domain.MarketPressureReading, bool)
	Set(ctx context.Context, reading *domain.MarketPressureReading)
}

// MarketService estimates supply/demand pressure and recommends price bands.
// All sampled context is optional: census or history read failures degrade to
// empty samples and the documented fallbacks, never to a hard error.
type MarketService interface {
	EstimateMarketPressure(ctx context.Context, rfqID uuid.UUID) (*domain.MarketPressureReading, error)
	RecommendPriceFloor(ctx context.Context, rfqID uuid.UUID) (*domain.PricingRecommendation, error)
	RecommendPriceCeiling(ctx context.Context, rfqID uuid.UUID) (*domain.PricingRecommendation, error)
}

type marketService struct {
	rfqs         repos.RFQRepo
	bids         repos.BidRepo
	capabilities repos.CapabilityRepo
	events       EventService
	cache        ReadingCache
	metrics      *observability.Metrics
	log          *logger.Logger
}

func NewMarketService(
	rfqs repos.RFQRepo,
	bids repos.BidRepo,
	capabilities repos.CapabilityRepo,
	events EventService,
	cache ReadingCache,
	metrics *observability.Metrics,
	baseLog *logger.Logger,
) MarketService {
	return &marketService{
		rfqs:         rfqs,
		bids:         bids,
		capabilities: capabilities,
		events:       events,
		cache:        cache,
		metrics:      metrics,
		log:          baseLog.With("service", "MarketService"),
	}
}

func (s *marketService) EstimateMarketPressure(ctx context.Context, rfqID uuid.UUID) (*domain.MarketPressureReading, error) {
	const op = "market.pressure"
	rfq, liveBids, err := s.loadRFQWithBids(ctx, op, rfqID)
	if err != nil {
		return nil, err
	}
	// logEvent=true: this is the top-level entry point. Pricing calls the
	// internal path with logging suppressed to avoid duplicate events.
	return s.pressureFor(ctx, rfq, liveBids, true), nil
}

// pressureFor computes (or serves from cache) the reading for an RFQ.
func (s *marketService) pressureFor(ctx context.Context, rfq *domain.RFQ, liveBids []*domain.Bid, logEvent bool) *domain.MarketPressureReading {
	if s.cache != nil {
		if reading, ok := s.cache.Get(ctx, rfq.ID); ok {
			return reading
		}
	}

	capabilities, err := s.capabilities.ListSample(ctx, nil, market.CapabilitySampleCap)
	if err != nil {
		s.log.Warn("capability census unavailable, treating supply as unknown", "error", err, "rfq_id", rfq.ID)
		capabilities = nil
	}
	openRFQs, err := s.rfqs.ListOpen(ctx, nil, rfq.ID, market.OpenRFQSampleCap)
	if err != nil {
		s.log.Warn("open RFQ sample unavailable, treating demand as zero", "error", err, "rfq_id", rfq.ID)
		openRFQs = nil
	}

	reading := market.ComputePressure(market.PressureInputs{
		RFQ:          rfq,
		LiveBids:     liveBids,
		Capabilities: capabilities,
		OpenRFQs:     openRFQs,
		Now:          time.Now().UTC(),
	})

	s.metrics.IncPressureReading(reading.Label)
	if s.cache != nil {
		s.cache.Set(ctx, reading)
	}
	if logEvent {
		s.events.RecordBestEffort(ctx, rfq.ID, nil, domain.EventMarketPressureCalculated, map[string]interface{}{
			"scarcity":     reading.Scarcity,
			"urgency":      reading.Urgency,
			"coverage_gap": reading.CoverageGap,
			"score":        reading.Score,
			"label":        reading.Label,
		})
	}
	return reading
}

func (s *marketService) RecommendPriceFloor(ctx context.Context, rfqID uuid.UUID) (*domain.PricingRecommendation, error) {
	return s.recommend(ctx, rfqID, domain.PriceBandFloor)
}

func (s *marketService) RecommendPriceCeiling(ctx context.Context, rfqID uuid.UUID) (*domain.PricingRecommendation, error) {
	return s.recommend(ctx, rfqID, domain.PriceBandCeiling)
}

func (s *marketService) recommend(ctx context.Context, rfqID uuid.UUID, band string) (*domain.PricingRecommendation, error) {
	const op = "market.pricing"
	rfq, liveBids, err := s.loadRFQWithBids(ctx, op, rfqID)
	if err != nil {
		return nil, err
	}

	pressure := s.pressureFor(ctx, rfq, liveBids, false)

	samples, err := s.bids.ListAcceptedSamples(ctx, nil, market.HistorySampleCap)
	if err != nil {
		s.log.Warn("accepted price history unavailable, falling back", "error", err, "rfq_id", rfqID)
		samples = nil
	}
	history := make([]market.HistoricalSample, 0, len(samples))
	for _, sm := range samples {
		history = append(history, market.HistoricalSample{Price: sm.Price, Processes: sm.Processes})
	}

	in := market.PricingInputs{
		RFQ:      rfq,
		LiveBids: liveBids,
		History:  history,
		Pressure: pressure,
		Now:      time.Now().UTC(),
	}

	var rec *domain.PricingRecommendation
	if band == domain.PriceBandFloor {
		rec = market.RecommendFloor(in)
	} else {
		rec = market.RecommendCeiling(in)
	}

	s.metrics.IncPricingRecommendation(rec.Band, rec.Basis)
	s.events.RecordBestEffort(ctx, rfq.ID, nil, domain.EventPricingRecommended, map[string]interface{}{
		"band":       rec.Band,
		"amount":     rec.Amount,
		"currency":   rec.Currency,
		"confidence": rec.Confidence,
		"basis":      rec.Basis,
	})
	return rec, nil
}

func (s *marketService) loadRFQWithBids(ctx context.Context, op string, rfqID uuid.UUID) (*domain.RFQ, []*domain.Bid, error) {
	if rfqID == uuid.Nil {
		return nil, nil, domain.NewError(domain.CodeValidation, op, "rfq id is required", nil)
	}
	rfq, err := s.rfqs.GetByID(ctx, nil, rfqID)
	if err != nil {
		return nil, nil, aggregates.MapError(op, err)
	}
	if rfq == nil {
		return nil, nil, domain.NewError(domain.CodeNotFound, op, fmt.Sprintf("rfq %s not found", rfqID), nil)
	}
	liveBids, err := s.bids.ListLiveByRFQ(ctx, nil, rfqID)
	if err != nil {
		s.log.Warn("live bids unavailable, treating as none", "error", err, "rfq_id", rfqID)
		liveBids = nil
	}
	return rfq, liveBids, nil
}
