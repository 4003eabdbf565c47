package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/partforge/sourcing-backend/internal/domain"
	"github.com/partforge/sourcing-backend/internal/platform/logger"
)

func TestEstimateMarketPressure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := uuid.New()
	supplier := env.seedSupplier(t)
	rfq := env.seedOpenRFQ(t, customer)
	env.submitBid(t, rfq.ID, supplier.ID, 1000)

	reading, err := env.market.EstimateMarketPressure(ctx, rfq.ID)
	if err != nil {
		t.Fatalf("pressure: %v", err)
	}
	if reading.RFQID != rfq.ID {
		t.Fatalf("reading bound to %s, want %s", reading.RFQID, rfq.ID)
	}
	if reading.Score < 0 || reading.Score > 1 {
		t.Fatalf("score %v out of [0,1]", reading.Score)
	}
	// One qualified supplier in the census, and it already bid.
	if reading.UniqueBidders != 1 || reading.QualifiedSuppliers != 1 {
		t.Fatalf("bidders/qualified = %d/%d, want 1/1", reading.UniqueBidders, reading.QualifiedSuppliers)
	}
	if reading.CoverageGap != 0 {
		t.Fatalf("coverage gap = %v, want 0", reading.CoverageGap)
	}

	if !containsEvent(env.eventTypes(t, rfq.ID), domain.EventMarketPressureCalculated) {
		t.Fatalf("market_pressure_calculated event missing")
	}
}

func TestPressureExcludesWithdrawnBids(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := uuid.New()
	supplier := env.seedSupplier(t)
	rfq := env.seedOpenRFQ(t, customer)
	bid := env.submitBid(t, rfq.ID, supplier.ID, 1000)

	before, err := env.market.EstimateMarketPressure(ctx, rfq.ID)
	if err != nil {
		t.Fatalf("pressure: %v", err)
	}
	if before.UniqueBidders != 1 {
		t.Fatalf("bidders before withdraw = %d, want 1", before.UniqueBidders)
	}

	if _, err := env.bids.Withdraw(ctx, rfq.ID, bid.ID, supplier.ID); err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	after, err := env.market.EstimateMarketPressure(ctx, rfq.ID)
	if err != nil {
		t.Fatalf("pressure: %v", err)
	}
	if after.UniqueBidders != 0 {
		t.Fatalf("bidders after withdraw = %d, want 0", after.UniqueBidders)
	}
	if after.CoverageGap != 1 {
		t.Fatalf("coverage gap after withdraw = %v, want 1", after.CoverageGap)
	}
}

func TestPressureUnknownRFQ(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.market.EstimateMarketPressure(context.Background(), uuid.New()); !domain.IsCode(err, domain.CodeNotFound) {
		t.Fatalf("error = %v, want not_found", err)
	}
}

func TestRecommendationsSeedWithoutData(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rfq := env.seedOpenRFQ(t, uuid.New())

	floor, err := env.market.RecommendPriceFloor(ctx, rfq.ID)
	if err != nil {
		t.Fatalf("floor: %v", err)
	}
	ceiling, err := env.market.RecommendPriceCeiling(ctx, rfq.ID)
	if err != nil {
		t.Fatalf("ceiling: %v", err)
	}

	if floor.Basis != domain.PricingBasisSeed || ceiling.Basis != domain.PricingBasisSeed {
		t.Fatalf("basis = %q/%q, want seed", floor.Basis, ceiling.Basis)
	}
	if ceiling.Amount < floor.Amount {
		t.Fatalf("ceiling %v below floor %v", ceiling.Amount, floor.Amount)
	}
	if floor.Confidence > 0.6 || ceiling.Confidence > 0.6 {
		t.Fatalf("seed confidence = %v/%v, want capped at 0.6", floor.Confidence, ceiling.Confidence)
	}
	if !containsEvent(env.eventTypes(t, rfq.ID), domain.EventPricingRecommended) {
		t.Fatalf("pricing_recommended event missing")
	}
}

func TestRecommendationsUseLiveBids(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := uuid.New()
	rfq := env.seedOpenRFQ(t, customer)

	a := env.seedSupplier(t)
	b := env.seedSupplier(t)
	env.submitBid(t, rfq.ID, a.ID, 200)
	env.submitBid(t, rfq.ID, b.ID, 400)

	floor, err := env.market.RecommendPriceFloor(ctx, rfq.ID)
	if err != nil {
		t.Fatalf("floor: %v", err)
	}
	ceiling, err := env.market.RecommendPriceCeiling(ctx, rfq.ID)
	if err != nil {
		t.Fatalf("ceiling: %v", err)
	}

	if floor.Basis != domain.PricingBasisLive || ceiling.Basis != domain.PricingBasisLive {
		t.Fatalf("basis = %q/%q, want live_bids", floor.Basis, ceiling.Basis)
	}
	if floor.LiveBids != 2 || ceiling.LiveBids != 2 {
		t.Fatalf("live bid counts = %d/%d, want 2/2", floor.LiveBids, ceiling.LiveBids)
	}
	if ceiling.Amount < floor.Amount {
		t.Fatalf("ceiling %v below floor %v", ceiling.Amount, floor.Amount)
	}
}

func TestRecommendationsUseAcceptedHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	supplier := env.seedSupplier(t)

	// Award a prior RFQ so its accepted price becomes history for the next.
	previousCustomer := uuid.New()
	previous := env.seedOpenRFQ(t, previousCustomer)
	won := env.submitBid(t, previous.ID, supplier.ID, 800)
	if _, err := env.bids.Accept(ctx, previous.ID, won.ID, previousCustomer); err != nil {
		t.Fatalf("accept: %v", err)
	}

	rfq := env.seedOpenRFQ(t, uuid.New())
	floor, err := env.market.RecommendPriceFloor(ctx, rfq.ID)
	if err != nil {
		t.Fatalf("floor: %v", err)
	}
	if floor.Basis != domain.PricingBasisHistory {
		t.Fatalf("basis = %q, want historical_accepted", floor.Basis)
	}
	if floor.SampleSize != 1 {
		t.Fatalf("sample size = %d, want 1", floor.SampleSize)
	}
}

func TestPressureReadingCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rfq := env.seedOpenRFQ(t, uuid.New())

	cache := &memoryReadingCache{readings: map[uuid.UUID]*domain.MarketPressureReading{}}
	cached := NewMarketService(env.rfqRepo, env.bidRepo, env.capabilityRepo, env.events, cache, nil, logger.NewNop())

	first, err := cached.EstimateMarketPressure(ctx, rfq.ID)
	if err != nil {
		t.Fatalf("pressure: %v", err)
	}
	second, err := cached.EstimateMarketPressure(ctx, rfq.ID)
	if err != nil {
		t.Fatalf("pressure: %v", err)
	}
	if cache.hits != 1 {
		t.Fatalf("cache hits = %d, want 1", cache.hits)
	}
	if first.Score != second.Score {
		t.Fatalf("cached reading diverged: %v vs %v", first.Score, second.Score)
	}
}

type memoryReadingCache struct {
	mu       sync.Mutex
	readings map[uuid.UUID]*domain.MarketPressureReading
	hits     int
}

func (c *memoryReadingCache) Get(_ context.Context, rfqID uuid.UUID) (*domain.MarketPressureReading, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.readings[rfqID]
	if ok {
		c.hits++
	}
	return r, ok
}

func (c *memoryReadingCache) Set(_ context.Context, reading *domain.MarketPressureReading) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readings[reading.RFQID] = reading
}
