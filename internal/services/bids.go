package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/partforge/sourcing-backend/internal/data/aggregates"
	"github.com/partforge/sourcing-backend/internal/data/repos"
	"github.com/partforge/sourcing-backend/internal/domain"
	"github.com/partforge/sourcing-backend/internal/observability"
	"github.com/partforge/sourcing-backend/internal/platform/dbctx"
	"github.com/partforge/sourcing-backend/internal/platform/logger"
)

// SubmitBidInput carries a supplier's offer against an RFQ.
type SubmitBidInput struct {
	RFQID        uuid.UUID
	SupplierID   uuid.UUID
	PriceTotal   float64
	Currency     string
	LeadTimeDays int
	Notes        string
}

// BidService is the state machine governing submit/withdraw/accept and the
// owner of the award transaction. Accept is serialized per RFQ by re-checking
// the RFQ status with a compare-and-set inside the same transaction that
// flips bid statuses; no intermediate award state is externally observable.
type BidService interface {
	Submit(ctx context.Context, in SubmitBidInput) (*domain.Bid, error)
	Withdraw(ctx context.Context, rfqID, bidID, supplierID uuid.UUID) (*domain.Bid, error)
	Accept(ctx context.Context, rfqID, bidID, actorID uuid.UUID) (*domain.Bid, error)
	// DeclineAward reverts a previously accepted bid so a different winner
	// can be chosen; the RFQ returns to in_review and the siblings rejected
	// by the award return to submitted.
	DeclineAward(ctx context.Context, rfqID, bidID, actorID uuid.UUID) (*domain.Bid, error)
}

type bidService struct {
	rfqs    repos.RFQRepo
	bids    repos.BidRepo
	matcher MatchingService
	events  EventService
	runner  aggregates.TxRunner
	guard   aggregates.CASGuard
	hooks   aggregates.Hooks
	metrics *observability.Metrics
	log     *logger.Logger
}

func NewBidService(
	rfqs repos.RFQRepo,
	bids repos.BidRepo,
	matcher MatchingService,
	events EventService,
	runner aggregates.TxRunner,
	guard aggregates.CASGuard,
	hooks aggregates.Hooks,
	metrics *observability.Metrics,
	baseLog *logger.Logger,
) BidService {
	if hooks == nil {
		hooks = aggregates.NoopHooks()
	}
	return &bidService{
		rfqs:    rfqs,
		bids:    bids,
		matcher: matcher,
		events:  events,
		runner:  runner,
		guard:   guard,
		hooks:   hooks,
		metrics: metrics,
		log:     baseLog.With("service", "BidService"),
	}
}

func (s *bidService) observe(op string, start time.Time, err error) {
	status := "success"
	if err != nil {
		code := domain.CodeOf(err)
		if code == "" {
			code = domain.CodeInternal
		}
		status = string(code)
		if code == domain.CodeConflict {
			s.hooks.IncConflict(op)
		}
	}
	s.hooks.ObserveOperation(op, status, time.Since(start))
}

func (s *bidService) Submit(ctx context.Context, in SubmitBidInput) (bid *domain.Bid, err error) {
	const op = "bid.submit"
	start := time.Now()
	defer func() { s.observe(op, start, err) }()

	if err = validateSubmit(in); err != nil {
		return nil, aggregates.MapError(op, err)
	}

	rfq, err := s.rfqs.GetByID(ctx, nil, in.RFQID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if rfq == nil {
		return nil, domain.NewError(domain.CodeNotFound, op, fmt.Sprintf("rfq %s not found", in.RFQID), nil)
	}
	if !domain.RFQStatusIsOpen(rfq.Status) {
		return nil, domain.NewError(domain.CodeNotEligible, op,
			fmt.Sprintf("rfq is %s and does not accept bids", rfq.Status), nil)
	}

	// Eligibility is re-checked at submission, not trusted from the feed.
	score, err := s.matcher.EvaluateMatch(ctx, in.RFQID, in.SupplierID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if !score.Eligible {
		return nil, domain.NewError(domain.CodeNotEligible, op,
			fmt.Sprintf("match score %.1f below threshold %.0f", score.Total, score.Threshold), nil)
	}

	existing, err := s.bids.GetByPair(ctx, nil, in.RFQID, in.SupplierID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if existing != nil && existing.Status == domain.BidStatusAccepted {
		return nil, domain.NewError(domain.CodeConflict, op, "accepted bid cannot be resubmitted", nil)
	}
	eventType := domain.EventBidSubmitted
	if existing != nil {
		eventType = domain.EventBidUpdated
	}

	row := &domain.Bid{
		RFQID:        in.RFQID,
		SupplierID:   in.SupplierID,
		PriceTotal:   in.PriceTotal,
		Currency:     strings.ToUpper(strings.TrimSpace(in.Currency)),
		LeadTimeDays: in.LeadTimeDays,
		Notes:        in.Notes,
	}

	err = s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		written, upsertErr := s.bids.Upsert(dbc.Ctx, dbc.Tx, row)
		if upsertErr != nil {
			return upsertErr
		}
		if !written {
			// Conditional upsert skipped the row: it was accepted in a
			// concurrent award between our read and this write.
			return aggregates.ConflictError("accepted bid cannot be resubmitted")
		}
		fresh, getErr := s.bids.GetByPair(dbc.Ctx, dbc.Tx, in.RFQID, in.SupplierID)
		if getErr != nil {
			return getErr
		}
		bid = fresh
		return s.events.Record(dbc.Ctx, dbc.Tx, in.RFQID, &in.SupplierID, eventType, map[string]interface{}{
			"bid_id":      fresh.ID.String(),
			"supplier_id": in.SupplierID.String(),
			"price_total": fresh.PriceTotal,
			"currency":    fresh.Currency,
		})
	})
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	return bid, nil
}

func validateSubmit(in SubmitBidInput) error {
	if in.RFQID == uuid.Nil || in.SupplierID == uuid.Nil {
		return aggregates.ValidationError("rfq id and supplier id are required")
	}
	if in.PriceTotal <= 0 {
		return aggregates.ValidationError("price total must be positive")
	}
	if c := strings.TrimSpace(in.Currency); len(c) != 3 {
		return aggregates.ValidationError("currency must be a 3-letter code")
	}
	if in.LeadTimeDays < 0 {
		return aggregates.ValidationError("lead time days cannot be negative")
	}
	return nil
}

func (s *bidService) Withdraw(ctx context.Context, rfqID, bidID, supplierID uuid.UUID) (bid *domain.Bid, err error) {
	const op = "bid.withdraw"
	start := time.Now()
	defer func() { s.observe(op, start, err) }()

	if rfqID == uuid.Nil || bidID == uuid.Nil || supplierID == uuid.Nil {
		return nil, domain.NewError(domain.CodeValidation, op, "rfq id, bid id and supplier id are required", nil)
	}
	current, err := s.bids.GetByID(ctx, nil, bidID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if current == nil || current.RFQID != rfqID {
		return nil, domain.NewError(domain.CodeNotFound, op, fmt.Sprintf("bid %s not found on rfq %s", bidID, rfqID), nil)
	}
	if current.SupplierID != supplierID {
		return nil, domain.NewError(domain.CodeNotEligible, op, "bid belongs to a different supplier", nil)
	}

	err = s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		ok, casErr := s.guard.UpdateByStatus(dbc, domain.Bid{}.TableName(), bidID,
			[]string{domain.BidStatusSubmitted},
			map[string]any{"status": domain.BidStatusWithdrawn})
		if casErr != nil {
			return casErr
		}
		if reqErr := aggregates.RequireCASSuccess(ok, "only a submitted bid can be withdrawn"); reqErr != nil {
			return reqErr
		}
		return s.events.Record(dbc.Ctx, dbc.Tx, rfqID, &supplierID, domain.EventBidWithdrawn, map[string]interface{}{
			"bid_id":      bidID.String(),
			"supplier_id": supplierID.String(),
			"price_total": current.PriceTotal,
		})
	})
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}

	bid, err = s.bids.GetByID(ctx, nil, bidID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	return bid, nil
}

func (s *bidService) Accept(ctx context.Context, rfqID, bidID, actorID uuid.UUID) (bid *domain.Bid, err error) {
	const op = "bid.accept"
	start := time.Now()
	defer func() { s.observe(op, start, err) }()

	rfq, target, err := s.loadAwardPair(ctx, op, rfqID, bidID, actorID)
	if err != nil {
		return nil, err
	}
	if target.Status == domain.BidStatusWithdrawn {
		return nil, domain.NewError(domain.CodeConflict, op, "a withdrawn bid cannot be accepted", nil)
	}
	if rfq.Status == domain.RFQStatusAwarded {
		return nil, domain.NewError(domain.CodeConflict, op,
			"rfq is already awarded; decline the current winner first", nil)
	}

	err = s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		// Award status is re-checked here, inside the transaction. Exactly
		// one concurrent accept can pass this guard.
		ok, casErr := s.guard.UpdateByStatus(dbc, domain.RFQ{}.TableName(), rfqID,
			domain.RFQOpenStatuses(),
			map[string]any{"status": domain.RFQStatusAwarded})
		if casErr != nil {
			return casErr
		}
		if reqErr := aggregates.RequireCASSuccess(ok, "rfq is no longer open for award"); reqErr != nil {
			return reqErr
		}

		ok, casErr = s.guard.UpdateByStatus(dbc, domain.Bid{}.TableName(), bidID,
			[]string{domain.BidStatusSubmitted},
			map[string]any{"status": domain.BidStatusAccepted})
		if casErr != nil {
			return casErr
		}
		if reqErr := aggregates.RequireCASSuccess(ok, "bid is no longer live"); reqErr != nil {
			return reqErr
		}

		if _, rejErr := s.bids.RejectLiveSiblings(dbc.Ctx, dbc.Tx, rfqID, bidID); rejErr != nil {
			return rejErr
		}

		return s.events.Record(dbc.Ctx, dbc.Tx, rfqID, &actorID, domain.EventRFQAwarded, map[string]interface{}{
			"bid_id":      bidID.String(),
			"supplier_id": target.SupplierID.String(),
			"price_total": target.PriceTotal,
			"currency":    target.Currency,
		})
	})
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}

	s.metrics.IncAward()
	bid, err = s.bids.GetByID(ctx, nil, bidID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	return bid, nil
}

func (s *bidService) DeclineAward(ctx context.Context, rfqID, bidID, actorID uuid.UUID) (bid *domain.Bid, err error) {
	const op = "bid.decline_award"
	start := time.Now()
	defer func() { s.observe(op, start, err) }()

	rfq, target, err := s.loadAwardPair(ctx, op, rfqID, bidID, actorID)
	if err != nil {
		return nil, err
	}
	if rfq.Status != domain.RFQStatusAwarded || target.Status != domain.BidStatusAccepted {
		return nil, domain.NewError(domain.CodeConflict, op, "bid is not the accepted winner of this rfq", nil)
	}

	err = s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		ok, casErr := s.guard.UpdateByStatus(dbc, domain.RFQ{}.TableName(), rfqID,
			[]string{domain.RFQStatusAwarded},
			map[string]any{"status": domain.RFQStatusInReview})
		if casErr != nil {
			return casErr
		}
		if reqErr := aggregates.RequireCASSuccess(ok, "rfq is not awarded"); reqErr != nil {
			return reqErr
		}

		ok, casErr = s.guard.UpdateByStatus(dbc, domain.Bid{}.TableName(), bidID,
			[]string{domain.BidStatusAccepted},
			map[string]any{"status": domain.BidStatusRejected})
		if casErr != nil {
			return casErr
		}
		if reqErr := aggregates.RequireCASSuccess(ok, "bid is not accepted"); reqErr != nil {
			return reqErr
		}

		// Siblings were rejected by the award; restore them so the customer
		// can accept a different bid without waiting for resubmissions.
		if _, revErr := s.bids.ReviveRejectedSiblings(dbc.Ctx, dbc.Tx, rfqID, bidID); revErr != nil {
			return revErr
		}

		return s.events.Record(dbc.Ctx, dbc.Tx, rfqID, &actorID, domain.EventAwardDeclined, map[string]interface{}{
			"bid_id":      bidID.String(),
			"supplier_id": target.SupplierID.String(),
		})
	})
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}

	bid, err = s.bids.GetByID(ctx, nil, bidID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	return bid, nil
}

// loadAwardPair resolves the RFQ and bid for a customer-initiated decision
// and checks ownership.
func (s *bidService) loadAwardPair(ctx context.Context, op string, rfqID, bidID, actorID uuid.UUID) (*domain.RFQ, *domain.Bid, error) {
	if rfqID == uuid.Nil || bidID == uuid.Nil || actorID == uuid.Nil {
		return nil, nil, domain.NewError(domain.CodeValidation, op, "rfq id, bid id and actor id are required", nil)
	}
	rfq, err := s.rfqs.GetByID(ctx, nil, rfqID)
	if err != nil {
		return nil, nil, aggregates.MapError(op, err)
	}
	if rfq == nil {
		return nil, nil, domain.NewError(domain.CodeNotFound, op, fmt.Sprintf("rfq %s not found", rfqID), nil)
	}
	if rfq.CustomerID != actorID {
		return nil, nil, domain.NewError(domain.CodeNotEligible, op, "actor does not own this rfq", nil)
	}
	target, err := s.bids.GetByID(ctx, nil, bidID)
	if err != nil {
		return nil, nil, aggregates.MapError(op, err)
	}
	if target == nil || target.RFQID != rfqID {
		return nil, nil, domain.NewError(domain.CodeNotFound, op, fmt.Sprintf("bid %s not found on rfq %s", bidID, rfqID), nil)
	}
	return rfq, target, nil
}
