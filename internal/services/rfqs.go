package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/partforge/sourcing-backend/internal/data/aggregates"
	"github.com/partforge/sourcing-backend/internal/data/repos"
	"github.com/partforge/sourcing-backend/internal/domain"
	"github.com/partforge/sourcing-backend/internal/matching"
	"github.com/partforge/sourcing-backend/internal/platform/dbctx"
	"github.com/partforge/sourcing-backend/internal/platform/logger"
)

// RFQWithBids is the customer-facing view of an RFQ and its live bids.
type RFQWithBids struct {
	RFQ  *domain.RFQ   `json:"rfq"`
	Bids []*domain.Bid `json:"bids"`
}

// RFQService manages RFQ creation and status transitions outside the award
// path (the award transition itself belongs to BidService).
type RFQService interface {
	Create(ctx context.Context, rfq *domain.RFQ) (*domain.RFQ, error)
	Get(ctx context.Context, id uuid.UUID) (*RFQWithBids, error)
	// UpdateDraft replaces the requirement fields of an RFQ that has not
	// been published yet.
	UpdateDraft(ctx context.Context, rfqID, actorID uuid.UUID, patch *domain.RFQ) (*domain.RFQ, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*domain.RFQ, error)
	// Publish moves a draft RFQ into the open family.
	Publish(ctx context.Context, rfqID, actorID uuid.UUID) (*domain.RFQ, error)
	// Close ends an RFQ without an award; Cancel abandons it.
	Close(ctx context.Context, rfqID, actorID uuid.UUID) (*domain.RFQ, error)
	Cancel(ctx context.Context, rfqID, actorID uuid.UUID) (*domain.RFQ, error)
}

type rfqService struct {
	rfqs   repos.RFQRepo
	bids   repos.BidRepo
	events EventService
	runner aggregates.TxRunner
	guard  aggregates.CASGuard
	log    *logger.Logger
}

func NewRFQService(
	rfqs repos.RFQRepo,
	bids repos.BidRepo,
	events EventService,
	runner aggregates.TxRunner,
	guard aggregates.CASGuard,
	baseLog *logger.Logger,
) RFQService {
	return &rfqService{
		rfqs:   rfqs,
		bids:   bids,
		events: events,
		runner: runner,
		guard:  guard,
		log:    baseLog.With("service", "RFQService"),
	}
}

func (s *rfqService) Create(ctx context.Context, rfq *domain.RFQ) (*domain.RFQ, error) {
	const op = "rfq.create"
	if rfq == nil || rfq.CustomerID == uuid.Nil {
		return nil, domain.NewError(domain.CodeValidation, op, "customer id is required", nil)
	}
	if rfq.Quantity <= 0 {
		return nil, domain.NewError(domain.CodeValidation, op, "quantity must be positive", nil)
	}
	rfq.Status = domain.RFQStatusDraft
	rfq.Processes = matching.NormalizeSet(rfq.Processes)
	rfq.Materials = matching.NormalizeSet(rfq.Materials)
	rfq.Certifications = matching.NormalizeSet(rfq.Certifications)

	out, err := s.rfqs.Create(ctx, nil, rfq)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	return out, nil
}

func (s *rfqService) Get(ctx context.Context, id uuid.UUID) (*RFQWithBids, error) {
	const op = "rfq.get"
	rfq, err := s.rfqs.GetByID(ctx, nil, id)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if rfq == nil {
		return nil, domain.NewError(domain.CodeNotFound, op, fmt.Sprintf("rfq %s not found", id), nil)
	}
	bids, err := s.bids.ListLiveByRFQ(ctx, nil, id)
	if err != nil {
		s.log.Warn("live bids unavailable for rfq view", "error", err, "rfq_id", id)
		bids = nil
	}
	return &RFQWithBids{RFQ: rfq, Bids: bids}, nil
}

func (s *rfqService) UpdateDraft(ctx context.Context, rfqID, actorID uuid.UUID, patch *domain.RFQ) (*domain.RFQ, error) {
	const op = "rfq.update_draft"
	if rfqID == uuid.Nil || actorID == uuid.Nil {
		return nil, domain.NewError(domain.CodeValidation, op, "rfq id and actor id are required", nil)
	}
	if patch == nil || patch.Quantity <= 0 {
		return nil, domain.NewError(domain.CodeValidation, op, "quantity must be positive", nil)
	}
	rfq, err := s.rfqs.GetByID(ctx, nil, rfqID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if rfq == nil {
		return nil, domain.NewError(domain.CodeNotFound, op, fmt.Sprintf("rfq %s not found", rfqID), nil)
	}
	if rfq.CustomerID != actorID {
		return nil, domain.NewError(domain.CodeNotEligible, op, "actor does not own this rfq", nil)
	}
	if rfq.Status != domain.RFQStatusDraft {
		return nil, domain.NewError(domain.CodeConflict, op,
			fmt.Sprintf("rfq is %s; only a draft can be edited", rfq.Status), nil)
	}

	rfq.Processes = matching.NormalizeSet(patch.Processes)
	rfq.Materials = matching.NormalizeSet(patch.Materials)
	rfq.Certifications = matching.NormalizeSet(patch.Certifications)
	rfq.Quantity = patch.Quantity
	rfq.TargetDate = patch.TargetDate
	if patch.Priority != "" {
		rfq.Priority = patch.Priority
	}

	if err := s.rfqs.Update(ctx, nil, rfq); err != nil {
		return nil, aggregates.MapError(op, err)
	}
	return rfq, nil
}

func (s *rfqService) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*domain.RFQ, error) {
	const op = "rfq.list_by_customer"
	if customerID == uuid.Nil {
		return nil, domain.NewError(domain.CodeValidation, op, "customer id is required", nil)
	}
	out, err := s.rfqs.ListByCustomer(ctx, nil, customerID, 200)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	return out, nil
}

func (s *rfqService) Publish(ctx context.Context, rfqID, actorID uuid.UUID) (*domain.RFQ, error) {
	return s.transition(ctx, "rfq.publish", rfqID, actorID,
		[]string{domain.RFQStatusDraft}, domain.RFQStatusOpen)
}

func (s *rfqService) Close(ctx context.Context, rfqID, actorID uuid.UUID) (*domain.RFQ, error) {
	return s.transition(ctx, "rfq.close", rfqID, actorID,
		domain.RFQOpenStatuses(), domain.RFQStatusClosed)
}

func (s *rfqService) Cancel(ctx context.Context, rfqID, actorID uuid.UUID) (*domain.RFQ, error) {
	allowed := append([]string{domain.RFQStatusDraft}, domain.RFQOpenStatuses()...)
	return s.transition(ctx, "rfq.cancel", rfqID, actorID, allowed, domain.RFQStatusCancelled)
}

func (s *rfqService) transition(ctx context.Context, op string, rfqID, actorID uuid.UUID, from []string, to string) (*domain.RFQ, error) {
	if rfqID == uuid.Nil || actorID == uuid.Nil {
		return nil, domain.NewError(domain.CodeValidation, op, "rfq id and actor id are required", nil)
	}
	rfq, err := s.rfqs.GetByID(ctx, nil, rfqID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if rfq == nil {
		return nil, domain.NewError(domain.CodeNotFound, op, fmt.Sprintf("rfq %s not found", rfqID), nil)
	}
	if rfq.CustomerID != actorID {
		return nil, domain.NewError(domain.CodeNotEligible, op, "actor does not own this rfq", nil)
	}

	err = s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		ok, casErr := s.guard.UpdateByStatus(dbc, domain.RFQ{}.TableName(), rfqID, from,
			map[string]any{"status": to})
		if casErr != nil {
			return casErr
		}
		if reqErr := aggregates.RequireCASSuccess(ok, fmt.Sprintf("rfq cannot move to %s from its current status", to)); reqErr != nil {
			return reqErr
		}
		return s.events.Record(dbc.Ctx, dbc.Tx, rfqID, &actorID, domain.EventRFQStatusChanged, map[string]interface{}{
			"from_any_of": from,
			"to":          to,
		})
	})
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}

	out, err := s.rfqs.GetByID(ctx, nil, rfqID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	return out, nil
}
