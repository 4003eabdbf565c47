package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/partforge/sourcing-backend/internal/data/repos"
	"github.com/partforge/sourcing-backend/internal/domain"
	"github.com/partforge/sourcing-backend/internal/platform/logger"
)

// EventService appends decision events to the append-only log. Record runs
// inside a caller transaction and fails with it; RecordBestEffort never fails
// the caller, a lost advisory event is only worth a warning.
type EventService interface {
	Record(ctx context.Context, tx *gorm.DB, rfqID uuid.UUID, actorID *uuid.UUID, eventType string, payload map[string]interface{}) error
	RecordBestEffort(ctx context.Context, rfqID uuid.UUID, actorID *uuid.UUID, eventType string, payload map[string]interface{})
	ListForRFQ(ctx context.Context, rfqID uuid.UUID, limit int) ([]*domain.DomainEvent, error)
}

type eventService struct {
	events repos.EventRepo
	log    *logger.Logger
}

func NewEventService(events repos.EventRepo, baseLog *logger.Logger) EventService {
	return &eventService{events: events, log: baseLog.With("service", "EventService")}
}

func (s *eventService) Record(ctx context.Context, tx *gorm.DB, rfqID uuid.UUID, actorID *uuid.UUID, eventType string, payload map[string]interface{}) error {
	row, err := buildEvent(rfqID, actorID, eventType, payload)
	if err != nil {
		return err
	}
	return s.events.Append(ctx, tx, row)
}

func (s *eventService) RecordBestEffort(ctx context.Context, rfqID uuid.UUID, actorID *uuid.UUID, eventType string, payload map[string]interface{}) {
	row, err := buildEvent(rfqID, actorID, eventType, payload)
	if err != nil {
		s.log.Warn("event payload marshal failed", "error", err, "event_type", eventType, "rfq_id", rfqID)
		return
	}
	if err := s.events.Append(ctx, nil, row); err != nil {
		s.log.Warn("event append failed", "error", err, "event_type", eventType, "rfq_id", rfqID)
	}
}

func (s *eventService) ListForRFQ(ctx context.Context, rfqID uuid.UUID, limit int) ([]*domain.DomainEvent, error) {
	return s.events.ListByRFQ(ctx, nil, rfqID, limit)
}

func buildEvent(rfqID uuid.UUID, actorID *uuid.UUID, eventType string, payload map[string]interface{}) (*domain.DomainEvent, error) {
	row := &domain.DomainEvent{
		RFQID:     rfqID,
		ActorID:   actorID,
		EventType: eventType,
	}
	if len(payload) > 0 {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		row.Payload = raw
	}
	return row, nil
}
