package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/partforge/sourcing-backend/internal/domain"
	"github.com/partforge/sourcing-backend/internal/platform/logger"
)

type EventRepo interface {
	Append(ctx context.Context, tx *gorm.DB, row *domain.DomainEvent) error
	ListByRFQ(ctx context.Context, tx *gorm.DB, rfqID uuid.UUID, limit int) ([]*domain.DomainEvent, error)
}

type eventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEventRepo(db *gorm.DB, baseLog *logger.Logger) EventRepo {
	return &eventRepo{db: db, log: baseLog.With("repo", "EventRepo")}
}

func (r *eventRepo) base(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *eventRepo) Append(ctx context.Context, tx *gorm.DB, row *domain.DomainEvent) error {
	if row == nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return r.base(tx).WithContext(ctx).Create(row).Error
}

func (r *eventRepo) ListByRFQ(ctx context.Context, tx *gorm.DB, rfqID uuid.UUID, limit int) ([]*domain.DomainEvent, error) {
	var out []*domain.DomainEvent
	if rfqID == uuid.Nil {
		return out, nil
	}
	if limit <= 0 {
		limit = 100
	}
	if err := r.base(tx).WithContext(ctx).
		Where("rfq_id = ?", rfqID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
