package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/partforge/sourcing-backend/internal/domain"
	"github.com/partforge/sourcing-backend/internal/platform/logger"
)

type RFQRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *domain.RFQ) (*domain.RFQ, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.RFQ, error)
	Update(ctx context.Context, tx *gorm.DB, row *domain.RFQ) error
	// ListOpen returns a bounded sample of recently created open-family RFQs,
	// optionally excluding one id. The pressure estimator uses it as the
	// demand census.
	ListOpen(ctx context.Context, tx *gorm.DB, exclude uuid.UUID, limit int) ([]*domain.RFQ, error)
	ListByCustomer(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, limit int) ([]*domain.RFQ, error)
}

type rfqRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRFQRepo(db *gorm.DB, baseLog *logger.Logger) RFQRepo {
	return &rfqRepo{db: db, log: baseLog.With("repo", "RFQRepo")}
}

func (r *rfqRepo) base(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *rfqRepo) Create(ctx context.Context, tx *gorm.DB, row *domain.RFQ) (*domain.RFQ, error) {
	if row == nil {
		return nil, nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if err := r.base(tx).WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *rfqRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.RFQ, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var out domain.RFQ
	err := r.base(tx).WithContext(ctx).Where("id = ?", id).First(&out).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *rfqRepo) Update(ctx context.Context, tx *gorm.DB, row *domain.RFQ) error {
	if row == nil || row.ID == uuid.Nil {
		return nil
	}
	return r.base(tx).WithContext(ctx).Save(row).Error
}

func (r *rfqRepo) ListOpen(ctx context.Context, tx *gorm.DB, exclude uuid.UUID, limit int) ([]*domain.RFQ, error) {
	if limit <= 0 {
		limit = 200
	}
	q := r.base(tx).WithContext(ctx).
		Where("status IN ?", domain.RFQOpenStatuses()).
		Order("created_at DESC").
		Limit(limit)
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}
	var out []*domain.RFQ
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *rfqRepo) ListByCustomer(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, limit int) ([]*domain.RFQ, error) {
	var out []*domain.RFQ
	if customerID == uuid.Nil {
		return out, nil
	}
	if limit <= 0 {
		limit = 100
	}
	if err := r.base(tx).WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
