package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/partforge/sourcing-backend/internal/domain"
	"github.com/partforge/sourcing-backend/internal/platform/logger"
)

type CapabilityRepo interface {
	ListBySupplier(ctx context.Context, tx *gorm.DB, supplierID uuid.UUID) ([]*domain.Capability, error)
	// ListSample returns a bounded slice of recent capability rows across all
	// suppliers. The market pressure estimator scans it to count supply per
	// process; the cap keeps per-request cost predictable.
	ListSample(ctx context.Context, tx *gorm.DB, limit int) ([]*domain.Capability, error)
	// ReplaceForSupplier swaps a supplier's capability rows wholesale:
	// delete-then-insert inside the caller's transaction.
	ReplaceForSupplier(ctx context.Context, tx *gorm.DB, supplierID uuid.UUID, rows []*domain.Capability) ([]*domain.Capability, error)
}

type capabilityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCapabilityRepo(db *gorm.DB, baseLog *logger.Logger) CapabilityRepo {
	return &capabilityRepo{db: db, log: baseLog.With("repo", "CapabilityRepo")}
}

func (r *capabilityRepo) base(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *capabilityRepo) ListBySupplier(ctx context.Context, tx *gorm.DB, supplierID uuid.UUID) ([]*domain.Capability, error) {
	var out []*domain.Capability
	if supplierID == uuid.Nil {
		return out, nil
	}
	if err := r.base(tx).WithContext(ctx).
		Where("supplier_id = ?", supplierID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *capabilityRepo) ListSample(ctx context.Context, tx *gorm.DB, limit int) ([]*domain.Capability, error) {
	if limit <= 0 {
		limit = 500
	}
	var out []*domain.Capability
	if err := r.base(tx).WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *capabilityRepo) ReplaceForSupplier(ctx context.Context, tx *gorm.DB, supplierID uuid.UUID, rows []*domain.Capability) ([]*domain.Capability, error) {
	if supplierID == uuid.Nil {
		return nil, nil
	}
	t := r.base(tx).WithContext(ctx)
	if err := t.Where("supplier_id = ?", supplierID).Delete(&domain.Capability{}).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []*domain.Capability{}, nil
	}
	for _, row := range rows {
		row.SupplierID = supplierID
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
	}
	if err := t.Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
