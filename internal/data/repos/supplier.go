package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/partforge/sourcing-backend/internal/domain"
	"github.com/partforge/sourcing-backend/internal/platform/logger"
)

type SupplierRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *domain.Supplier) (*domain.Supplier, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Supplier, error)
	// GetWithProfile loads the supplier together with its capabilities and
	// documents, which the eligibility scorer needs in one fetch.
	GetWithProfile(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Supplier, error)
	Update(ctx context.Context, tx *gorm.DB, row *domain.Supplier) error
}

type supplierRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSupplierRepo(db *gorm.DB, baseLog *logger.Logger) SupplierRepo {
	return &supplierRepo{db: db, log: baseLog.With("repo", "SupplierRepo")}
}

func (r *supplierRepo) base(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *supplierRepo) Create(ctx context.Context, tx *gorm.DB, row *domain.Supplier) (*domain.Supplier, error) {
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

func (r *supplierRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Supplier, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var out domain.Supplier
	err := r.base(tx).WithContext(ctx).Where("id = ?", id).First(&out).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *supplierRepo) GetWithProfile(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Supplier, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var out domain.Supplier
	err := r.base(tx).WithContext(ctx).
		Preload("Capabilities").
		Preload("Documents").
		Where("id = ?", id).
		First(&out).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *supplierRepo) Update(ctx context.Context, tx *gorm.DB, row *domain.Supplier) error {
	if row == nil || row.ID == uuid.Nil {
		return nil
	}
	return r.base(tx).WithContext(ctx).Save(row).Error
}
