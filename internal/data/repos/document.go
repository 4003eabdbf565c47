package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/partforge/sourcing-backend/internal/domain"
	"github.com/partforge/sourcing-backend/internal/platform/logger"
)

type DocumentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *domain.SupplierDocument) (*domain.SupplierDocument, error)
	ListBySupplier(ctx context.Context, tx *gorm.DB, supplierID uuid.UUID) ([]*domain.SupplierDocument, error)
}

type documentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return &documentRepo{db: db, log: baseLog.With("repo", "DocumentRepo")}
}

func (r *documentRepo) base(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *documentRepo) Create(ctx context.Context, tx *gorm.DB, row *domain.SupplierDocument) (*domain.SupplierDocument, error) {
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

func (r *documentRepo) ListBySupplier(ctx context.Context, tx *gorm.DB, supplierID uuid.UUID) ([]*domain.SupplierDocument, error) {
	var out []*domain.SupplierDocument
	if supplierID == uuid.Nil {
		return out, nil
	}
	if err := r.base(tx).WithContext(ctx).
		Where("supplier_id = ?", supplierID).
		Order("uploaded_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
