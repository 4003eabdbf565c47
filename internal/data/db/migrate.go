package db

import (
	"gorm.io/gorm"

	"github.com/partforge/sourcing-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// Supply side
		&domain.Supplier{},
		&domain.Capability{},
		&domain.SupplierDocument{},

		// Demand side + allocation
		&domain.RFQ{},
		&domain.Bid{},

		// Decision log
		&domain.DomainEvent{},
	)
}
