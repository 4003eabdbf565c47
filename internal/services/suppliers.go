package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/partforge/sourcing-backend/internal/data/aggregates"
	"github.com/partforge/sourcing-backend/internal/data/repos"
	"github.com/partforge/sourcing-backend/internal/domain"
	"github.com/partforge/sourcing-backend/internal/matching"
	"github.com/partforge/sourcing-backend/internal/platform/dbctx"
	"github.com/partforge/sourcing-backend/internal/platform/logger"
)

// SupplierService manages supplier onboarding and profile updates.
// Capability rows are replaced wholesale on update, never patched.
type SupplierService interface {
	Create(ctx context.Context, supplier *domain.Supplier) (*domain.Supplier, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Supplier, error)
	// Update replaces the profile fields of an existing supplier.
	// Capabilities and documents have their own surfaces.
	Update(ctx context.Context, supplier *domain.Supplier) (*domain.Supplier, error)
	ReplaceCapabilities(ctx context.Context, supplierID uuid.UUID, rows []*domain.Capability) ([]*domain.Capability, error)
	AddDocument(ctx context.Context, doc *domain.SupplierDocument) (*domain.SupplierDocument, error)
}

type supplierService struct {
	suppliers    repos.SupplierRepo
	capabilities repos.CapabilityRepo
	documents    repos.DocumentRepo
	runner       aggregates.TxRunner
	log          *logger.Logger
}

func NewSupplierService(
	suppliers repos.SupplierRepo,
	capabilities repos.CapabilityRepo,
	documents repos.DocumentRepo,
	runner aggregates.TxRunner,
	baseLog *logger.Logger,
) SupplierService {
	return &supplierService{
		suppliers:    suppliers,
		capabilities: capabilities,
		documents:    documents,
		runner:       runner,
		log:          baseLog.With("service", "SupplierService"),
	}
}

func (s *supplierService) Create(ctx context.Context, supplier *domain.Supplier) (*domain.Supplier, error) {
	const op = "supplier.create"
	if supplier == nil || strings.TrimSpace(supplier.DisplayName) == "" {
		return nil, domain.NewError(domain.CodeValidation, op, "display name is required", nil)
	}
	if !strings.Contains(supplier.ContactEmail, "@") {
		return nil, domain.NewError(domain.CodeValidation, op, "contact email is invalid", nil)
	}
	out, err := s.suppliers.Create(ctx, nil, supplier)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	return out, nil
}

func (s *supplierService) Update(ctx context.Context, supplier *domain.Supplier) (*domain.Supplier, error) {
	const op = "supplier.update"
	if supplier == nil || supplier.ID == uuid.Nil {
		return nil, domain.NewError(domain.CodeValidation, op, "supplier id is required", nil)
	}
	if strings.TrimSpace(supplier.DisplayName) == "" {
		return nil, domain.NewError(domain.CodeValidation, op, "display name is required", nil)
	}
	if !strings.Contains(supplier.ContactEmail, "@") {
		return nil, domain.NewError(domain.CodeValidation, op, "contact email is invalid", nil)
	}
	current, err := s.suppliers.GetByID(ctx, nil, supplier.ID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if current == nil {
		return nil, domain.NewError(domain.CodeNotFound, op, fmt.Sprintf("supplier %s not found", supplier.ID), nil)
	}

	current.DisplayName = supplier.DisplayName
	current.ContactEmail = supplier.ContactEmail
	current.Country = supplier.Country
	current.Verified = supplier.Verified

	if err := s.suppliers.Update(ctx, nil, current); err != nil {
		return nil, aggregates.MapError(op, err)
	}
	return current, nil
}

func (s *supplierService) Get(ctx context.Context, id uuid.UUID) (*domain.Supplier, error) {
	const op = "supplier.get"
	out, err := s.suppliers.GetWithProfile(ctx, nil, id)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if out == nil {
		return nil, domain.NewError(domain.CodeNotFound, op, fmt.Sprintf("supplier %s not found", id), nil)
	}
	return out, nil
}

func (s *supplierService) ReplaceCapabilities(ctx context.Context, supplierID uuid.UUID, rows []*domain.Capability) ([]*domain.Capability, error) {
	const op = "supplier.replace_capabilities"
	supplier, err := s.suppliers.GetByID(ctx, nil, supplierID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if supplier == nil {
		return nil, domain.NewError(domain.CodeNotFound, op, fmt.Sprintf("supplier %s not found", supplierID), nil)
	}
	for _, row := range rows {
		if row == nil || strings.TrimSpace(row.Process) == "" {
			return nil, domain.NewError(domain.CodeValidation, op, "every capability needs a process", nil)
		}
		row.Process = matching.NormalizeTerm(row.Process)
		row.Materials = matching.NormalizeSet(row.Materials)
		row.Certifications = matching.NormalizeSet(row.Certifications)
	}

	var out []*domain.Capability
	err = s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		replaced, txErr := s.capabilities.ReplaceForSupplier(dbc.Ctx, dbc.Tx, supplierID, rows)
		if txErr != nil {
			return txErr
		}
		out = replaced
		return nil
	})
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	return out, nil
}

func (s *supplierService) AddDocument(ctx context.Context, doc *domain.SupplierDocument) (*domain.SupplierDocument, error) {
	const op = "supplier.add_document"
	if doc == nil || doc.SupplierID == uuid.Nil || strings.TrimSpace(doc.DocType) == "" {
		return nil, domain.NewError(domain.CodeValidation, op, "supplier id and doc type are required", nil)
	}
	doc.DocType = matching.NormalizeTerm(doc.DocType)
	out, err := s.documents.Create(ctx, nil, doc)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	return out, nil
}
