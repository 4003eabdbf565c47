package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/partforge/sourcing-backend/internal/domain"
)

func TestSupplierCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.suppliers.Create(ctx, &domain.Supplier{ContactEmail: "a@b.test"}); !domain.IsCode(err, domain.CodeValidation) {
		t.Fatalf("missing name error = %v, want validation", err)
	}
	if _, err := env.suppliers.Create(ctx, &domain.Supplier{DisplayName: "X", ContactEmail: "nope"}); !domain.IsCode(err, domain.CodeValidation) {
		t.Fatalf("bad email error = %v, want validation", err)
	}
}

func TestReplaceCapabilitiesIsWholesale(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	supplier := env.seedSupplier(t)

	replaced, err := env.suppliers.ReplaceCapabilities(ctx, supplier.ID, []*domain.Capability{
		{Process: " Sheet Metal ", Materials: datatypes.JSONSlice[string]{"STEEL", "steel"}},
		{Process: "Welding"},
	})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if len(replaced) != 2 {
		t.Fatalf("replaced rows = %d, want 2", len(replaced))
	}
	if replaced[0].Process != "sheet metal" {
		t.Fatalf("process = %q, want normalized", replaced[0].Process)
	}
	if len(replaced[0].Materials) != 1 {
		t.Fatalf("materials = %v, want deduped singleton", replaced[0].Materials)
	}

	// The original CNC capability from seeding is gone.
	profile, err := env.suppliers.Get(ctx, supplier.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(profile.Capabilities) != 2 {
		t.Fatalf("profile capabilities = %d, want 2", len(profile.Capabilities))
	}
	for _, c := range profile.Capabilities {
		if c.Process == "cnc machining" {
			t.Fatalf("stale capability survived wholesale replacement")
		}
	}

	// A process-less row rejects the whole update.
	if _, err := env.suppliers.ReplaceCapabilities(ctx, supplier.ID, []*domain.Capability{{Process: "  "}}); !domain.IsCode(err, domain.CodeValidation) {
		t.Fatalf("blank process error = %v, want validation", err)
	}
	if _, err := env.suppliers.ReplaceCapabilities(ctx, uuid.New(), nil); !domain.IsCode(err, domain.CodeNotFound) {
		t.Fatalf("unknown supplier error = %v, want not_found", err)
	}
}

func TestAddDocumentNormalizesDocType(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	supplier := env.seedSupplier(t)

	doc, err := env.suppliers.AddDocument(ctx, &domain.SupplierDocument{
		SupplierID: supplier.ID,
		DocType:    " AS9100 ",
		FileName:   "as9100.pdf",
	})
	if err != nil {
		t.Fatalf("add document: %v", err)
	}
	if doc.DocType != "as9100" {
		t.Fatalf("doc type = %q, want normalized", doc.DocType)
	}

	if _, err := env.suppliers.AddDocument(ctx, &domain.SupplierDocument{SupplierID: supplier.ID}); !domain.IsCode(err, domain.CodeValidation) {
		t.Fatalf("missing doc type error = %v, want validation", err)
	}
}

func TestSupplierUpdate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	supplier := env.seedSupplier(t)

	updated, err := env.suppliers.Update(ctx, &domain.Supplier{
		ID:           supplier.ID,
		DisplayName:  "Apex Machining West",
		ContactEmail: "west@apexmachining.test",
		Country:      "MX",
		Verified:     true,
	})
	if err != nil {
		t.Fatalf("update supplier: %v", err)
	}
	if updated.DisplayName != "Apex Machining West" || updated.Country != "MX" {
		t.Fatalf("updated profile = %q/%q, want Apex Machining West/MX", updated.DisplayName, updated.Country)
	}

	// Capability rows are untouched by a profile update.
	fresh, err := env.suppliers.Get(ctx, supplier.ID)
	if err != nil {
		t.Fatalf("reload supplier: %v", err)
	}
	if fresh.ContactEmail != "west@apexmachining.test" {
		t.Fatalf("persisted email = %q, want west@apexmachining.test", fresh.ContactEmail)
	}
	if len(fresh.Capabilities) != 1 {
		t.Fatalf("capability count = %d, want 1", len(fresh.Capabilities))
	}

	if _, err := env.suppliers.Update(ctx, &domain.Supplier{ID: supplier.ID, ContactEmail: "a@b.test"}); !domain.IsCode(err, domain.CodeValidation) {
		t.Fatalf("missing name error = %v, want validation", err)
	}
	if _, err := env.suppliers.Update(ctx, &domain.Supplier{ID: uuid.New(), DisplayName: "Ghost", ContactEmail: "g@h.test"}); !domain.IsCode(err, domain.CodeNotFound) {
		t.Fatalf("unknown supplier error = %v, want not_found", err)
	}
}
