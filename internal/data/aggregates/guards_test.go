package aggregates

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/partforge/sourcing-backend/internal/domain"
	"github.com/partforge/sourcing-backend/internal/platform/dbctx"
)

func guardDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "guard.db")), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	ddl := `CREATE TABLE rfq (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL,
		status TEXT NOT NULL,
		quantity INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME
	)`
	if err := gdb.Exec(ddl).Error; err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return gdb
}

func seedRFQ(t *testing.T, gdb *gorm.DB, status string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	if err := gdb.Exec(
		"INSERT INTO rfq (id, customer_id, status) VALUES (?, ?, ?)",
		id, uuid.New(), status,
	).Error; err != nil {
		t.Fatalf("seed rfq: %v", err)
	}
	return id
}

func rfqStatus(t *testing.T, gdb *gorm.DB, id uuid.UUID) string {
	t.Helper()
	var status string
	if err := gdb.Raw("SELECT status FROM rfq WHERE id = ?", id).Scan(&status).Error; err != nil {
		t.Fatalf("read status: %v", err)
	}
	return status
}

func TestUpdateByStatusHitsMatchingGuard(t *testing.T) {
	gdb := guardDB(t)
	guard := NewCASGuard(gdb)
	id := seedRFQ(t, gdb, domain.RFQStatusOpen)

	ok, err := guard.UpdateByStatus(dbctx.Context{Ctx: context.Background()},
		"rfq", id, domain.RFQOpenStatuses(),
		map[string]any{"status": domain.RFQStatusAwarded})
	if err != nil {
		t.Fatalf("UpdateByStatus: %v", err)
	}
	if !ok {
		t.Fatalf("guard missed on matching status")
	}
	if got := rfqStatus(t, gdb, id); got != domain.RFQStatusAwarded {
		t.Fatalf("status = %q, want awarded", got)
	}
}

func TestUpdateByStatusMissesOnChangedStatus(t *testing.T) {
	gdb := guardDB(t)
	guard := NewCASGuard(gdb)
	id := seedRFQ(t, gdb, domain.RFQStatusAwarded)

	ok, err := guard.UpdateByStatus(dbctx.Context{Ctx: context.Background()},
		"rfq", id, domain.RFQOpenStatuses(),
		map[string]any{"status": domain.RFQStatusAwarded})
	if err != nil {
		t.Fatalf("UpdateByStatus: %v", err)
	}
	if ok {
		t.Fatalf("guard hit on non-open status")
	}
}

func TestUpdateByStatusValidation(t *testing.T) {
	gdb := guardDB(t)
	guard := NewCASGuard(gdb)
	dbc := dbctx.Context{Ctx: context.Background()}

	if _, err := guard.UpdateByStatus(dbc, "", uuid.New(), []string{"open"}, map[string]any{"status": "x"}); err == nil {
		t.Fatalf("missing table accepted")
	}
	if _, err := guard.UpdateByStatus(dbc, "rfq", uuid.Nil, []string{"open"}, map[string]any{"status": "x"}); err == nil {
		t.Fatalf("nil id accepted")
	}
	if _, err := guard.UpdateByStatus(dbc, "rfq", uuid.New(), nil, map[string]any{"status": "x"}); err == nil {
		t.Fatalf("empty guard accepted")
	}
}

func TestUpdateByStatusPrefersTransaction(t *testing.T) {
	gdb := guardDB(t)
	guard := NewCASGuard(nil)
	id := seedRFQ(t, gdb, domain.RFQStatusOpen)

	// Without a pooled db the guard requires an explicit transaction.
	if _, err := guard.UpdateByStatus(dbctx.Context{Ctx: context.Background()}, "rfq", id,
		[]string{domain.RFQStatusOpen}, map[string]any{"status": domain.RFQStatusClosed}); err == nil {
		t.Fatalf("guard without db or tx accepted")
	}

	err := gdb.Transaction(func(tx *gorm.DB) error {
		ok, txErr := guard.UpdateByStatus(dbctx.Context{Ctx: context.Background(), Tx: tx}, "rfq", id,
			[]string{domain.RFQStatusOpen}, map[string]any{"status": domain.RFQStatusClosed})
		if txErr != nil {
			return txErr
		}
		if !ok {
			t.Fatalf("guard missed inside transaction")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
	if got := rfqStatus(t, gdb, id); got != domain.RFQStatusClosed {
		t.Fatalf("status = %q, want closed", got)
	}
}

func TestRequireCASSuccess(t *testing.T) {
	if err := RequireCASSuccess(true, "ignored"); err != nil {
		t.Fatalf("success produced error: %v", err)
	}
	err := RequireCASSuccess(false, "lost the race")
	if err == nil {
		t.Fatalf("failure produced nil")
	}
	if got := MapError("op", err); !domain.IsCode(got, domain.CodeConflict) {
		t.Fatalf("CAS miss maps to %v, want conflict", domain.CodeOf(got))
	}
}

func TestRequireStatusAllowed(t *testing.T) {
	if err := RequireStatusAllowed("open", "open", "in_review"); err != nil {
		t.Fatalf("allowed status rejected: %v", err)
	}
	if err := RequireStatusAllowed("closed", "open"); err == nil {
		t.Fatalf("disallowed status accepted")
	}
	if err := RequireStatusAllowed("open"); err == nil {
		t.Fatalf("empty allow list accepted")
	}
}
