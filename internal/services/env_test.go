package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/partforge/sourcing-backend/internal/data/aggregates"
	"github.com/partforge/sourcing-backend/internal/data/repos"
	"github.com/partforge/sourcing-backend/internal/domain"
	"github.com/partforge/sourcing-backend/internal/observability"
	"github.com/partforge/sourcing-backend/internal/platform/logger"
)

// Table DDL for the test database. Postgres owns defaults and uuid
// generation in production; the repos assign ids app-side, so the schema
// here only needs columns and the composite bid uniqueness.
var testSchema = []string{
	`CREATE TABLE supplier (
		id TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		contact_email TEXT NOT NULL,
		verified INTEGER NOT NULL DEFAULT 0,
		country TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE capability (
		id TEXT PRIMARY KEY,
		supplier_id TEXT NOT NULL,
		process TEXT NOT NULL,
		materials TEXT,
		certifications TEXT,
		max_length_mm REAL,
		max_width_mm REAL,
		created_at DATETIME
	)`,
	`CREATE TABLE supplier_document (
		id TEXT PRIMARY KEY,
		supplier_id TEXT NOT NULL,
		doc_type TEXT NOT NULL,
		file_name TEXT,
		uploaded_at DATETIME
	)`,
	`CREATE TABLE rfq (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'draft',
		processes TEXT,
		materials TEXT,
		certifications TEXT,
		quantity INTEGER NOT NULL DEFAULT 1,
		target_date DATETIME,
		priority TEXT DEFAULT 'normal',
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE bid (
		id TEXT PRIMARY KEY,
		rfq_id TEXT NOT NULL,
		supplier_id TEXT NOT NULL,
		price_total REAL NOT NULL DEFAULT 0,
		currency TEXT NOT NULL DEFAULT 'USD',
		lead_time_days INTEGER NOT NULL DEFAULT 0,
		notes TEXT,
		status TEXT NOT NULL DEFAULT 'submitted',
		created_at DATETIME,
		updated_at DATETIME,
		UNIQUE (rfq_id, supplier_id)
	)`,
	`CREATE TABLE domain_event (
		id TEXT PRIMARY KEY,
		rfq_id TEXT NOT NULL,
		actor_id TEXT,
		event_type TEXT NOT NULL,
		payload TEXT,
		created_at DATETIME
	)`,
}

type testEnv struct {
	db *gorm.DB

	supplierRepo   repos.SupplierRepo
	capabilityRepo repos.CapabilityRepo
	rfqRepo        repos.RFQRepo
	bidRepo        repos.BidRepo
	eventRepo      repos.EventRepo

	events    EventService
	matching  MatchingService
	market    MarketService
	bids      BidService
	suppliers SupplierService
	rfqs      RFQService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "engine.db")
	gdb, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("access sql.DB: %v", err)
	}
	// One connection serializes concurrent transactions the way row locks
	// do in Postgres.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	for _, stmt := range testSchema {
		if err := gdb.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}

	log := logger.NewNop()
	metrics := observability.NewMetrics()

	supplierRepo := repos.NewSupplierRepo(gdb, log)
	capabilityRepo := repos.NewCapabilityRepo(gdb, log)
	documentRepo := repos.NewDocumentRepo(gdb, log)
	rfqRepo := repos.NewRFQRepo(gdb, log)
	bidRepo := repos.NewBidRepo(gdb, log)
	eventRepo := repos.NewEventRepo(gdb, log)

	runner := aggregates.NewGormTxRunner(gdb)
	guard := aggregates.NewCASGuard(gdb)

	events := NewEventService(eventRepo, log)
	matching := NewMatchingService(supplierRepo, rfqRepo, bidRepo, events, metrics, log)
	market := NewMarketService(rfqRepo, bidRepo, capabilityRepo, events, nil, metrics, log)
	bids := NewBidService(rfqRepo, bidRepo, matching, events, runner, guard, nil, metrics, log)
	suppliers := NewSupplierService(supplierRepo, capabilityRepo, documentRepo, runner, log)
	rfqs := NewRFQService(rfqRepo, bidRepo, events, runner, guard, log)

	return &testEnv{
		db:             gdb,
		supplierRepo:   supplierRepo,
		capabilityRepo: capabilityRepo,
		rfqRepo:        rfqRepo,
		bidRepo:        bidRepo,
		eventRepo:      eventRepo,
		events:         events,
		matching:       matching,
		market:         market,
		bids:           bids,
		suppliers:      suppliers,
		rfqs:           rfqs,
	}
}

// seedSupplier creates a verified supplier with one CNC/aluminum/ISO 9001
// capability, which clears the visibility gate against seedOpenRFQ.
func (e *testEnv) seedSupplier(t *testing.T) *domain.Supplier {
	t.Helper()
	ctx := context.Background()
	supplier, err := e.suppliers.Create(ctx, &domain.Supplier{
		DisplayName:  "Apex Machining",
		ContactEmail: "quotes@apexmachining.test",
		Verified:     true,
		Country:      "US",
	})
	if err != nil {
		t.Fatalf("seed supplier: %v", err)
	}
	_, err = e.suppliers.ReplaceCapabilities(ctx, supplier.ID, []*domain.Capability{{
		Process:        "CNC Machining",
		Materials:      datatypes.JSONSlice[string]{"Aluminum", "Steel"},
		Certifications: datatypes.JSONSlice[string]{"ISO 9001"},
	}})
	if err != nil {
		t.Fatalf("seed capabilities: %v", err)
	}
	return supplier
}

// seedOpenRFQ creates and publishes an RFQ owned by customer.
func (e *testEnv) seedOpenRFQ(t *testing.T, customer uuid.UUID) *domain.RFQ {
	t.Helper()
	ctx := context.Background()
	rfq, err := e.rfqs.Create(ctx, &domain.RFQ{
		CustomerID: customer,
		Processes:  datatypes.JSONSlice[string]{"cnc machining"},
		Materials:  datatypes.JSONSlice[string]{"aluminum"},
		Quantity:   100,
	})
	if err != nil {
		t.Fatalf("seed rfq: %v", err)
	}
	rfq, err = e.rfqs.Publish(ctx, rfq.ID, customer)
	if err != nil {
		t.Fatalf("publish rfq: %v", err)
	}
	return rfq
}

func (e *testEnv) submitBid(t *testing.T, rfqID, supplierID uuid.UUID, price float64) *domain.Bid {
	t.Helper()
	bid, err := e.bids.Submit(context.Background(), SubmitBidInput{
		RFQID:      rfqID,
		SupplierID: supplierID,
		PriceTotal: price,
		Currency:   "USD",
	})
	if err != nil {
		t.Fatalf("submit bid: %v", err)
	}
	return bid
}

func (e *testEnv) eventTypes(t *testing.T, rfqID uuid.UUID) []string {
	t.Helper()
	rows, err := e.events.ListForRFQ(context.Background(), rfqID, 100)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.EventType)
	}
	return out
}

func containsEvent(types []string, want string) bool {
	for _, tp := range types {
		if tp == want {
			return true
		}
	}
	return false
}
