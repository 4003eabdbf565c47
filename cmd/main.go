package main

import (
	"fmt"
	"os"

	"github.com/partforge/sourcing-backend/internal/clients/redis"
	"github.com/partforge/sourcing-backend/internal/data/aggregates"
	"github.com/partforge/sourcing-backend/internal/data/db"
	"github.com/partforge/sourcing-backend/internal/data/repos"
	httpX "github.com/partforge/sourcing-backend/internal/http"
	httpH "github.com/partforge/sourcing-backend/internal/http/handlers"
	"github.com/partforge/sourcing-backend/internal/observability"
	"github.com/partforge/sourcing-backend/internal/platform/envutil"
	"github.com/partforge/sourcing-backend/internal/platform/logger"
	"github.com/partforge/sourcing-backend/internal/services"
)

func main() {
	// Logger
	logMode := envutil.String("LOG_MODE", "development")
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up repos...")
	supplierRepo := repos.NewSupplierRepo(thePG, log)
	capabilityRepo := repos.NewCapabilityRepo(thePG, log)
	documentRepo := repos.NewDocumentRepo(thePG, log)
	rfqRepo := repos.NewRFQRepo(thePG, log)
	bidRepo := repos.NewBidRepo(thePG, log)
	eventRepo := repos.NewEventRepo(thePG, log)

	// Aggregate plumbing
	txRunner := aggregates.NewGormTxRunner(thePG)
	casGuard := aggregates.NewCASGuard(thePG)
	metrics := observability.NewMetrics()
	hooks := aggregates.NewObservabilityHooks(metrics)

	// Optional pressure-reading cache
	var readingCache services.ReadingCache
	if cache, err := redis.NewReadingCache(log); err != nil {
		log.Warn("Redis reading cache unavailable, recomputing every call", "error", err)
	} else {
		readingCache = cache
	}

	// Services
	log.Info("Setting up services...")
	eventService := services.NewEventService(eventRepo, log)
	matchingService := services.NewMatchingService(supplierRepo, rfqRepo, bidRepo, eventService, metrics, log)
	marketService := services.NewMarketService(rfqRepo, bidRepo, capabilityRepo, eventService, readingCache, metrics, log)
	bidService := services.NewBidService(rfqRepo, bidRepo, matchingService, eventService, txRunner, casGuard, hooks, metrics, log)
	supplierService := services.NewSupplierService(supplierRepo, capabilityRepo, documentRepo, txRunner, log)
	rfqService := services.NewRFQService(rfqRepo, bidRepo, eventService, txRunner, casGuard, log)

	// HTTP
	server := httpX.NewServer(httpX.RouterConfig{
		Log:     log,
		Metrics: metrics,

		MatchHandler:    httpH.NewMatchHandler(log, matchingService),
		MarketHandler:   httpH.NewMarketHandler(log, marketService),
		BidHandler:      httpH.NewBidHandler(log, bidService),
		SupplierHandler: httpH.NewSupplierHandler(log, supplierService),
		RFQHandler:      httpH.NewRFQHandler(log, rfqService, eventService),

		HealthHandler:  httpH.NewHealthHandler(thePG),
		MetricsHandler: httpH.NewMetricsHandler(metrics),
	})

	address := envutil.String("SERVER_ADDRESS", ":8080")
	log.Info("Starting server", "address", address)
	if err := server.Run(address); err != nil {
		log.Fatal("Server stopped", "error", err)
	}
}
