package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/partforge/sourcing-backend/internal/http/handlers"
	httpMW "github.com/partforge/sourcing-backend/internal/http/middleware"
	"github.com/partforge/sourcing-backend/internal/observability"
	"github.com/partforge/sourcing-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log     *logger.Logger
	Metrics *observability.Metrics

	MatchHandler    *httpH.MatchHandler
	MarketHandler   *httpH.MarketHandler
	BidHandler      *httpH.BidHandler
	SupplierHandler *httpH.SupplierHandler
	RFQHandler      *httpH.RFQHandler

	HealthHandler  *httpH.HealthHandler
	MetricsHandler *httpH.MetricsHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.AttachRequestContext())
	r.Use(httpMW.CORS())
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}
	if cfg.Metrics != nil {
		r.Use(httpMW.Metrics(cfg.Metrics))
	}

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	// Prometheus exposition
	if cfg.MetricsHandler != nil {
		r.GET("/metrics", cfg.MetricsHandler.Expose)
	}

	api := r.Group("/api")
	{
		// Suppliers
		if cfg.SupplierHandler != nil {
			api.POST("/suppliers", cfg.SupplierHandler.Create)
			api.GET("/suppliers/:id", cfg.SupplierHandler.Get)
			api.PUT("/suppliers/:id", cfg.SupplierHandler.Update)
			api.PUT("/suppliers/:id/capabilities", cfg.SupplierHandler.ReplaceCapabilities)
			api.POST("/suppliers/:id/documents", cfg.SupplierHandler.AddDocument)
		}

		// RFQs
		if cfg.RFQHandler != nil {
			api.POST("/rfqs", cfg.RFQHandler.Create)
			api.GET("/rfqs/:id", cfg.RFQHandler.Get)
			api.PUT("/rfqs/:id", cfg.RFQHandler.Update)
			api.GET("/customers/:id/rfqs", cfg.RFQHandler.ListByCustomer)
			api.POST("/rfqs/:id/publish", cfg.RFQHandler.Publish)
			api.POST("/rfqs/:id/close", cfg.RFQHandler.Close)
			api.POST("/rfqs/:id/cancel", cfg.RFQHandler.Cancel)
			api.GET("/rfqs/:id/events", cfg.RFQHandler.ListEvents)
		}

		// Matching and visibility
		if cfg.MatchHandler != nil {
			api.GET("/rfqs/:id/match/:supplierId", cfg.MatchHandler.EvaluateMatch)
			api.GET("/suppliers/:id/visible-rfqs", cfg.MatchHandler.ListVisibleRFQs)
		}

		// Market pressure and pricing
		if cfg.MarketHandler != nil {
			api.GET("/rfqs/:id/pressure", cfg.MarketHandler.EstimatePressure)
			api.GET("/rfqs/:id/price-floor", cfg.MarketHandler.RecommendFloor)
			api.GET("/rfqs/:id/price-ceiling", cfg.MarketHandler.RecommendCeiling)
		}

		// Bid lifecycle
		if cfg.BidHandler != nil {
			api.POST("/rfqs/:id/bids", cfg.BidHandler.Submit)
			api.POST("/rfqs/:id/bids/:bidId/withdraw", cfg.BidHandler.Withdraw)
			api.POST("/rfqs/:id/bids/:bidId/accept", cfg.BidHandler.Accept)
			api.POST("/rfqs/:id/bids/:bidId/decline-award", cfg.BidHandler.DeclineAward)
		}
	}

	return r
}
