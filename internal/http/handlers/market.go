package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/partforge/sourcing-backend/internal/domain"
	"github.com/partforge/sourcing-backend/internal/http/response"
	"github.com/partforge/sourcing-backend/internal/platform/logger"
	"github.com/partforge/sourcing-backend/internal/services"
)

type MarketHandler struct {
	log    *logger.Logger
	market services.MarketService
}

func NewMarketHandler(log *logger.Logger, market services.MarketService) *MarketHandler {
	return &MarketHandler{
		log:    log.With("handler", "MarketHandler"),
		market: market,
	}
}

// GET /api/rfqs/:id/pressure
func (h *MarketHandler) EstimatePressure(c *gin.Context) {
	rfqID, err := uuid.Parse(c.Param("id"))
	if err != nil || rfqID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_rfq_id", err)
		return
	}

	reading, err := h.market.EstimateMarketPressure(c.Request.Context(), rfqID)
	if err != nil {
		h.log.Error("EstimatePressure failed", "error", err, "rfq_id", rfqID)
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, reading)
}

// GET /api/rfqs/:id/price-floor
func (h *MarketHandler) RecommendFloor(c *gin.Context) {
	h.recommend(c, "RecommendFloor", h.market.RecommendPriceFloor)
}

// GET /api/rfqs/:id/price-ceiling
func (h *MarketHandler) RecommendCeiling(c *gin.Context) {
	h.recommend(c, "RecommendCeiling", h.market.RecommendPriceCeiling)
}

func (h *MarketHandler) recommend(c *gin.Context, op string, fn func(context.Context, uuid.UUID) (*domain.PricingRecommendation, error)) {
	rfqID, err := uuid.Parse(c.Param("id"))
	if err != nil || rfqID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_rfq_id", err)
		return
	}

	rec, err := fn(c.Request.Context(), rfqID)
	if err != nil {
		h.log.Error(op+" failed", "error", err, "rfq_id", rfqID)
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, rec)
}
