package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/partforge/sourcing-backend/internal/http/response"
	"github.com/partforge/sourcing-backend/internal/platform/ctxutil"
	"github.com/partforge/sourcing-backend/internal/platform/logger"
	"github.com/partforge/sourcing-backend/internal/services"
)

type BidHandler struct {
	log  *logger.Logger
	bids services.BidService
}

func NewBidHandler(log *logger.Logger, bids services.BidService) *BidHandler {
	return &BidHandler{
		log:  log.With("handler", "BidHandler"),
		bids: bids,
	}
}

type submitBidRequest struct {
	PriceTotal   float64 `json:"price_total"`
	Currency     string  `json:"currency"`
	LeadTimeDays int     `json:"lead_time_days"`
	Notes        string  `json:"notes"`
}

// POST /api/rfqs/:id/bids
func (h *BidHandler) Submit(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	rfqID, err := uuid.Parse(c.Param("id"))
	if err != nil || rfqID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_rfq_id", err)
		return
	}

	var req submitBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	bid, err := h.bids.Submit(c.Request.Context(), services.SubmitBidInput{
		RFQID:        rfqID,
		SupplierID:   actorID,
		PriceTotal:   req.PriceTotal,
		Currency:     req.Currency,
		LeadTimeDays: req.LeadTimeDays,
		Notes:        req.Notes,
	})
	if err != nil {
		h.log.Error("Submit failed", "error", err, "rfq_id", rfqID, "supplier_id", actorID)
		response.RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bid)
}

// POST /api/rfqs/:id/bids/:bidId/withdraw
func (h *BidHandler) Withdraw(c *gin.Context) {
	actorID, rfqID, bidID, ok := bidRouteIDs(c)
	if !ok {
		return
	}

	bid, err := h.bids.Withdraw(c.Request.Context(), rfqID, bidID, actorID)
	if err != nil {
		h.log.Error("Withdraw failed", "error", err, "rfq_id", rfqID, "bid_id", bidID)
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, bid)
}

// POST /api/rfqs/:id/bids/:bidId/accept
func (h *BidHandler) Accept(c *gin.Context) {
	actorID, rfqID, bidID, ok := bidRouteIDs(c)
	if !ok {
		return
	}

	bid, err := h.bids.Accept(c.Request.Context(), rfqID, bidID, actorID)
	if err != nil {
		h.log.Error("Accept failed", "error", err, "rfq_id", rfqID, "bid_id", bidID)
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, bid)
}

// POST /api/rfqs/:id/bids/:bidId/decline-award
func (h *BidHandler) DeclineAward(c *gin.Context) {
	actorID, rfqID, bidID, ok := bidRouteIDs(c)
	if !ok {
		return
	}

	bid, err := h.bids.DeclineAward(c.Request.Context(), rfqID, bidID, actorID)
	if err != nil {
		h.log.Error("DeclineAward failed", "error", err, "rfq_id", rfqID, "bid_id", bidID)
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, bid)
}

func bidRouteIDs(c *gin.Context) (actorID, rfqID, bidID uuid.UUID, ok bool) {
	actorID, ok = requireActor(c)
	if !ok {
		return
	}
	var err error
	rfqID, err = uuid.Parse(c.Param("id"))
	if err != nil || rfqID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_rfq_id", err)
		return uuid.Nil, uuid.Nil, uuid.Nil, false
	}
	bidID, err = uuid.Parse(c.Param("bidId"))
	if err != nil || bidID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_bid_id", err)
		return uuid.Nil, uuid.Nil, uuid.Nil, false
	}
	return actorID, rfqID, bidID, true
}

// requireActor pulls the acting party set by the gateway's X-Actor-ID header.
func requireActor(c *gin.Context) (uuid.UUID, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.ActorID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "missing_actor", nil)
		return uuid.Nil, false
	}
	return rd.ActorID, true
}
