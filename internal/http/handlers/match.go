package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/partforge/sourcing-backend/internal/http/response"
	"github.com/partforge/sourcing-backend/internal/platform/logger"
	"github.com/partforge/sourcing-backend/internal/services"
)

type MatchHandler struct {
	log      *logger.Logger
	matching services.MatchingService
}

func NewMatchHandler(log *logger.Logger, matching services.MatchingService) *MatchHandler {
	return &MatchHandler{
		log:      log.With("handler", "MatchHandler"),
		matching: matching,
	}
}

// GET /api/rfqs/:id/match/:supplierId
func (h *MatchHandler) EvaluateMatch(c *gin.Context) {
	rfqID, err := uuid.Parse(c.Param("id"))
	if err != nil || rfqID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_rfq_id", err)
		return
	}
	supplierID, err := uuid.Parse(c.Param("supplierId"))
	if err != nil || supplierID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_supplier_id", err)
		return
	}

	breakdown, err := h.matching.EvaluateMatch(c.Request.Context(), rfqID, supplierID)
	if err != nil {
		h.log.Error("EvaluateMatch failed", "error", err, "rfq_id", rfqID, "supplier_id", supplierID)
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, breakdown)
}

// GET /api/suppliers/:id/visible-rfqs
func (h *MatchHandler) ListVisibleRFQs(c *gin.Context) {
	supplierID, err := uuid.Parse(c.Param("id"))
	if err != nil || supplierID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_supplier_id", err)
		return
	}

	visible, err := h.matching.ListVisibleRFQs(c.Request.Context(), supplierID)
	if err != nil {
		h.log.Error("ListVisibleRFQs failed", "error", err, "supplier_id", supplierID)
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"rfqs": visible})
}
