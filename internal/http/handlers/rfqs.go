package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/partforge/sourcing-backend/internal/domain"
	"github.com/partforge/sourcing-backend/internal/http/response"
	"github.com/partforge/sourcing-backend/internal/platform/logger"
	"github.com/partforge/sourcing-backend/internal/services"
)

type RFQHandler struct {
	log    *logger.Logger
	rfqs   services.RFQService
	events services.EventService
}

func NewRFQHandler(log *logger.Logger, rfqs services.RFQService, events services.EventService) *RFQHandler {
	return &RFQHandler{
		log:    log.With("handler", "RFQHandler"),
		rfqs:   rfqs,
		events: events,
	}
}

type createRFQRequest struct {
	Processes      []string   `json:"processes"`
	Materials      []string   `json:"materials"`
	Certifications []string   `json:"certifications"`
	Quantity       int        `json:"quantity"`
	TargetDate     *time.Time `json:"target_date"`
	Priority       string     `json:"priority"`
}

// POST /api/rfqs
func (h *RFQHandler) Create(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}

	var req createRFQRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	rfq, err := h.rfqs.Create(c.Request.Context(), &domain.RFQ{
		CustomerID:     actorID,
		Processes:      datatypes.JSONSlice[string](req.Processes),
		Materials:      datatypes.JSONSlice[string](req.Materials),
		Certifications: datatypes.JSONSlice[string](req.Certifications),
		Quantity:       req.Quantity,
		TargetDate:     req.TargetDate,
		Priority:       req.Priority,
	})
	if err != nil {
		h.log.Error("Create failed", "error", err, "customer_id", actorID)
		response.RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rfq)
}

// PUT /api/rfqs/:id
func (h *RFQHandler) Update(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	rfqID, err := uuid.Parse(c.Param("id"))
	if err != nil || rfqID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_rfq_id", err)
		return
	}

	var req createRFQRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	rfq, err := h.rfqs.UpdateDraft(c.Request.Context(), rfqID, actorID, &domain.RFQ{
		Processes:      datatypes.JSONSlice[string](req.Processes),
		Materials:      datatypes.JSONSlice[string](req.Materials),
		Certifications: datatypes.JSONSlice[string](req.Certifications),
		Quantity:       req.Quantity,
		TargetDate:     req.TargetDate,
		Priority:       req.Priority,
	})
	if err != nil {
		h.log.Error("Update failed", "error", err, "rfq_id", rfqID)
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, rfq)
}

// GET /api/customers/:id/rfqs
func (h *RFQHandler) ListByCustomer(c *gin.Context) {
	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil || customerID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_customer_id", err)
		return
	}

	rfqs, err := h.rfqs.ListByCustomer(c.Request.Context(), customerID)
	if err != nil {
		h.log.Error("ListByCustomer failed", "error", err, "customer_id", customerID)
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"rfqs": rfqs})
}

// GET /api/rfqs/:id
func (h *RFQHandler) Get(c *gin.Context) {
	rfqID, err := uuid.Parse(c.Param("id"))
	if err != nil || rfqID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_rfq_id", err)
		return
	}

	view, err := h.rfqs.Get(c.Request.Context(), rfqID)
	if err != nil {
		h.log.Error("Get failed", "error", err, "rfq_id", rfqID)
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, view)
}

// POST /api/rfqs/:id/publish
func (h *RFQHandler) Publish(c *gin.Context) {
	h.transition(c, "Publish", h.rfqs.Publish)
}

// POST /api/rfqs/:id/close
func (h *RFQHandler) Close(c *gin.Context) {
	h.transition(c, "Close", h.rfqs.Close)
}

// POST /api/rfqs/:id/cancel
func (h *RFQHandler) Cancel(c *gin.Context) {
	h.transition(c, "Cancel", h.rfqs.Cancel)
}

// GET /api/rfqs/:id/events
func (h *RFQHandler) ListEvents(c *gin.Context) {
	rfqID, err := uuid.Parse(c.Param("id"))
	if err != nil || rfqID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_rfq_id", err)
		return
	}

	events, err := h.events.ListForRFQ(c.Request.Context(), rfqID, 0)
	if err != nil {
		h.log.Error("ListEvents failed", "error", err, "rfq_id", rfqID)
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"events": events})
}

type transitionFn func(ctx context.Context, rfqID, actorID uuid.UUID) (*domain.RFQ, error)

func (h *RFQHandler) transition(c *gin.Context, op string, fn transitionFn) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	rfqID, err := uuid.Parse(c.Param("id"))
	if err != nil || rfqID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_rfq_id", err)
		return
	}

	rfq, err := fn(c.Request.Context(), rfqID, actorID)
	if err != nil {
		h.log.Error(op+" failed", "error", err, "rfq_id", rfqID)
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, rfq)
}
