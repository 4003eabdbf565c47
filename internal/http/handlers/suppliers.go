package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/partforge/sourcing-backend/internal/domain"
	"github.com/partforge/sourcing-backend/internal/http/response"
	"github.com/partforge/sourcing-backend/internal/platform/logger"
	"github.com/partforge/sourcing-backend/internal/services"
)

type SupplierHandler struct {
	log       *logger.Logger
	suppliers services.SupplierService
}

func NewSupplierHandler(log *logger.Logger, suppliers services.SupplierService) *SupplierHandler {
	return &SupplierHandler{
		log:       log.With("handler", "SupplierHandler"),
		suppliers: suppliers,
	}
}

type createSupplierRequest struct {
	DisplayName  string `json:"display_name"`
	ContactEmail string `json:"contact_email"`
	Country      string `json:"country"`
}

// POST /api/suppliers
func (h *SupplierHandler) Create(c *gin.Context) {
	var req createSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	supplier, err := h.suppliers.Create(c.Request.Context(), &domain.Supplier{
		DisplayName:  req.DisplayName,
		ContactEmail: req.ContactEmail,
		Country:      req.Country,
	})
	if err != nil {
		h.log.Error("Create failed", "error", err)
		response.RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, supplier)
}

type updateSupplierRequest struct {
	DisplayName  string `json:"display_name"`
	ContactEmail string `json:"contact_email"`
	Country      string `json:"country"`
	Verified     bool   `json:"verified"`
}

// PUT /api/suppliers/:id
func (h *SupplierHandler) Update(c *gin.Context) {
	supplierID, err := uuid.Parse(c.Param("id"))
	if err != nil || supplierID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_supplier_id", err)
		return
	}

	var req updateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	supplier, err := h.suppliers.Update(c.Request.Context(), &domain.Supplier{
		ID:           supplierID,
		DisplayName:  req.DisplayName,
		ContactEmail: req.ContactEmail,
		Country:      req.Country,
		Verified:     req.Verified,
	})
	if err != nil {
		h.log.Error("Update failed", "error", err, "supplier_id", supplierID)
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, supplier)
}

// GET /api/suppliers/:id
func (h *SupplierHandler) Get(c *gin.Context) {
	supplierID, err := uuid.Parse(c.Param("id"))
	if err != nil || supplierID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_supplier_id", err)
		return
	}

	supplier, err := h.suppliers.Get(c.Request.Context(), supplierID)
	if err != nil {
		h.log.Error("Get failed", "error", err, "supplier_id", supplierID)
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, supplier)
}

type capabilityRequest struct {
	Process        string   `json:"process"`
	Materials      []string `json:"materials"`
	Certifications []string `json:"certifications"`
	MaxLengthMM    *float64 `json:"max_length_mm"`
	MaxWidthMM     *float64 `json:"max_width_mm"`
}

// PUT /api/suppliers/:id/capabilities
func (h *SupplierHandler) ReplaceCapabilities(c *gin.Context) {
	supplierID, err := uuid.Parse(c.Param("id"))
	if err != nil || supplierID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_supplier_id", err)
		return
	}

	var req struct {
		Capabilities []capabilityRequest `json:"capabilities"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	rows := make([]*domain.Capability, 0, len(req.Capabilities))
	for _, cap := range req.Capabilities {
		rows = append(rows, &domain.Capability{
			SupplierID:     supplierID,
			Process:        cap.Process,
			Materials:      datatypes.JSONSlice[string](cap.Materials),
			Certifications: datatypes.JSONSlice[string](cap.Certifications),
			MaxLengthMM:    cap.MaxLengthMM,
			MaxWidthMM:     cap.MaxWidthMM,
		})
	}

	saved, err := h.suppliers.ReplaceCapabilities(c.Request.Context(), supplierID, rows)
	if err != nil {
		h.log.Error("ReplaceCapabilities failed", "error", err, "supplier_id", supplierID)
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"capabilities": saved})
}

type addDocumentRequest struct {
	DocType  string `json:"doc_type"`
	FileName string `json:"file_name"`
}

// POST /api/suppliers/:id/documents
func (h *SupplierHandler) AddDocument(c *gin.Context) {
	supplierID, err := uuid.Parse(c.Param("id"))
	if err != nil || supplierID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_supplier_id", err)
		return
	}

	var req addDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	doc, err := h.suppliers.AddDocument(c.Request.Context(), &domain.SupplierDocument{
		SupplierID: supplierID,
		DocType:    req.DocType,
		FileName:   req.FileName,
	})
	if err != nil {
		h.log.Error("AddDocument failed", "error", err, "supplier_id", supplierID)
		response.RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}
