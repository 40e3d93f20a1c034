package handler

import (
	budgetapp "github.com/budget/backend/internal/application/budget"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AgreementHandler handles agreement API endpoints
type AgreementHandler struct {
	BaseHandler
	agreementService *budgetapp.AgreementService
}

// NewAgreementHandler creates a new AgreementHandler
func NewAgreementHandler(agreementService *budgetapp.AgreementService) *AgreementHandler {
	return &AgreementHandler{
		agreementService: agreementService,
	}
}

// UpdateAgreementRequest represents a partial edit of an agreement
type UpdateAgreementRequest struct {
	Fields         map[string]any `json:"fields" binding:"required"`
	RequestorNotes string         `json:"requestor_notes" binding:"max=1000"`
}

// GetByID returns an agreement with its budget lines
func (h *AgreementHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid agreement ID format")
		return
	}

	agreement, err := h.agreementService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, agreement)
}

// List returns agreements with pagination
func (h *AgreementHandler) List(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 20
	}

	agreements, total, err := h.agreementService.List(c.Request.Context(), req.Page, req.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, agreements, total, req.Page, req.PageSize)
}

// Update applies a partial edit. Restricted fields on an agreement whose
// budget lines have left DRAFT come back as change requests with 202.
func (h *AgreementHandler) Update(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid agreement ID format")
		return
	}

	var req UpdateAgreementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.agreementService.Update(c.Request.Context(), id, userID, budgetapp.UpdateAgreementRequest{
		Fields:         req.Fields,
		RequestorNotes: req.RequestorNotes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if result.Routed {
		h.Accepted(c, gin.H{
			"agreement":               result.Agreement,
			"pending_change_requests": result.ChangeRequests,
		})
		return
	}
	h.Success(c, result.Agreement)
}

// ListRequest represents common pagination query parameters
type ListRequest struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}
