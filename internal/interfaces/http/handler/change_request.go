package handler

import (
	crapp "github.com/budget/backend/internal/application/changerequest"
	"github.com/budget/backend/internal/domain/changerequest"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ChangeRequestHandler handles change request API endpoints
type ChangeRequestHandler struct {
	BaseHandler
	reviewService *crapp.ReviewService
}

// NewChangeRequestHandler creates a new ChangeRequestHandler
func NewChangeRequestHandler(reviewService *crapp.ReviewService) *ChangeRequestHandler {
	return &ChangeRequestHandler{
		reviewService: reviewService,
	}
}

// ReviewChangeRequestRequest carries a reviewer's decision. The request under
// review is addressed in the payload, not the path.
type ReviewChangeRequestRequest struct {
	ChangeRequestID string `json:"change_request_id" binding:"required,uuid"`
	Action          string `json:"action" binding:"required,oneof=APPROVE REJECT"`
	ReviewerNotes   string `json:"reviewer_notes" binding:"max=1000"`
}

// ListChangeRequestsRequest represents list query parameters
type ListChangeRequestsRequest struct {
	Status             string `form:"status" binding:"omitempty,oneof=IN_REVIEW APPROVED REJECTED"`
	Type               string `form:"change_request_type" binding:"omitempty,oneof=BUDGET_LINE_ITEM_CHANGE_REQUEST AGREEMENT_CHANGE_REQUEST"`
	UserID             string `form:"user_id" binding:"omitempty,uuid"`
	ManagingDivisionID string `form:"managing_division_id" binding:"omitempty,uuid"`
	AgreementID        string `form:"agreement_id" binding:"omitempty,uuid"`
	BudgetLineItemID   string `form:"budget_line_item_id" binding:"omitempty,uuid"`
	Page               int    `form:"page" binding:"omitempty,min=1"`
	PageSize           int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetByID returns a single change request
func (h *ChangeRequestHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid change request ID format")
		return
	}

	cr, err := h.reviewService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, cr)
}

// List returns change requests matching the query filters, typically a
// reviewer's division queue
func (h *ChangeRequestHandler) List(c *gin.Context) {
	var req ListChangeRequestsRequest
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

	filter := crapp.ListFilter{
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if req.Status != "" {
		status := changerequest.Status(req.Status)
		filter.Status = &status
	}
	if req.Type != "" {
		crType := changerequest.Type(req.Type)
		filter.Type = &crType
	}
	if req.UserID != "" {
		id, err := uuid.Parse(req.UserID)
		if err != nil {
			h.BadRequest(c, "Invalid user ID format")
			return
		}
		filter.CreatedBy = &id
	}
	if req.ManagingDivisionID != "" {
		id, err := uuid.Parse(req.ManagingDivisionID)
		if err != nil {
			h.BadRequest(c, "Invalid division ID format")
			return
		}
		filter.ManagingDivisionID = &id
	}
	if req.AgreementID != "" {
		id, err := uuid.Parse(req.AgreementID)
		if err != nil {
			h.BadRequest(c, "Invalid agreement ID format")
			return
		}
		filter.AgreementID = &id
	}
	if req.BudgetLineItemID != "" {
		id, err := uuid.Parse(req.BudgetLineItemID)
		if err != nil {
			h.BadRequest(c, "Invalid budget line item ID format")
			return
		}
		filter.BudgetLineItemID = &id
	}

	requests, total, err := h.reviewService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, requests, total, req.Page, req.PageSize)
}

// Review resolves a change request. Approving applies the proposed change to
// the target in the same transaction; only the managing division's director
// or deputy director may act.
func (h *ChangeRequestHandler) Review(c *gin.Context) {
	reviewerID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req ReviewChangeRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	crID, err := uuid.Parse(req.ChangeRequestID)
	if err != nil {
		h.BadRequest(c, "Invalid change request ID format")
		return
	}

	reviewed, err := h.reviewService.Review(c.Request.Context(), reviewerID, crapp.ReviewRequest{
		ChangeRequestID: crID,
		Action:          changerequest.ReviewAction(req.Action),
		ReviewerNotes:   req.ReviewerNotes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, reviewed)
}
