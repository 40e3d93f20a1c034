package handler

import (
	budgetapp "github.com/budget/backend/internal/application/budget"
	"github.com/budget/backend/internal/domain/budget"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BudgetLineItemHandler handles budget line item API endpoints
type BudgetLineItemHandler struct {
	BaseHandler
	lineItemService *budgetapp.BudgetLineItemService
}

// NewBudgetLineItemHandler creates a new BudgetLineItemHandler
func NewBudgetLineItemHandler(lineItemService *budgetapp.BudgetLineItemService) *BudgetLineItemHandler {
	return &BudgetLineItemHandler{
		lineItemService: lineItemService,
	}
}

// UpdateBudgetLineItemRequest represents a partial edit of a budget line item.
// Fields maps column names to proposed values; the routing policy decides
// per field whether the value applies directly or becomes a change request.
type UpdateBudgetLineItemRequest struct {
	Fields         map[string]any `json:"fields" binding:"required"`
	RequestorNotes string         `json:"requestor_notes" binding:"max=1000"`
}

// ListBudgetLineItemsRequest represents list query parameters
type ListBudgetLineItemsRequest struct {
	AgreementID string `form:"agreement_id" binding:"omitempty,uuid"`
	CANID       string `form:"can_id" binding:"omitempty,uuid"`
	Status      string `form:"status" binding:"omitempty,oneof=DRAFT PLANNED IN_EXECUTION OBLIGATED"`
	Page        int    `form:"page" binding:"omitempty,min=1"`
	PageSize    int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetByID returns a single budget line item
func (h *BudgetLineItemHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid budget line item ID format")
		return
	}

	item, err := h.lineItemService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, item)
}

// List returns budget line items matching the query filters
func (h *BudgetLineItemHandler) List(c *gin.Context) {
	var req ListBudgetLineItemsRequest
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

	filter := budgetapp.ListFilter{
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if req.AgreementID != "" {
		id, err := uuid.Parse(req.AgreementID)
		if err != nil {
			h.BadRequest(c, "Invalid agreement ID format")
			return
		}
		filter.AgreementID = &id
	}
	if req.CANID != "" {
		id, err := uuid.Parse(req.CANID)
		if err != nil {
			h.BadRequest(c, "Invalid CAN ID format")
			return
		}
		filter.CANID = &id
	}
	if req.Status != "" {
		status := budget.LineItemStatus(req.Status)
		filter.Status = &status
	}

	items, total, err := h.lineItemService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, items, total, req.Page, req.PageSize)
}

// Update applies a partial edit. Directly editable fields are applied and
// returned with 200; fields the routing policy sends to review come back as
// change requests with 202.
func (h *BudgetLineItemHandler) Update(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid budget line item ID format")
		return
	}

	var req UpdateBudgetLineItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.lineItemService.Update(c.Request.Context(), id, userID, budgetapp.UpdateBudgetLineItemRequest{
		Fields:         req.Fields,
		RequestorNotes: req.RequestorNotes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if result.Routed {
		h.Accepted(c, gin.H{
			"item":                    result.Item,
			"pending_change_requests": result.ChangeRequests,
		})
		return
	}
	h.Success(c, result.Item)
}
