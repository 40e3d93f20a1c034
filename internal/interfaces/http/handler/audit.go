package handler

import (
	auditapp "github.com/budget/backend/internal/application/audit"
	"github.com/budget/backend/internal/domain/audit"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditHandler exposes the audit history read API
type AuditHandler struct {
	BaseHandler
	queryService *auditapp.QueryService
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(queryService *auditapp.QueryService) *AuditHandler {
	return &AuditHandler{
		queryService: queryService,
	}
}

// ListAuditRecordsRequest represents audit query parameters
type ListAuditRecordsRequest struct {
	ClassName   string `form:"class_name"`
	RowKey      string `form:"row_key"`
	EventType   string `form:"event_type" binding:"omitempty,oneof=NEW UPDATED DELETED ERROR"`
	AgreementID string `form:"agreement_id" binding:"omitempty,uuid"`
	Page        int    `form:"page" binding:"omitempty,min=1"`
	PageSize    int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// List returns audit records matching the query. A query matching nothing is
// a 404; history lookups are made against rows the caller believes exist.
func (h *AuditHandler) List(c *gin.Context) {
	var req ListAuditRecordsRequest
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

	filter := auditapp.QueryFilter{
		ClassName: req.ClassName,
		RowKey:    req.RowKey,
		Page:      req.Page,
		PageSize:  req.PageSize,
	}
	if req.EventType != "" {
		eventType := audit.EventType(req.EventType)
		filter.EventType = &eventType
	}
	if req.AgreementID != "" {
		id, err := uuid.Parse(req.AgreementID)
		if err != nil {
			h.BadRequest(c, "Invalid agreement ID format")
			return
		}
		filter.AgreementID = &id
	}

	records, total, err := h.queryService.Find(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, records, total, req.Page, req.PageSize)
}
