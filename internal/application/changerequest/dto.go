package changerequest

import (
	"time"

	"github.com/budget/backend/internal/domain/audit"
	"github.com/budget/backend/internal/domain/changerequest"
	"github.com/google/uuid"
)

// ReviewRequest carries a reviewer's decision on one change request
type ReviewRequest struct {
	ChangeRequestID uuid.UUID                  `json:"change_request_id" binding:"required"`
	Action          changerequest.ReviewAction `json:"action" binding:"required"`
	ReviewerNotes   string                     `json:"reviewer_notes"`
}

// ChangeRequestResponse represents a change request in API responses
type ChangeRequestResponse struct {
	ID                  string                      `json:"id"`
	Type                string                      `json:"change_request_type"`
	Status              string                      `json:"status"`
	BudgetLineItemID    *string                     `json:"budget_line_item_id,omitempty"`
	AgreementID         *string                     `json:"agreement_id,omitempty"`
	RequestedChangeData map[string]any              `json:"requested_change_data"`
	RequestedChangeDiff map[string]audit.FieldDelta `json:"requested_change_diff"`
	RequestorNotes      string                      `json:"requestor_notes"`
	ManagingDivisionID  string                      `json:"managing_division_id"`
	CreatedBy           string                      `json:"created_by"`
	ReviewedByID        *string                     `json:"reviewed_by_id,omitempty"`
	ReviewedOn          *time.Time                  `json:"reviewed_on,omitempty"`
	ReviewerNotes       string                      `json:"reviewer_notes,omitempty"`
	CreatedAt           time.Time                   `json:"created_at"`
	UpdatedAt           time.Time                   `json:"updated_at"`
}

// ToChangeRequestResponse maps a domain change request to its response form
func ToChangeRequestResponse(cr *changerequest.ChangeRequest) ChangeRequestResponse {
	resp := ChangeRequestResponse{
		ID:                  cr.ID.String(),
		Type:                cr.Type.String(),
		Status:              cr.Status.String(),
		RequestedChangeData: cr.RequestedChangeData,
		RequestedChangeDiff: cr.RequestedChangeDiff,
		RequestorNotes:      cr.RequestorNotes,
		ManagingDivisionID:  cr.ManagingDivisionID.String(),
		CreatedBy:           cr.CreatedBy.String(),
		ReviewedOn:          cr.ReviewedOn,
		ReviewerNotes:       cr.ReviewerNotes,
		CreatedAt:           cr.CreatedAt,
		UpdatedAt:           cr.UpdatedAt,
	}
	if cr.BudgetLineItemID != nil {
		id := cr.BudgetLineItemID.String()
		resp.BudgetLineItemID = &id
	}
	if cr.AgreementID != nil {
		id := cr.AgreementID.String()
		resp.AgreementID = &id
	}
	if cr.ReviewedByID != nil {
		id := cr.ReviewedByID.String()
		resp.ReviewedByID = &id
	}
	return resp
}

// ListFilter narrows change request listings, typically to a reviewer's queue
type ListFilter struct {
	Status             *changerequest.Status
	Type               *changerequest.Type
	CreatedBy          *uuid.UUID
	ManagingDivisionID *uuid.UUID
	AgreementID        *uuid.UUID
	BudgetLineItemID   *uuid.UUID
	Page               int
	PageSize           int
}
