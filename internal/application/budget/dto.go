package budget

import (
	"time"

	"github.com/budget/backend/internal/domain/budget"
	"github.com/budget/backend/internal/domain/changerequest"
	"github.com/google/uuid"
)

// UpdateBudgetLineItemRequest carries a partial field map plus optional
// requestor notes, already stripped from the field map by the HTTP layer
type UpdateBudgetLineItemRequest struct {
	Fields         map[string]any
	RequestorNotes string
}

// UpdateBudgetLineItemResult reports what happened to an edit call: fields
// applied directly leave Routed false; any routed field makes the call
// "accepted, pending review" and lists the created change requests.
type UpdateBudgetLineItemResult struct {
	Item           BudgetLineItemResponse
	Routed         bool
	ChangeRequests []ChangeRequestSummary
}

// ChangeRequestSummary identifies one created change request in an edit response
type ChangeRequestSummary struct {
	ID        uuid.UUID `json:"id"`
	FieldName string    `json:"field_name"`
	Status    string    `json:"status"`
}

// BudgetLineItemResponse represents a budget line item in API responses
type BudgetLineItemResponse struct {
	ID                    string     `json:"id"`
	LineDescription       string     `json:"line_description"`
	Comments              string     `json:"comments"`
	AgreementID           string     `json:"agreement_id"`
	CANID                 *string    `json:"can_id,omitempty"`
	Amount                *float64   `json:"amount,omitempty"`
	Status                string     `json:"status"`
	DateNeeded            *time.Time `json:"date_needed,omitempty"`
	ProcShopFeePercentage *float64   `json:"proc_shop_fee_percentage,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// ToBudgetLineItemResponse maps a domain budget line item to its response form
func ToBudgetLineItemResponse(item *budget.BudgetLineItem) BudgetLineItemResponse {
	resp := BudgetLineItemResponse{
		ID:              item.ID.String(),
		LineDescription: item.LineDescription,
		Comments:        item.Comments,
		AgreementID:     item.AgreementID.String(),
		Status:          item.Status.String(),
		DateNeeded:      item.DateNeeded,
		CreatedAt:       item.CreatedAt,
		UpdatedAt:       item.UpdatedAt,
	}
	if item.CANID != nil {
		canID := item.CANID.String()
		resp.CANID = &canID
	}
	if item.Amount != nil {
		amount := item.Amount.InexactFloat64()
		resp.Amount = &amount
	}
	if item.ProcShopFeePercentage != nil {
		fee := item.ProcShopFeePercentage.InexactFloat64()
		resp.ProcShopFeePercentage = &fee
	}
	return resp
}

// ToChangeRequestSummary maps a change request to its edit-response summary
func ToChangeRequestSummary(cr *changerequest.ChangeRequest) ChangeRequestSummary {
	return ChangeRequestSummary{
		ID:        cr.ID,
		FieldName: cr.FieldName(),
		Status:    cr.Status.String(),
	}
}

// ListFilter narrows budget line item listings
type ListFilter struct {
	AgreementID *uuid.UUID
	CANID       *uuid.UUID
	Status      *budget.LineItemStatus
	Page        int
	PageSize    int
}

// AgreementResponse represents an agreement in API responses
type AgreementResponse struct {
	ID               string                   `json:"id"`
	Name             string                   `json:"name"`
	AgreementType    string                   `json:"agreement_type"`
	Description      string                   `json:"description"`
	DivisionID       *string                  `json:"division_id,omitempty"`
	ProjectOfficerID *string                  `json:"project_officer_id,omitempty"`
	BudgetLineItems  []BudgetLineItemResponse `json:"budget_line_items,omitempty"`
	CreatedAt        time.Time                `json:"created_at"`
	UpdatedAt        time.Time                `json:"updated_at"`
}

// ToAgreementResponse maps a domain agreement to its response form
func ToAgreementResponse(agreement *budget.Agreement) AgreementResponse {
	resp := AgreementResponse{
		ID:            agreement.ID.String(),
		Name:          agreement.Name,
		AgreementType: agreement.AgreementType.String(),
		Description:   agreement.Description,
		CreatedAt:     agreement.CreatedAt,
		UpdatedAt:     agreement.UpdatedAt,
	}
	if agreement.DivisionID != nil {
		divisionID := agreement.DivisionID.String()
		resp.DivisionID = &divisionID
	}
	if agreement.ProjectOfficerID != nil {
		officerID := agreement.ProjectOfficerID.String()
		resp.ProjectOfficerID = &officerID
	}
	for i := range agreement.BudgetLineItems {
		resp.BudgetLineItems = append(resp.BudgetLineItems, ToBudgetLineItemResponse(&agreement.BudgetLineItems[i]))
	}
	return resp
}

// UpdateAgreementRequest carries a partial agreement field map plus notes
type UpdateAgreementRequest struct {
	Fields         map[string]any
	RequestorNotes string
}

// UpdateAgreementResult reports the outcome of an agreement edit call
type UpdateAgreementResult struct {
	Agreement      AgreementResponse
	Routed         bool
	ChangeRequests []ChangeRequestSummary
}
