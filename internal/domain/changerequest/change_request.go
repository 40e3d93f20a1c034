package changerequest

import (
	"context"
	"time"

	"github.com/budget/backend/internal/domain/audit"
	"github.com/budget/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Type discriminates the change request variants
type Type string

const (
	TypeBudgetLineItem Type = "BUDGET_LINE_ITEM_CHANGE_REQUEST"
	TypeAgreement      Type = "AGREEMENT_CHANGE_REQUEST"
)

// IsValid checks if the type is a known value
func (t Type) IsValid() bool {
	switch t {
	case TypeBudgetLineItem, TypeAgreement:
		return true
	}
	return false
}

// String returns the string representation of Type
func (t Type) String() string {
	return string(t)
}

// Status represents the review state of a change request
type Status string

const (
	StatusInReview Status = "IN_REVIEW"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// IsValid checks if the status is a known value
func (s Status) IsValid() bool {
	switch s {
	case StatusInReview, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether the status permits no further transitions
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Label returns the human-readable form used in notifications
func (s Status) Label() string {
	switch s {
	case StatusInReview:
		return "In Review"
	case StatusApproved:
		return "Approved"
	case StatusRejected:
		return "Rejected"
	}
	return string(s)
}

// ReviewAction is the action a reviewer takes on a change request
type ReviewAction string

const (
	ActionApprove ReviewAction = "APPROVE"
	ActionReject  ReviewAction = "REJECT"
)

// IsValid checks if the action is a known value
func (a ReviewAction) IsValid() bool {
	return a == ActionApprove || a == ActionReject
}

// ChangeRequest is a proposed, not-yet-applied mutation of a restricted
// field. Each request carries exactly one field; an edit touching several
// restricted fields produces several requests. Once reviewed, the request is
// immutable.
type ChangeRequest struct {
	shared.BaseEntity
	Type                Type                        `gorm:"column:change_request_type;type:varchar(50);not null;index" json:"change_request_type"`
	Status              Status                      `gorm:"type:varchar(20);not null;index" json:"status"`
	BudgetLineItemID    *uuid.UUID                  `gorm:"type:uuid;index" json:"budget_line_item_id,omitempty"`
	AgreementID         *uuid.UUID                  `gorm:"type:uuid;index" json:"agreement_id,omitempty"`
	RequestedChangeData map[string]any              `gorm:"serializer:json" json:"requested_change_data"`
	RequestedChangeDiff map[string]audit.FieldDelta `gorm:"serializer:json" json:"requested_change_diff"`
	RequestorNotes      string                      `gorm:"type:text" json:"requestor_notes"`
	ManagingDivisionID  uuid.UUID                   `gorm:"type:uuid;not null;index" json:"managing_division_id"`
	CreatedBy           uuid.UUID                   `gorm:"type:uuid;not null;index" json:"created_by"`
	ReviewedByID        *uuid.UUID                  `gorm:"type:uuid" json:"reviewed_by_id,omitempty"`
	ReviewedOn          *time.Time                  `json:"reviewed_on,omitempty"`
	ReviewerNotes       string                      `gorm:"type:text" json:"reviewer_notes"`
}

// TableName specifies the table name for ChangeRequest
func (ChangeRequest) TableName() string {
	return "change_requests"
}

// NewBudgetLineItemChangeRequest creates an IN_REVIEW request proposing a
// single field change on a budget line item
func NewBudgetLineItemChangeRequest(
	budgetLineItemID, agreementID uuid.UUID,
	field string, proposed any, old any,
	requestorNotes string,
	managingDivisionID, createdBy uuid.UUID,
) (*ChangeRequest, error) {
	if budgetLineItemID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TARGET", "Budget line item ID cannot be empty")
	}
	cr, err := newChangeRequest(TypeBudgetLineItem, field, proposed, old, requestorNotes, managingDivisionID, createdBy)
	if err != nil {
		return nil, err
	}
	cr.BudgetLineItemID = &budgetLineItemID
	cr.AgreementID = &agreementID
	return cr, nil
}

// NewAgreementChangeRequest creates an IN_REVIEW request proposing a single
// field change on an agreement
func NewAgreementChangeRequest(
	agreementID uuid.UUID,
	field string, proposed any, old any,
	requestorNotes string,
	managingDivisionID, createdBy uuid.UUID,
) (*ChangeRequest, error) {
	if agreementID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TARGET", "Agreement ID cannot be empty")
	}
	cr, err := newChangeRequest(TypeAgreement, field, proposed, old, requestorNotes, managingDivisionID, createdBy)
	if err != nil {
		return nil, err
	}
	cr.AgreementID = &agreementID
	return cr, nil
}

func newChangeRequest(
	crType Type,
	field string, proposed any, old any,
	requestorNotes string,
	managingDivisionID, createdBy uuid.UUID,
) (*ChangeRequest, error) {
	if field == "" {
		return nil, shared.NewDomainError("INVALID_FIELD", "Field name cannot be empty")
	}
	if managingDivisionID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DIVISION", "Managing division could not be resolved")
	}
	normalizedNew := audit.NormalizeValue(proposed)
	normalizedOld := audit.NormalizeValue(old)
	return &ChangeRequest{
		BaseEntity:          shared.NewBaseEntity(),
		Type:                crType,
		Status:              StatusInReview,
		RequestedChangeData: map[string]any{field: normalizedNew},
		RequestedChangeDiff: map[string]audit.FieldDelta{field: {Old: normalizedOld, New: normalizedNew}},
		RequestorNotes:      requestorNotes,
		ManagingDivisionID:  managingDivisionID,
		CreatedBy:           createdBy,
	}, nil
}

// TargetID returns the id of the entity the request proposes to change
func (c *ChangeRequest) TargetID() uuid.UUID {
	if c.Type == TypeBudgetLineItem && c.BudgetLineItemID != nil {
		return *c.BudgetLineItemID
	}
	if c.AgreementID != nil {
		return *c.AgreementID
	}
	return uuid.Nil
}

// FieldName returns the single routed field this request carries
func (c *ChangeRequest) FieldName() string {
	for name := range c.RequestedChangeData {
		return name
	}
	return ""
}

// Diff returns the before/after pair recorded at request time
func (c *ChangeRequest) Diff() audit.FieldDelta {
	return c.RequestedChangeDiff[c.FieldName()]
}

// Approve marks the request approved. Re-reviewing a terminal request is a
// validation error; the caller applies the proposed change separately and
// atomically with this transition.
func (c *ChangeRequest) Approve(reviewerID uuid.UUID, notes string) error {
	return c.review(StatusApproved, reviewerID, notes)
}

// Reject marks the request rejected without touching the target entity
func (c *ChangeRequest) Reject(reviewerID uuid.UUID, notes string) error {
	return c.review(StatusRejected, reviewerID, notes)
}

func (c *ChangeRequest) review(outcome Status, reviewerID uuid.UUID, notes string) error {
	if c.Status.IsTerminal() {
		return shared.NewValidationError("change_request_id",
			"change request has already been reviewed")
	}
	now := time.Now()
	c.Status = outcome
	c.ReviewedByID = &reviewerID
	c.ReviewedOn = &now
	c.ReviewerNotes = notes
	c.UpdatedAt = now
	return nil
}

// AuditClassName identifies the concrete variant on audit records
func (c *ChangeRequest) AuditClassName() string {
	if c.Type == TypeAgreement {
		return "AgreementChangeRequest"
	}
	return "BudgetLineItemChangeRequest"
}

// AuditRowKey returns the stringified primary key
func (c *ChangeRequest) AuditRowKey() string {
	return c.ID.String()
}

// AuditSnapshot returns the request's audited scalar attributes
func (c *ChangeRequest) AuditSnapshot() map[string]any {
	return map[string]any{
		"change_request_type":   c.Type,
		"status":                c.Status,
		"budget_line_item_id":   c.BudgetLineItemID,
		"agreement_id":          c.AgreementID,
		"requested_change_data": c.RequestedChangeData,
		"requestor_notes":       c.RequestorNotes,
		"managing_division_id":  c.ManagingDivisionID,
		"reviewed_by_id":        c.ReviewedByID,
		"reviewed_on":           c.ReviewedOn,
		"reviewer_notes":        c.ReviewerNotes,
	}
}

// AuditAgreementID backlinks audit records to the related agreement
func (c *ChangeRequest) AuditAgreementID() *uuid.UUID {
	return c.AgreementID
}

// Filter narrows change request queries
type Filter struct {
	Status             *Status
	Type               *Type
	ManagingDivisionID *uuid.UUID
	CreatedBy          *uuid.UUID
	AgreementID        *uuid.UUID
	BudgetLineItemID   *uuid.UUID
	Limit              int
	Offset             int
}

// Repository provides access to change requests
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ChangeRequest, error)
	FindAll(ctx context.Context, filter Filter) ([]ChangeRequest, int64, error)
	Save(ctx context.Context, cr *ChangeRequest) error
}
