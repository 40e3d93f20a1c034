package changerequest

import (
	"github.com/budget/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Event types published by the change request lifecycle
const (
	EventTypeCreated  = "change_request.created"
	EventTypeReviewed = "change_request.reviewed"
)

const aggregateType = "ChangeRequest"

// CreatedEvent is published when a routed field becomes a change request.
// Notification emission uses it to notify the resolved approvers.
type CreatedEvent struct {
	shared.BaseDomainEvent
	ChangeRequestID    uuid.UUID `json:"change_request_id"`
	ChangeRequestType  Type      `json:"change_request_type"`
	ManagingDivisionID uuid.UUID `json:"managing_division_id"`
	RequestorID        uuid.UUID `json:"requestor_id"`
	FieldName          string    `json:"field_name"`
}

// NewCreatedEvent creates a CreatedEvent for a freshly stored request
func NewCreatedEvent(cr *ChangeRequest) *CreatedEvent {
	return &CreatedEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent(EventTypeCreated, aggregateType, cr.ID),
		ChangeRequestID:    cr.ID,
		ChangeRequestType:  cr.Type,
		ManagingDivisionID: cr.ManagingDivisionID,
		RequestorID:        cr.CreatedBy,
		FieldName:          cr.FieldName(),
	}
}

// ReviewedEvent is published when a request reaches a terminal state.
// Notification emission uses it to notify the original requestor.
type ReviewedEvent struct {
	shared.BaseDomainEvent
	ChangeRequestID uuid.UUID `json:"change_request_id"`
	Outcome         Status    `json:"outcome"`
	RequestorID     uuid.UUID `json:"requestor_id"`
	ReviewerID      uuid.UUID `json:"reviewer_id"`
	FieldName       string    `json:"field_name"`
	OldValue        any       `json:"old_value"`
	NewValue        any       `json:"new_value"`
}

// NewReviewedEvent creates a ReviewedEvent for a just-reviewed request
func NewReviewedEvent(cr *ChangeRequest, reviewerID uuid.UUID) *ReviewedEvent {
	diff := cr.Diff()
	return &ReviewedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReviewed, aggregateType, cr.ID),
		ChangeRequestID: cr.ID,
		Outcome:         cr.Status,
		RequestorID:     cr.CreatedBy,
		ReviewerID:      reviewerID,
		FieldName:       cr.FieldName(),
		OldValue:        diff.Old,
		NewValue:        diff.New,
	}
}
