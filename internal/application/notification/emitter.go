package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/budget/backend/internal/domain/budget"
	"github.com/budget/backend/internal/domain/changerequest"
	"github.com/budget/backend/internal/domain/notification"
	"github.com/budget/backend/internal/domain/shared"
	"github.com/budget/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Emitter turns change request lifecycle events into stored notifications.
// It runs on the event bus after the originating transaction has committed,
// so a failure here never unwinds the edit or review that triggered it.
type Emitter struct {
	notificationRepo notification.Repository
	divisionRepo     budget.DivisionRepository
	expiry           time.Duration
}

// NewEmitter creates a new Emitter. Emitted notifications expire after the
// given duration; zero means they never expire.
func NewEmitter(notificationRepo notification.Repository, divisionRepo budget.DivisionRepository, expiry time.Duration) *Emitter {
	return &Emitter{
		notificationRepo: notificationRepo,
		divisionRepo:     divisionRepo,
		expiry:           expiry,
	}
}

func (e *Emitter) stampExpiry(n *notification.Notification) {
	if e.expiry > 0 {
		expires := time.Now().Add(e.expiry)
		n.Expires = &expires
	}
}

// EventTypes returns the event types this handler is interested in
func (e *Emitter) EventTypes() []string {
	return []string{
		changerequest.EventTypeCreated,
		changerequest.EventTypeReviewed,
	}
}

// Handle processes a change request lifecycle event
func (e *Emitter) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch evt := event.(type) {
	case *changerequest.CreatedEvent:
		return e.notifyApprovers(ctx, evt)
	case *changerequest.ReviewedEvent:
		return e.notifyRequestor(ctx, evt)
	}
	return nil
}

// notifyApprovers stores one notification per division approver when a new
// request enters review
func (e *Emitter) notifyApprovers(ctx context.Context, event *changerequest.CreatedEvent) error {
	division, err := e.divisionRepo.FindByID(ctx, event.ManagingDivisionID)
	if err != nil {
		return fmt.Errorf("resolving division %s: %w", event.ManagingDivisionID, err)
	}
	approvers := division.ApproverIDs()
	if len(approvers) == 0 {
		logger.FromContext(ctx).Warn("division has no approvers to notify",
			zap.String("division_id", division.ID.String()),
			zap.String("change_request_id", event.ChangeRequestID.String()))
		return nil
	}

	title := "Approval Required"
	message := fmt.Sprintf("A change to %q is pending your review.", event.FieldName)
	for _, approverID := range approvers {
		n, err := notification.New(approverID, title, message)
		if err != nil {
			return err
		}
		n.LinkChangeRequest(event.ChangeRequestID)
		e.stampExpiry(n)
		if err := e.notificationRepo.Save(ctx, n); err != nil {
			return fmt.Errorf("storing approver notification: %w", err)
		}
	}
	return nil
}

// notifyRequestor tells the original requestor how the review ended
func (e *Emitter) notifyRequestor(ctx context.Context, event *changerequest.ReviewedEvent) error {
	title := fmt.Sprintf("Change Request %s", event.Outcome.Label())
	message := fmt.Sprintf("Your requested change to %q (%v to %v) has been %s.",
		event.FieldName, event.OldValue, event.NewValue, event.Outcome.Label())

	n, err := notification.New(event.RequestorID, title, message)
	if err != nil {
		return err
	}
	n.LinkChangeRequest(event.ChangeRequestID)
	e.stampExpiry(n)
	if err := e.notificationRepo.Save(ctx, n); err != nil {
		return fmt.Errorf("storing requestor notification: %w", err)
	}
	return nil
}
