package changerequest

import (
	"context"
	"reflect"

	appbudget "github.com/budget/backend/internal/application/budget"
	"github.com/budget/backend/internal/domain/audit"
	"github.com/budget/backend/internal/domain/changerequest"
	"github.com/budget/backend/internal/domain/shared"
	"github.com/budget/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReviewService handles the change request state machine. Approval applies
// the proposed change to the target entity in the same transaction that marks
// the request APPROVED; rejection leaves the target untouched.
type ReviewService struct {
	scope          appbudget.TransactionScope
	crRepo         changerequest.Repository
	eventPublisher shared.EventPublisher
}

// NewReviewService creates a new ReviewService
func NewReviewService(scope appbudget.TransactionScope, crRepo changerequest.Repository) *ReviewService {
	return &ReviewService{
		scope:  scope,
		crRepo: crRepo,
	}
}

// SetEventPublisher sets the publisher used for review outcome notifications
func (s *ReviewService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// GetByID retrieves a change request by ID
func (s *ReviewService) GetByID(ctx context.Context, id uuid.UUID) (*ChangeRequestResponse, error) {
	cr, err := s.crRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToChangeRequestResponse(cr)
	return &resp, nil
}

// List retrieves change requests matching the filter, most recent first
func (s *ReviewService) List(ctx context.Context, filter ListFilter) ([]ChangeRequestResponse, int64, error) {
	domainFilter := changerequest.Filter{
		Status:             filter.Status,
		Type:               filter.Type,
		CreatedBy:          filter.CreatedBy,
		ManagingDivisionID: filter.ManagingDivisionID,
		AgreementID:        filter.AgreementID,
		BudgetLineItemID:   filter.BudgetLineItemID,
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	domainFilter.Limit = pageSize
	domainFilter.Offset = (page - 1) * pageSize

	requests, total, err := s.crRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]ChangeRequestResponse, 0, len(requests))
	for i := range requests {
		responses = append(responses, ToChangeRequestResponse(&requests[i]))
	}
	return responses, total, nil
}

// Review applies a reviewer's decision. Only the managing division's director
// or deputy director may review; approving re-validates the proposed value
// against the live target and fails with a concurrency conflict when the
// field changed since the request was created.
func (s *ReviewService) Review(ctx context.Context, reviewerID uuid.UUID, req ReviewRequest) (*ChangeRequestResponse, error) {
	if !req.Action.IsValid() {
		return nil, shared.NewValidationError("action", "must be APPROVE or REJECT")
	}

	var reviewed *changerequest.ChangeRequest

	err := s.scope.Execute(ctx, func(ctx context.Context, repos appbudget.TransactionalRepositories) error {
		cr, err := repos.ChangeRequests().FindByID(ctx, req.ChangeRequestID)
		if err != nil {
			return err
		}

		division, err := repos.Divisions().FindByID(ctx, cr.ManagingDivisionID)
		if err != nil {
			return err
		}
		if !division.IsApprover(reviewerID) {
			return shared.ErrForbidden
		}

		if req.Action == changerequest.ActionReject {
			if err := cr.Reject(reviewerID, req.ReviewerNotes); err != nil {
				return err
			}
		} else {
			if err := cr.Approve(reviewerID, req.ReviewerNotes); err != nil {
				return err
			}
			// Mutations flushed while applying an approval carry the request
			// id on their audit records.
			ctx = audit.WithActingChangeRequest(ctx, cr.ID)
			if err := s.applyApprovedChange(ctx, repos, cr); err != nil {
				return err
			}
		}

		if err := repos.ChangeRequests().Save(ctx, cr); err != nil {
			return err
		}
		reviewed = cr
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishReviewed(ctx, reviewed, reviewerID)

	resp := ToChangeRequestResponse(reviewed)
	return &resp, nil
}

// applyApprovedChange loads the live target, checks the recorded "old" value
// is still current and applies the proposed value through the same validation
// path a direct edit uses.
func (s *ReviewService) applyApprovedChange(
	ctx context.Context,
	repos appbudget.TransactionalRepositories,
	cr *changerequest.ChangeRequest,
) error {
	field := cr.FieldName()
	proposed := cr.RequestedChangeData[field]

	switch cr.Type {
	case changerequest.TypeBudgetLineItem:
		item, err := repos.BudgetLineItems().FindByID(ctx, cr.TargetID())
		if err != nil {
			return err
		}
		if err := checkStillCurrent(item.CurrentValue(field), cr.Diff().Old); err != nil {
			return err
		}
		if err := item.ApplyChange(field, proposed); err != nil {
			return err
		}
		return repos.BudgetLineItems().Save(ctx, item)
	case changerequest.TypeAgreement:
		agreement, err := repos.Agreements().FindByID(ctx, cr.TargetID())
		if err != nil {
			return err
		}
		if err := checkStillCurrent(agreement.CurrentValue(field), cr.Diff().Old); err != nil {
			return err
		}
		if err := agreement.ApplyChange(field, proposed); err != nil {
			return err
		}
		return repos.Agreements().Save(ctx, agreement)
	}
	return shared.NewDomainError("INVALID_CHANGE_REQUEST_TYPE", "Unknown change request type")
}

// checkStillCurrent compares the live field value against the value recorded
// when the request was created. Values are compared in normalized form so a
// decimal and its float rendering agree.
func checkStillCurrent(live any, recordedOld any) error {
	if !reflect.DeepEqual(audit.NormalizeValue(live), recordedOld) {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

func (s *ReviewService) publishReviewed(ctx context.Context, cr *changerequest.ChangeRequest, reviewerID uuid.UUID) {
	if s.eventPublisher == nil || cr == nil {
		return
	}
	event := changerequest.NewReviewedEvent(cr, reviewerID)
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		logger.FromContext(ctx).Warn("failed to publish review event", zap.Error(err))
	}
}
