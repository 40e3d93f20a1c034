package budget

import (
	"context"
	"sort"

	"github.com/budget/backend/internal/domain/budget"
	"github.com/budget/backend/internal/domain/changerequest"
	"github.com/budget/backend/internal/domain/shared"
	"github.com/budget/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BudgetLineItemService handles budget line item operations, including the
// routing decision between direct edits and change requests
type BudgetLineItemService struct {
	scope          TransactionScope
	itemRepo       budget.BudgetLineItemRepository
	eventPublisher shared.EventPublisher
}

// NewBudgetLineItemService creates a new BudgetLineItemService
func NewBudgetLineItemService(scope TransactionScope, itemRepo budget.BudgetLineItemRepository) *BudgetLineItemService {
	return &BudgetLineItemService{
		scope:    scope,
		itemRepo: itemRepo,
	}
}

// SetEventPublisher sets the publisher used for change request notifications
func (s *BudgetLineItemService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// GetByID retrieves a budget line item by ID
func (s *BudgetLineItemService) GetByID(ctx context.Context, id uuid.UUID) (*BudgetLineItemResponse, error) {
	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToBudgetLineItemResponse(item)
	return &resp, nil
}

// List retrieves budget line items with filtering and pagination
func (s *BudgetLineItemService) List(ctx context.Context, filter ListFilter) ([]BudgetLineItemResponse, int64, error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.AgreementID != nil {
		domainFilter.Filters["agreement_id"] = *filter.AgreementID
	}
	if filter.CANID != nil {
		domainFilter.Filters["can_id"] = *filter.CANID
	}
	if filter.Status != nil {
		domainFilter.Filters["status"] = filter.Status.String()
	}

	items, total, err := s.itemRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]BudgetLineItemResponse, 0, len(items))
	for i := range items {
		responses = append(responses, ToBudgetLineItemResponse(&items[i]))
	}
	return responses, total, nil
}

// Update applies a partial field map to a budget line item. Fields the
// routing policy classifies as directly editable mutate the item in place;
// budget/status fields on an item beyond DRAFT become one change request
// each. A status transition must be submitted alone.
func (s *BudgetLineItemService) Update(
	ctx context.Context,
	id uuid.UUID,
	userID uuid.UUID,
	req UpdateBudgetLineItemRequest,
) (*UpdateBudgetLineItemResult, error) {
	if len(req.Fields) == 0 {
		return nil, shared.NewValidationError("fields", "no fields to update")
	}

	_, hasStatusChange := req.Fields[budget.FieldStatus]
	hasOtherChange := false
	for name := range req.Fields {
		if !budget.IsEditableField(name) {
			return nil, shared.NewValidationError(name, "unknown field")
		}
		if name != budget.FieldStatus {
			hasOtherChange = true
		}
	}
	if hasStatusChange && hasOtherChange {
		return nil, shared.NewValidationError(budget.FieldStatus,
			"a status change must be submitted alone")
	}

	var result UpdateBudgetLineItemResult
	var created []*changerequest.ChangeRequest

	err := s.scope.Execute(ctx, func(ctx context.Context, repos TransactionalRepositories) error {
		item, err := repos.BudgetLineItems().FindByID(ctx, id)
		if err != nil {
			return err
		}

		directlyEditable := item.IsDraft() && !hasStatusChange

		directFields := make(map[string]any)
		var routedFields []string
		for name, value := range req.Fields {
			if directlyEditable || !budget.IsBudgetOrStatusField(name) {
				directFields[name] = value
			} else {
				routedFields = append(routedFields, name)
			}
		}
		sort.Strings(routedFields)

		// Routed proposals are validated up front so a bad value fails the
		// whole call before anything is written.
		for _, name := range routedFields {
			if _, err := item.ValidateChange(name, req.Fields[name]); err != nil {
				return err
			}
		}
		for name, value := range directFields {
			if err := item.ApplyChange(name, value); err != nil {
				return err
			}
		}

		if len(routedFields) > 0 {
			if item.CANID == nil {
				return shared.NewValidationError(budget.FieldCANID,
					"cannot route a change without a funding source")
			}
			division, err := repos.Divisions().FindByCAN(ctx, *item.CANID)
			if err != nil {
				return err
			}
			for _, name := range routedFields {
				cr, err := changerequest.NewBudgetLineItemChangeRequest(
					item.ID, item.AgreementID,
					name, req.Fields[name], item.CurrentValue(name),
					req.RequestorNotes,
					division.ID, userID,
				)
				if err != nil {
					return err
				}
				if err := repos.ChangeRequests().Save(ctx, cr); err != nil {
					return err
				}
				created = append(created, cr)
			}
		}

		if len(directFields) > 0 {
			if err := repos.BudgetLineItems().Save(ctx, item); err != nil {
				return err
			}
		}

		result.Item = ToBudgetLineItemResponse(item)
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Routed = len(created) > 0
	for _, cr := range created {
		result.ChangeRequests = append(result.ChangeRequests, ToChangeRequestSummary(cr))
	}
	s.publishCreated(ctx, created)

	return &result, nil
}

// publishCreated emits creation events after commit; notification failures
// are non-fatal to the edit call
func (s *BudgetLineItemService) publishCreated(ctx context.Context, created []*changerequest.ChangeRequest) {
	if s.eventPublisher == nil || len(created) == 0 {
		return
	}
	events := make([]shared.DomainEvent, 0, len(created))
	for _, cr := range created {
		events = append(events, changerequest.NewCreatedEvent(cr))
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		logger.FromContext(ctx).Warn("failed to publish change request events", zap.Error(err))
	}
}
