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

// AgreementService handles agreement operations. Restricted agreement fields
// follow the same routing policy as budget lines: once any of the agreement's
// budget lines has left DRAFT, edits to them become change requests.
type AgreementService struct {
	scope          TransactionScope
	agreementRepo  budget.AgreementRepository
	eventPublisher shared.EventPublisher
}

// NewAgreementService creates a new AgreementService
func NewAgreementService(scope TransactionScope, agreementRepo budget.AgreementRepository) *AgreementService {
	return &AgreementService{
		scope:         scope,
		agreementRepo: agreementRepo,
	}
}

// SetEventPublisher sets the publisher used for change request notifications
func (s *AgreementService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// GetByID retrieves an agreement with its budget lines
func (s *AgreementService) GetByID(ctx context.Context, id uuid.UUID) (*AgreementResponse, error) {
	agreement, err := s.agreementRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToAgreementResponse(agreement)
	return &resp, nil
}

// List retrieves agreements with pagination
func (s *AgreementService) List(ctx context.Context, page, pageSize int) ([]AgreementResponse, int64, error) {
	filter := shared.DefaultFilter()
	if page > 0 {
		filter.Page = page
	}
	if pageSize > 0 {
		filter.PageSize = pageSize
	}
	agreements, total, err := s.agreementRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]AgreementResponse, 0, len(agreements))
	for i := range agreements {
		responses = append(responses, ToAgreementResponse(&agreements[i]))
	}
	return responses, total, nil
}

// Update applies a partial field map to an agreement. Restricted fields are
// routed to the agreement's own division once any budget line has left DRAFT;
// everything else applies directly.
func (s *AgreementService) Update(
	ctx context.Context,
	id uuid.UUID,
	userID uuid.UUID,
	req UpdateAgreementRequest,
) (*UpdateAgreementResult, error) {
	if len(req.Fields) == 0 {
		return nil, shared.NewValidationError("fields", "no fields to update")
	}
	for name := range req.Fields {
		if !budget.IsAgreementEditableField(name) {
			return nil, shared.NewValidationError(name, "unknown field")
		}
	}

	var result UpdateAgreementResult
	var created []*changerequest.ChangeRequest

	err := s.scope.Execute(ctx, func(ctx context.Context, repos TransactionalRepositories) error {
		agreement, err := repos.Agreements().FindByID(ctx, id)
		if err != nil {
			return err
		}

		locked := agreement.HasLineBeyondDraft()

		directFields := make(map[string]any)
		var routedFields []string
		for name, value := range req.Fields {
			if locked && budget.IsAgreementRestrictedField(name) {
				routedFields = append(routedFields, name)
			} else {
				directFields[name] = value
			}
		}
		sort.Strings(routedFields)

		for _, name := range routedFields {
			if _, err := agreement.ValidateChange(name, req.Fields[name]); err != nil {
				return err
			}
		}
		for name, value := range directFields {
			if err := agreement.ApplyChange(name, value); err != nil {
				return err
			}
		}

		if len(routedFields) > 0 {
			if agreement.DivisionID == nil {
				return shared.NewValidationError("division_id",
					"agreement has no managing division")
			}
			for _, name := range routedFields {
				cr, err := changerequest.NewAgreementChangeRequest(
					agreement.ID,
					name, req.Fields[name], agreement.CurrentValue(name),
					req.RequestorNotes,
					*agreement.DivisionID, userID,
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
			if err := repos.Agreements().Save(ctx, agreement); err != nil {
				return err
			}
		}

		result.Agreement = ToAgreementResponse(agreement)
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

func (s *AgreementService) publishCreated(ctx context.Context, created []*changerequest.ChangeRequest) {
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
