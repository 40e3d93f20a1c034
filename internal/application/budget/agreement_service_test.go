package budget

import (
	"context"
	"testing"

	"github.com/budget/backend/internal/domain/budget"
	"github.com/budget/backend/internal/domain/changerequest"
	"github.com/budget/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedAgreement(t *testing.T, scope *fakeScope, lineStatus budget.LineItemStatus, withDivision bool) (*budget.Agreement, *budget.Division) {
	t.Helper()
	agreement, err := budget.NewAgreement("IT Support Services", budget.AgreementTypeContract)
	require.NoError(t, err)

	line, err := budget.NewBudgetLineItem(agreement.ID, "line")
	require.NoError(t, err)
	line.Status = lineStatus
	agreement.BudgetLineItems = append(agreement.BudgetLineItems, *line)

	var division *budget.Division
	if withDivision {
		director := uuid.New()
		division = &budget.Division{
			BaseEntity:         shared.NewBaseEntity(),
			Name:               "Budget Division",
			Abbreviation:       "BD",
			DivisionDirectorID: &director,
		}
		scope.repos.divisions.byID[division.ID] = division
		agreement.DivisionID = &division.ID
	}
	scope.repos.agreements.agreements[agreement.ID] = agreement
	return agreement, division
}

func TestAgreementUpdateDirectWhileLinesAreDraft(t *testing.T) {
	scope := newFakeScope()
	svc := NewAgreementService(scope, scope.repos.agreements)
	agreement, _ := seedAgreement(t, scope, budget.LineItemStatusDraft, true)

	result, err := svc.Update(context.Background(), agreement.ID, uuid.New(), UpdateAgreementRequest{
		Fields: map[string]any{budget.AgreementFieldName: "Renamed Services"},
	})
	require.NoError(t, err)

	// Restricted fields stay directly editable until a line leaves DRAFT.
	assert.False(t, result.Routed)
	assert.Empty(t, scope.repos.crs.saved)
	assert.Equal(t, "Renamed Services", agreement.Name)
	require.Len(t, scope.repos.agreements.saved, 1)
}

func TestAgreementUpdateRoutesRestrictedFieldsWhenLocked(t *testing.T) {
	scope := newFakeScope()
	svc := NewAgreementService(scope, scope.repos.agreements)
	publisher := &fakePublisher{}
	svc.SetEventPublisher(publisher)
	agreement, division := seedAgreement(t, scope, budget.LineItemStatusPlanned, true)
	userID := uuid.New()

	result, err := svc.Update(context.Background(), agreement.ID, userID, UpdateAgreementRequest{
		Fields: map[string]any{
			budget.AgreementFieldName:        "Renamed Services",
			budget.AgreementFieldDescription: "new description",
		},
	})
	require.NoError(t, err)

	assert.True(t, result.Routed)
	require.Len(t, result.ChangeRequests, 1)
	assert.Equal(t, budget.AgreementFieldName, result.ChangeRequests[0].FieldName)

	require.Len(t, scope.repos.crs.saved, 1)
	cr := scope.repos.crs.saved[0]
	assert.Equal(t, changerequest.TypeAgreement, cr.Type)
	assert.Equal(t, division.ID, cr.ManagingDivisionID)
	assert.Equal(t, userID, cr.CreatedBy)
	assert.Equal(t, "IT Support Services", cr.Diff().Old)
	assert.Equal(t, "Renamed Services", cr.Diff().New)

	// The routed field is untouched while the free field applies.
	assert.Equal(t, "IT Support Services", agreement.Name)
	assert.Equal(t, "new description", agreement.Description)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, changerequest.EventTypeCreated, publisher.events[0].EventType())
}

func TestAgreementUpdateLockedWithoutDivision(t *testing.T) {
	scope := newFakeScope()
	svc := NewAgreementService(scope, scope.repos.agreements)
	agreement, _ := seedAgreement(t, scope, budget.LineItemStatusPlanned, false)

	_, err := svc.Update(context.Background(), agreement.ID, uuid.New(), UpdateAgreementRequest{
		Fields: map[string]any{budget.AgreementFieldName: "Renamed"},
	})

	var vErr *shared.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "division_id")
	assert.Empty(t, scope.repos.crs.saved)
}

func TestAgreementUpdateRejectsUnknownField(t *testing.T) {
	scope := newFakeScope()
	svc := NewAgreementService(scope, scope.repos.agreements)
	agreement, _ := seedAgreement(t, scope, budget.LineItemStatusDraft, true)

	_, err := svc.Update(context.Background(), agreement.ID, uuid.New(), UpdateAgreementRequest{
		Fields: map[string]any{"division_id": uuid.New().String()},
	})
	var vErr *shared.ValidationError
	require.ErrorAs(t, err, &vErr)
}
