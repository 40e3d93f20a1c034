package budget

import (
	"context"
	"testing"

	"github.com/budget/backend/internal/domain/budget"
	"github.com/budget/backend/internal/domain/changerequest"
	"github.com/budget/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedLineItem(t *testing.T, scope *fakeScope, status budget.LineItemStatus, withCAN bool) (*budget.BudgetLineItem, *budget.Division) {
	t.Helper()
	item, err := budget.NewBudgetLineItem(uuid.New(), "line")
	require.NoError(t, err)
	item.Status = status

	director := uuid.New()
	division := &budget.Division{
		BaseEntity:         shared.NewBaseEntity(),
		Name:               "Budget Division",
		Abbreviation:       "BD",
		DivisionDirectorID: &director,
	}
	scope.repos.divisions.byID[division.ID] = division

	if withCAN {
		canID := uuid.New()
		item.CANID = &canID
		scope.repos.divisions.byCAN[canID] = division
	}
	scope.repos.lineItems.items[item.ID] = item
	return item, division
}

func TestUpdateDirectEditOnDraft(t *testing.T) {
	scope := newFakeScope()
	svc := NewBudgetLineItemService(scope, scope.repos.lineItems)
	item, _ := seedLineItem(t, scope, budget.LineItemStatusDraft, true)

	result, err := svc.Update(context.Background(), item.ID, uuid.New(), UpdateBudgetLineItemRequest{
		Fields: map[string]any{
			budget.FieldLineDescription: "updated description",
			budget.FieldAmount:          1500.00,
		},
	})
	require.NoError(t, err)

	assert.False(t, result.Routed)
	assert.Empty(t, result.ChangeRequests)
	assert.Empty(t, scope.repos.crs.saved)
	require.Len(t, scope.repos.lineItems.saved, 1)
	assert.Equal(t, "updated description", item.LineDescription)
	require.NotNil(t, item.Amount)
	assert.True(t, item.Amount.Equal(decimal.NewFromInt(1500)))
}

func TestUpdateRoutesBudgetFieldsBeyondDraft(t *testing.T) {
	scope := newFakeScope()
	svc := NewBudgetLineItemService(scope, scope.repos.lineItems)
	publisher := &fakePublisher{}
	svc.SetEventPublisher(publisher)

	item, division := seedLineItem(t, scope, budget.LineItemStatusPlanned, true)
	amount := decimal.NewFromInt(100)
	item.Amount = &amount
	userID := uuid.New()

	result, err := svc.Update(context.Background(), item.ID, userID, UpdateBudgetLineItemRequest{
		Fields: map[string]any{
			budget.FieldDateNeeded: "2026-03-01",
			budget.FieldAmount:     250.00,
			budget.FieldComments:   "still editable",
		},
		RequestorNotes: "quarterly adjustment",
	})
	require.NoError(t, err)

	assert.True(t, result.Routed)
	require.Len(t, result.ChangeRequests, 2)
	// One request per routed field, in field name order.
	assert.Equal(t, budget.FieldAmount, result.ChangeRequests[0].FieldName)
	assert.Equal(t, budget.FieldDateNeeded, result.ChangeRequests[1].FieldName)

	require.Len(t, scope.repos.crs.saved, 2)
	cr := scope.repos.crs.saved[0]
	assert.Equal(t, changerequest.StatusInReview, cr.Status)
	assert.Equal(t, division.ID, cr.ManagingDivisionID)
	assert.Equal(t, userID, cr.CreatedBy)
	assert.Equal(t, "quarterly adjustment", cr.RequestorNotes)
	assert.Equal(t, float64(100), cr.Diff().Old)
	assert.Equal(t, float64(250), cr.Diff().New)

	// The routed value is not applied; the direct field is.
	assert.True(t, item.Amount.Equal(amount))
	assert.Equal(t, "still editable", item.Comments)

	require.Len(t, publisher.events, 2)
	assert.Equal(t, changerequest.EventTypeCreated, publisher.events[0].EventType())
}

func TestUpdateStatusChangeRoutedEvenFromDraft(t *testing.T) {
	scope := newFakeScope()
	svc := NewBudgetLineItemService(scope, scope.repos.lineItems)
	item, _ := seedLineItem(t, scope, budget.LineItemStatusDraft, true)

	result, err := svc.Update(context.Background(), item.ID, uuid.New(), UpdateBudgetLineItemRequest{
		Fields: map[string]any{budget.FieldStatus: "PLANNED"},
	})
	require.NoError(t, err)

	assert.True(t, result.Routed)
	require.Len(t, scope.repos.crs.saved, 1)
	assert.Equal(t, budget.FieldStatus, scope.repos.crs.saved[0].FieldName())
	// The transition waits for approval.
	assert.Equal(t, budget.LineItemStatusDraft, item.Status)
	assert.Empty(t, scope.repos.lineItems.saved)
}

func TestUpdateStatusMustBeAlone(t *testing.T) {
	scope := newFakeScope()
	svc := NewBudgetLineItemService(scope, scope.repos.lineItems)
	item, _ := seedLineItem(t, scope, budget.LineItemStatusDraft, true)

	_, err := svc.Update(context.Background(), item.ID, uuid.New(), UpdateBudgetLineItemRequest{
		Fields: map[string]any{
			budget.FieldStatus: "PLANNED",
			budget.FieldAmount: 100.00,
		},
	})

	var vErr *shared.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Empty(t, scope.repos.crs.saved)
	assert.Empty(t, scope.repos.lineItems.saved)
}

func TestUpdateRejectsUnknownField(t *testing.T) {
	scope := newFakeScope()
	svc := NewBudgetLineItemService(scope, scope.repos.lineItems)
	item, _ := seedLineItem(t, scope, budget.LineItemStatusDraft, true)

	_, err := svc.Update(context.Background(), item.ID, uuid.New(), UpdateBudgetLineItemRequest{
		Fields: map[string]any{"agreement_id": uuid.New().String()},
	})
	var vErr *shared.ValidationError
	require.ErrorAs(t, err, &vErr)

	_, err = svc.Update(context.Background(), item.ID, uuid.New(), UpdateBudgetLineItemRequest{})
	assert.Error(t, err)
}

func TestUpdateRoutingRequiresFundingSource(t *testing.T) {
	scope := newFakeScope()
	svc := NewBudgetLineItemService(scope, scope.repos.lineItems)
	item, _ := seedLineItem(t, scope, budget.LineItemStatusPlanned, false)

	_, err := svc.Update(context.Background(), item.ID, uuid.New(), UpdateBudgetLineItemRequest{
		Fields: map[string]any{budget.FieldAmount: 250.00},
	})

	var vErr *shared.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, budget.FieldCANID)
	assert.Empty(t, scope.repos.crs.saved)
}

func TestUpdateInvalidRoutedValueFailsWholeCall(t *testing.T) {
	scope := newFakeScope()
	svc := NewBudgetLineItemService(scope, scope.repos.lineItems)
	item, _ := seedLineItem(t, scope, budget.LineItemStatusPlanned, true)

	_, err := svc.Update(context.Background(), item.ID, uuid.New(), UpdateBudgetLineItemRequest{
		Fields: map[string]any{
			budget.FieldAmount:   -10.00,
			budget.FieldComments: "should not stick",
		},
	})
	require.Error(t, err)

	assert.Empty(t, item.Comments)
	assert.Empty(t, scope.repos.crs.saved)
	assert.Empty(t, scope.repos.lineItems.saved)
}

func TestGetByIDNotFound(t *testing.T) {
	scope := newFakeScope()
	svc := NewBudgetLineItemService(scope, scope.repos.lineItems)

	_, err := svc.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
