package changerequest

import (
	"testing"

	"github.com/budget/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLineItemRequest(t *testing.T) *ChangeRequest {
	t.Helper()
	cr, err := NewBudgetLineItemChangeRequest(
		uuid.New(), uuid.New(),
		"amount", decimal.NewFromInt(500), decimal.NewFromInt(100),
		"budget increase",
		uuid.New(), uuid.New(),
	)
	require.NoError(t, err)
	return cr
}

func TestNewBudgetLineItemChangeRequest(t *testing.T) {
	cr := newLineItemRequest(t)

	assert.Equal(t, TypeBudgetLineItem, cr.Type)
	assert.Equal(t, StatusInReview, cr.Status)
	assert.Equal(t, "amount", cr.FieldName())
	require.NotNil(t, cr.BudgetLineItemID)
	require.NotNil(t, cr.AgreementID)

	// Proposed and recorded values are stored normalized.
	assert.Equal(t, float64(500), cr.RequestedChangeData["amount"])
	assert.Equal(t, float64(100), cr.Diff().Old)
	assert.Equal(t, float64(500), cr.Diff().New)
}

func TestNewChangeRequestValidation(t *testing.T) {
	divisionID := uuid.New()
	userID := uuid.New()

	_, err := NewBudgetLineItemChangeRequest(uuid.Nil, uuid.New(), "amount", 1, 0, "", divisionID, userID)
	assert.Error(t, err)

	_, err = NewBudgetLineItemChangeRequest(uuid.New(), uuid.New(), "", 1, 0, "", divisionID, userID)
	assert.Error(t, err)

	_, err = NewBudgetLineItemChangeRequest(uuid.New(), uuid.New(), "amount", 1, 0, "", uuid.Nil, userID)
	assert.Error(t, err)

	_, err = NewAgreementChangeRequest(uuid.Nil, "name", "a", "b", "", divisionID, userID)
	assert.Error(t, err)
}

func TestAgreementChangeRequestTarget(t *testing.T) {
	agreementID := uuid.New()
	cr, err := NewAgreementChangeRequest(agreementID, "name", "New Name", "Old Name", "", uuid.New(), uuid.New())
	require.NoError(t, err)

	assert.Equal(t, TypeAgreement, cr.Type)
	assert.Nil(t, cr.BudgetLineItemID)
	assert.Equal(t, agreementID, cr.TargetID())
	assert.Equal(t, "AgreementChangeRequest", cr.AuditClassName())
}

func TestApproveTransitionsToTerminal(t *testing.T) {
	cr := newLineItemRequest(t)
	reviewer := uuid.New()

	require.NoError(t, cr.Approve(reviewer, "looks right"))

	assert.Equal(t, StatusApproved, cr.Status)
	assert.True(t, cr.Status.IsTerminal())
	require.NotNil(t, cr.ReviewedByID)
	assert.Equal(t, reviewer, *cr.ReviewedByID)
	assert.NotNil(t, cr.ReviewedOn)
	assert.Equal(t, "looks right", cr.ReviewerNotes)
}

func TestRejectTransitionsToTerminal(t *testing.T) {
	cr := newLineItemRequest(t)

	require.NoError(t, cr.Reject(uuid.New(), "not this quarter"))
	assert.Equal(t, StatusRejected, cr.Status)
	assert.True(t, cr.Status.IsTerminal())
}

func TestReviewingTerminalRequestFails(t *testing.T) {
	cr := newLineItemRequest(t)
	require.NoError(t, cr.Approve(uuid.New(), ""))

	err := cr.Approve(uuid.New(), "")
	var vErr *shared.ValidationError
	require.ErrorAs(t, err, &vErr)

	err = cr.Reject(uuid.New(), "")
	assert.Error(t, err)
	assert.Equal(t, StatusApproved, cr.Status)
}

func TestStatusHelpers(t *testing.T) {
	assert.False(t, StatusInReview.IsTerminal())
	assert.True(t, StatusApproved.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())

	assert.Equal(t, "Approved", StatusApproved.Label())
	assert.Equal(t, "In Review", StatusInReview.Label())

	assert.True(t, ActionApprove.IsValid())
	assert.True(t, ActionReject.IsValid())
	assert.False(t, ReviewAction("DEFER").IsValid())
}

func TestLifecycleEvents(t *testing.T) {
	cr := newLineItemRequest(t)

	created := NewCreatedEvent(cr)
	assert.Equal(t, EventTypeCreated, created.EventType())
	assert.Equal(t, cr.ID, created.ChangeRequestID)
	assert.Equal(t, cr.ManagingDivisionID, created.ManagingDivisionID)
	assert.Equal(t, cr.CreatedBy, created.RequestorID)
	assert.Equal(t, "amount", created.FieldName)

	reviewer := uuid.New()
	require.NoError(t, cr.Approve(reviewer, ""))
	reviewed := NewReviewedEvent(cr, reviewer)
	assert.Equal(t, EventTypeReviewed, reviewed.EventType())
	assert.Equal(t, StatusApproved, reviewed.Outcome)
	assert.Equal(t, float64(100), reviewed.OldValue)
	assert.Equal(t, float64(500), reviewed.NewValue)
}
