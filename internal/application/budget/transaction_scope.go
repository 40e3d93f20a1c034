package budget

import (
	"context"

	"github.com/budget/backend/internal/domain/budget"
	"github.com/budget/backend/internal/domain/changerequest"
)

// TransactionScope provides transactional access to the repositories touched
// by an edit or review call. All repository operations inside Execute share
// one database transaction: the entity mutation, any created change request
// rows and the audit records staged by the capture hooks commit together or
// roll back together.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(ctx context.Context, repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the repositories scoped to the
// current transaction.
type TransactionalRepositories interface {
	// BudgetLineItems returns the budget line item repository scoped to the transaction
	BudgetLineItems() budget.BudgetLineItemRepository
	// Agreements returns the agreement repository scoped to the transaction
	Agreements() budget.AgreementRepository
	// ChangeRequests returns the change request repository scoped to the transaction
	ChangeRequests() changerequest.Repository
	// Divisions returns the division repository scoped to the transaction
	Divisions() budget.DivisionRepository
}
