package persistence

import (
	"context"

	appbudget "github.com/budget/backend/internal/application/budget"
	"github.com/budget/backend/internal/domain/budget"
	"github.com/budget/backend/internal/domain/changerequest"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// Every Execute call runs with audit capture: the entity writes, any created
// change requests and the staged audit records commit atomically.
type GormTransactionScope struct {
	db *Database
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *Database) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within an audited database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(ctx context.Context, repos appbudget.TransactionalRepositories) error) error {
	return s.db.AuditedTransaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx}
		return fn(ctx, repos)
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// BudgetLineItems returns the budget line item repository scoped to the current transaction
func (r *gormTransactionalRepositories) BudgetLineItems() budget.BudgetLineItemRepository {
	return NewGormBudgetLineItemRepository(r.tx)
}

// Agreements returns the agreement repository scoped to the current transaction
func (r *gormTransactionalRepositories) Agreements() budget.AgreementRepository {
	return NewGormAgreementRepository(r.tx)
}

// ChangeRequests returns the change request repository scoped to the current transaction
func (r *gormTransactionalRepositories) ChangeRequests() changerequest.Repository {
	return NewGormChangeRequestRepository(r.tx)
}

// Divisions returns the division repository scoped to the current transaction
func (r *gormTransactionalRepositories) Divisions() budget.DivisionRepository {
	return NewGormDivisionRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appbudget.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appbudget.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
