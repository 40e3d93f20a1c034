package handler

import (
	"context"

	budgetapp "github.com/budget/backend/internal/application/budget"
	"github.com/budget/backend/internal/domain/budget"
	"github.com/budget/backend/internal/domain/changerequest"
	"github.com/budget/backend/internal/domain/shared"
	"github.com/budget/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// In-memory doubles backing the handler tests. Execute runs the callback
// directly; transactional behavior is covered by the persistence tests.

type stubScope struct {
	repos *stubRepos
}

func (s *stubScope) Execute(ctx context.Context, fn func(ctx context.Context, repos budgetapp.TransactionalRepositories) error) error {
	return fn(ctx, s.repos)
}

type stubRepos struct {
	lineItems  *stubLineItemRepo
	agreements *stubAgreementRepo
	crs        *stubChangeRequestRepo
	divisions  *stubDivisionRepo
}

func (r *stubRepos) BudgetLineItems() budget.BudgetLineItemRepository { return r.lineItems }
func (r *stubRepos) Agreements() budget.AgreementRepository           { return r.agreements }
func (r *stubRepos) ChangeRequests() changerequest.Repository         { return r.crs }
func (r *stubRepos) Divisions() budget.DivisionRepository             { return r.divisions }

func newStubScope() *stubScope {
	return &stubScope{repos: &stubRepos{
		lineItems:  &stubLineItemRepo{items: map[uuid.UUID]*budget.BudgetLineItem{}},
		agreements: &stubAgreementRepo{agreements: map[uuid.UUID]*budget.Agreement{}},
		crs:        &stubChangeRequestRepo{},
		divisions:  &stubDivisionRepo{byID: map[uuid.UUID]*budget.Division{}, byCAN: map[uuid.UUID]*budget.Division{}},
	}}
}

type stubLineItemRepo struct {
	items map[uuid.UUID]*budget.BudgetLineItem
}

func (r *stubLineItemRepo) FindByID(_ context.Context, id uuid.UUID) (*budget.BudgetLineItem, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return item, nil
}

func (r *stubLineItemRepo) FindAll(_ context.Context, _ shared.Filter) ([]budget.BudgetLineItem, int64, error) {
	return nil, 0, nil
}

func (r *stubLineItemRepo) Save(_ context.Context, item *budget.BudgetLineItem) error {
	r.items[item.ID] = item
	return nil
}

func (r *stubLineItemRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.items, id)
	return nil
}

type stubAgreementRepo struct {
	agreements map[uuid.UUID]*budget.Agreement
}

func (r *stubAgreementRepo) FindByID(_ context.Context, id uuid.UUID) (*budget.Agreement, error) {
	agreement, ok := r.agreements[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return agreement, nil
}

func (r *stubAgreementRepo) FindAll(_ context.Context, _ shared.Filter) ([]budget.Agreement, int64, error) {
	return nil, 0, nil
}

func (r *stubAgreementRepo) Save(_ context.Context, agreement *budget.Agreement) error {
	r.agreements[agreement.ID] = agreement
	return nil
}

type stubChangeRequestRepo struct {
	saved      []*changerequest.ChangeRequest
	lastFilter changerequest.Filter
}

func (r *stubChangeRequestRepo) FindByID(_ context.Context, id uuid.UUID) (*changerequest.ChangeRequest, error) {
	for _, cr := range r.saved {
		if cr.ID == id {
			return cr, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *stubChangeRequestRepo) FindAll(_ context.Context, filter changerequest.Filter) ([]changerequest.ChangeRequest, int64, error) {
	r.lastFilter = filter
	out := make([]changerequest.ChangeRequest, 0, len(r.saved))
	for _, cr := range r.saved {
		out = append(out, *cr)
	}
	return out, int64(len(out)), nil
}

func (r *stubChangeRequestRepo) Save(_ context.Context, cr *changerequest.ChangeRequest) error {
	for i, existing := range r.saved {
		if existing.ID == cr.ID {
			r.saved[i] = cr
			return nil
		}
	}
	r.saved = append(r.saved, cr)
	return nil
}

type stubDivisionRepo struct {
	byID  map[uuid.UUID]*budget.Division
	byCAN map[uuid.UUID]*budget.Division
}

func (r *stubDivisionRepo) FindByID(_ context.Context, id uuid.UUID) (*budget.Division, error) {
	division, ok := r.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return division, nil
}

func (r *stubDivisionRepo) FindByCAN(_ context.Context, canID uuid.UUID) (*budget.Division, error) {
	division, ok := r.byCAN[canID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return division, nil
}

// actAs stamps the authenticated user the way the JWT middleware does.
func actAs(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.JWTUserIDKey, userID.String())
		c.Next()
	}
}
