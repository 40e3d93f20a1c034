package budget

import (
	"context"

	"github.com/budget/backend/internal/domain/budget"
	"github.com/budget/backend/internal/domain/changerequest"
	"github.com/budget/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// In-memory doubles for the transactional repositories. Execute runs the
// callback directly; rollback behavior is covered by the persistence tests.

type fakeScope struct {
	repos *fakeRepos
}

func (s *fakeScope) Execute(ctx context.Context, fn func(ctx context.Context, repos TransactionalRepositories) error) error {
	return fn(ctx, s.repos)
}

type fakeRepos struct {
	lineItems  *fakeLineItemRepo
	agreements *fakeAgreementRepo
	crs        *fakeChangeRequestRepo
	divisions  *fakeDivisionRepo
}

func (r *fakeRepos) BudgetLineItems() budget.BudgetLineItemRepository { return r.lineItems }
func (r *fakeRepos) Agreements() budget.AgreementRepository           { return r.agreements }
func (r *fakeRepos) ChangeRequests() changerequest.Repository         { return r.crs }
func (r *fakeRepos) Divisions() budget.DivisionRepository             { return r.divisions }

func newFakeScope() *fakeScope {
	return &fakeScope{repos: &fakeRepos{
		lineItems:  &fakeLineItemRepo{items: map[uuid.UUID]*budget.BudgetLineItem{}},
		agreements: &fakeAgreementRepo{agreements: map[uuid.UUID]*budget.Agreement{}},
		crs:        &fakeChangeRequestRepo{},
		divisions:  &fakeDivisionRepo{byID: map[uuid.UUID]*budget.Division{}, byCAN: map[uuid.UUID]*budget.Division{}},
	}}
}

type fakeLineItemRepo struct {
	items map[uuid.UUID]*budget.BudgetLineItem
	saved []*budget.BudgetLineItem
}

func (r *fakeLineItemRepo) FindByID(_ context.Context, id uuid.UUID) (*budget.BudgetLineItem, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return item, nil
}

func (r *fakeLineItemRepo) FindAll(_ context.Context, _ shared.Filter) ([]budget.BudgetLineItem, int64, error) {
	out := make([]budget.BudgetLineItem, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, *item)
	}
	return out, int64(len(out)), nil
}

func (r *fakeLineItemRepo) Save(_ context.Context, item *budget.BudgetLineItem) error {
	r.items[item.ID] = item
	r.saved = append(r.saved, item)
	return nil
}

func (r *fakeLineItemRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.items, id)
	return nil
}

type fakeAgreementRepo struct {
	agreements map[uuid.UUID]*budget.Agreement
	saved      []*budget.Agreement
}

func (r *fakeAgreementRepo) FindByID(_ context.Context, id uuid.UUID) (*budget.Agreement, error) {
	agreement, ok := r.agreements[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return agreement, nil
}

func (r *fakeAgreementRepo) FindAll(_ context.Context, _ shared.Filter) ([]budget.Agreement, int64, error) {
	out := make([]budget.Agreement, 0, len(r.agreements))
	for _, agreement := range r.agreements {
		out = append(out, *agreement)
	}
	return out, int64(len(out)), nil
}

func (r *fakeAgreementRepo) Save(_ context.Context, agreement *budget.Agreement) error {
	r.agreements[agreement.ID] = agreement
	r.saved = append(r.saved, agreement)
	return nil
}

type fakeChangeRequestRepo struct {
	saved []*changerequest.ChangeRequest
}

func (r *fakeChangeRequestRepo) FindByID(_ context.Context, id uuid.UUID) (*changerequest.ChangeRequest, error) {
	for _, cr := range r.saved {
		if cr.ID == id {
			return cr, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeChangeRequestRepo) FindAll(_ context.Context, _ changerequest.Filter) ([]changerequest.ChangeRequest, int64, error) {
	out := make([]changerequest.ChangeRequest, 0, len(r.saved))
	for _, cr := range r.saved {
		out = append(out, *cr)
	}
	return out, int64(len(out)), nil
}

func (r *fakeChangeRequestRepo) Save(_ context.Context, cr *changerequest.ChangeRequest) error {
	r.saved = append(r.saved, cr)
	return nil
}

type fakeDivisionRepo struct {
	byID  map[uuid.UUID]*budget.Division
	byCAN map[uuid.UUID]*budget.Division
}

func (r *fakeDivisionRepo) FindByID(_ context.Context, id uuid.UUID) (*budget.Division, error) {
	division, ok := r.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return division, nil
}

func (r *fakeDivisionRepo) FindByCAN(_ context.Context, canID uuid.UUID) (*budget.Division, error) {
	division, ok := r.byCAN[canID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return division, nil
}

type fakePublisher struct {
	events []shared.DomainEvent
}

func (p *fakePublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}
