package persistence

import (
	"context"
	"errors"

	"github.com/budget/backend/internal/domain/audit"
	"github.com/budget/backend/internal/domain/budget"
	"github.com/budget/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAgreementRepository implements AgreementRepository using GORM
type GormAgreementRepository struct {
	db *gorm.DB
}

// NewGormAgreementRepository creates a new GormAgreementRepository
func NewGormAgreementRepository(db *gorm.DB) *GormAgreementRepository {
	return &GormAgreementRepository{db: db}
}

// FindByID finds an agreement with its budget lines. Both the agreement and
// every loaded line are snapshotted for later diffing, and the loaded lines
// give the agreement its audited collection membership.
func (r *GormAgreementRepository) FindByID(ctx context.Context, id uuid.UUID) (*budget.Agreement, error) {
	var agreement budget.Agreement
	if err := r.db.WithContext(ctx).
		Preload("BudgetLineItems").
		First(&agreement, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	audit.TrackLoaded(ctx, &agreement)
	for i := range agreement.BudgetLineItems {
		audit.TrackLoaded(ctx, &agreement.BudgetLineItems[i])
	}
	return &agreement, nil
}

// FindAll finds agreements matching the filter
func (r *GormAgreementRepository) FindAll(ctx context.Context, filter shared.Filter) ([]budget.Agreement, int64, error) {
	query := r.db.WithContext(ctx).Model(&budget.Agreement{})
	for key, value := range filter.Filters {
		switch key {
		case "agreement_type":
			query = query.Where("agreement_type = ?", value)
		case "division_id":
			query = query.Where("division_id = ?", value)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var agreements []budget.Agreement
	if err := query.
		Order(orderClause(filter)).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&agreements).Error; err != nil {
		return nil, 0, err
	}
	return agreements, total, nil
}

// Save creates or updates an agreement. Owned budget lines are saved through
// their own repository, never as a side effect here.
func (r *GormAgreementRepository) Save(ctx context.Context, agreement *budget.Agreement) error {
	db := r.db.WithContext(ctx)
	exists, err := rowExists(db, &budget.Agreement{}, agreement.ID)
	if err != nil {
		return err
	}
	if !exists {
		return db.Omit("BudgetLineItems").Create(agreement).Error
	}
	return db.Omit("BudgetLineItems").Save(agreement).Error
}

// Ensure GormAgreementRepository implements AgreementRepository
var _ budget.AgreementRepository = (*GormAgreementRepository)(nil)
