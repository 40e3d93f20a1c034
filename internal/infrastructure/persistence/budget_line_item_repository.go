package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/budget/backend/internal/domain/audit"
	"github.com/budget/backend/internal/domain/budget"
	"github.com/budget/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormBudgetLineItemRepository implements BudgetLineItemRepository using GORM
type GormBudgetLineItemRepository struct {
	db *gorm.DB
}

// NewGormBudgetLineItemRepository creates a new GormBudgetLineItemRepository
func NewGormBudgetLineItemRepository(db *gorm.DB) *GormBudgetLineItemRepository {
	return &GormBudgetLineItemRepository{db: db}
}

// FindByID finds a budget line item by its ID. The loaded state is snapshotted
// so a later flush in the same unit of work can be diffed against it.
func (r *GormBudgetLineItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*budget.BudgetLineItem, error) {
	var item budget.BudgetLineItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	audit.TrackLoaded(ctx, &item)
	return &item, nil
}

// FindAll finds budget line items matching the filter
func (r *GormBudgetLineItemRepository) FindAll(ctx context.Context, filter shared.Filter) ([]budget.BudgetLineItem, int64, error) {
	query := r.db.WithContext(ctx).Model(&budget.BudgetLineItem{})
	query = applyLineItemFilters(query, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []budget.BudgetLineItem
	if err := query.
		Order(orderClause(filter)).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Save creates or updates a budget line item
func (r *GormBudgetLineItemRepository) Save(ctx context.Context, item *budget.BudgetLineItem) error {
	db := r.db.WithContext(ctx)
	exists, err := rowExists(db, &budget.BudgetLineItem{}, item.ID)
	if err != nil {
		return err
	}
	if !exists {
		return db.Create(item).Error
	}
	return db.Save(item).Error
}

// Delete deletes a budget line item
func (r *GormBudgetLineItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	// Load first so the delete is audited against the row's last known state
	item, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Delete(item)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func applyLineItemFilters(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "agreement_id":
			query = query.Where("agreement_id = ?", value)
		case "can_id":
			query = query.Where("can_id = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		}
	}
	return query
}

func orderClause(filter shared.Filter) string {
	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "created_at"
	}
	dir := "ASC"
	if strings.ToLower(filter.OrderDir) == "desc" {
		dir = "DESC"
	}
	return orderBy + " " + dir
}

// Ensure GormBudgetLineItemRepository implements BudgetLineItemRepository
var _ budget.BudgetLineItemRepository = (*GormBudgetLineItemRepository)(nil)
