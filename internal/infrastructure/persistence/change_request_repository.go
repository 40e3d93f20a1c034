package persistence

import (
	"context"
	"errors"

	"github.com/budget/backend/internal/domain/audit"
	"github.com/budget/backend/internal/domain/changerequest"
	"github.com/budget/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormChangeRequestRepository implements changerequest.Repository using GORM
type GormChangeRequestRepository struct {
	db *gorm.DB
}

// NewGormChangeRequestRepository creates a new GormChangeRequestRepository
func NewGormChangeRequestRepository(db *gorm.DB) *GormChangeRequestRepository {
	return &GormChangeRequestRepository{db: db}
}

// FindByID finds a change request by its ID
func (r *GormChangeRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*changerequest.ChangeRequest, error) {
	var cr changerequest.ChangeRequest
	if err := r.db.WithContext(ctx).First(&cr, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	audit.TrackLoaded(ctx, &cr)
	return &cr, nil
}

// FindAll finds change requests matching the filter, most recent first
func (r *GormChangeRequestRepository) FindAll(ctx context.Context, filter changerequest.Filter) ([]changerequest.ChangeRequest, int64, error) {
	query := r.db.WithContext(ctx).Model(&changerequest.ChangeRequest{})

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Type != nil {
		query = query.Where("change_request_type = ?", *filter.Type)
	}
	if filter.ManagingDivisionID != nil {
		query = query.Where("managing_division_id = ?", *filter.ManagingDivisionID)
	}
	if filter.CreatedBy != nil {
		query = query.Where("created_by = ?", *filter.CreatedBy)
	}
	if filter.AgreementID != nil {
		query = query.Where("agreement_id = ?", *filter.AgreementID)
	}
	if filter.BudgetLineItemID != nil {
		query = query.Where("budget_line_item_id = ?", *filter.BudgetLineItemID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("created_at DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var requests []changerequest.ChangeRequest
	if err := query.Find(&requests).Error; err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

// Save creates or updates a change request
func (r *GormChangeRequestRepository) Save(ctx context.Context, cr *changerequest.ChangeRequest) error {
	db := r.db.WithContext(ctx)
	exists, err := rowExists(db, &changerequest.ChangeRequest{}, cr.ID)
	if err != nil {
		return err
	}
	if !exists {
		return db.Create(cr).Error
	}
	return db.Save(cr).Error
}

// Ensure GormChangeRequestRepository implements changerequest.Repository
var _ changerequest.Repository = (*GormChangeRequestRepository)(nil)
