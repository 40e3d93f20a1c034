package persistence

import (
	"context"
	"errors"

	"github.com/budget/backend/internal/domain/budget"
	"github.com/budget/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDivisionRepository implements DivisionRepository using GORM
type GormDivisionRepository struct {
	db *gorm.DB
}

// NewGormDivisionRepository creates a new GormDivisionRepository
func NewGormDivisionRepository(db *gorm.DB) *GormDivisionRepository {
	return &GormDivisionRepository{db: db}
}

// FindByID finds a division by its ID
func (r *GormDivisionRepository) FindByID(ctx context.Context, id uuid.UUID) (*budget.Division, error) {
	var division budget.Division
	if err := r.db.WithContext(ctx).First(&division, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &division, nil
}

// FindByCAN resolves the managing division by walking CAN -> Portfolio -> Division
func (r *GormDivisionRepository) FindByCAN(ctx context.Context, canID uuid.UUID) (*budget.Division, error) {
	var division budget.Division
	if err := r.db.WithContext(ctx).
		Joins("JOIN portfolios ON portfolios.division_id = divisions.id").
		Joins("JOIN cans ON cans.portfolio_id = portfolios.id").
		Where("cans.id = ?", canID).
		First(&division).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &division, nil
}

// GormCANRepository implements CANRepository using GORM
type GormCANRepository struct {
	db *gorm.DB
}

// NewGormCANRepository creates a new GormCANRepository
func NewGormCANRepository(db *gorm.DB) *GormCANRepository {
	return &GormCANRepository{db: db}
}

// FindByID finds a CAN with its portfolio
func (r *GormCANRepository) FindByID(ctx context.Context, id uuid.UUID) (*budget.CAN, error) {
	var can budget.CAN
	if err := r.db.WithContext(ctx).
		Preload("Portfolio").
		First(&can, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &can, nil
}

// Ensure the repositories implement their domain interfaces
var (
	_ budget.DivisionRepository = (*GormDivisionRepository)(nil)
	_ budget.CANRepository      = (*GormCANRepository)(nil)
)
