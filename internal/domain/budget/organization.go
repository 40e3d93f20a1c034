package budget

import (
	"context"

	"github.com/budget/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Division is the organizational unit that owns approval authority over
// budget changes. Its director and deputy director are the only users who may
// review change requests routed to it.
type Division struct {
	shared.BaseEntity
	Name                     string     `gorm:"type:varchar(200);not null" json:"name"`
	Abbreviation             string     `gorm:"type:varchar(20);not null;uniqueIndex" json:"abbreviation"`
	DivisionDirectorID       *uuid.UUID `gorm:"type:uuid" json:"division_director_id,omitempty"`
	DeputyDivisionDirectorID *uuid.UUID `gorm:"type:uuid" json:"deputy_division_director_id,omitempty"`
}

// TableName specifies the table name for Division
func (Division) TableName() string {
	return "divisions"
}

// IsApprover reports whether the user is the division's director or deputy
func (d *Division) IsApprover(userID uuid.UUID) bool {
	if d.DivisionDirectorID != nil && *d.DivisionDirectorID == userID {
		return true
	}
	if d.DeputyDivisionDirectorID != nil && *d.DeputyDivisionDirectorID == userID {
		return true
	}
	return false
}

// ApproverIDs returns the director and deputy director ids, skipping unset ones
func (d *Division) ApproverIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, 2)
	if d.DivisionDirectorID != nil {
		ids = append(ids, *d.DivisionDirectorID)
	}
	if d.DeputyDivisionDirectorID != nil && (d.DivisionDirectorID == nil || *d.DeputyDivisionDirectorID != *d.DivisionDirectorID) {
		ids = append(ids, *d.DeputyDivisionDirectorID)
	}
	return ids
}

// Portfolio groups funding allocations under a division
type Portfolio struct {
	shared.BaseEntity
	Name         string    `gorm:"type:varchar(200);not null" json:"name"`
	Abbreviation string    `gorm:"type:varchar(20);not null" json:"abbreviation"`
	DivisionID   uuid.UUID `gorm:"type:uuid;not null;index" json:"division_id"`
	Division     *Division `gorm:"foreignKey:DivisionID" json:"division,omitempty"`
}

// TableName specifies the table name for Portfolio
func (Portfolio) TableName() string {
	return "portfolios"
}

// CAN is a funding allocation a budget line draws against. Its portfolio's
// division is the approval authority for the lines funded by it.
type CAN struct {
	shared.BaseEntity
	Number      string     `gorm:"type:varchar(30);not null;uniqueIndex" json:"number"`
	Description string     `gorm:"type:varchar(500)" json:"description"`
	PortfolioID uuid.UUID  `gorm:"type:uuid;not null;index" json:"portfolio_id"`
	Portfolio   *Portfolio `gorm:"foreignKey:PortfolioID" json:"portfolio,omitempty"`
}

// TableName specifies the table name for CAN
func (CAN) TableName() string {
	return "cans"
}

// DivisionRepository provides access to divisions
type DivisionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Division, error)
	// FindByCAN resolves the managing division by walking CAN -> Portfolio -> Division
	FindByCAN(ctx context.Context, canID uuid.UUID) (*Division, error)
}

// CANRepository provides access to funding allocations
type CANRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*CAN, error)
}
