package identity

import (
	"context"

	"github.com/budget/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// User is the minimal identity needed to resolve actors and approvers
type User struct {
	shared.BaseEntity
	Email      string     `gorm:"type:varchar(200);not null;uniqueIndex" json:"email"`
	FirstName  string     `gorm:"type:varchar(100)" json:"first_name"`
	LastName   string     `gorm:"type:varchar(100)" json:"last_name"`
	DivisionID *uuid.UUID `gorm:"type:uuid;index" json:"division_id,omitempty"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// FullName returns the user's display name
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// UserRepository provides access to users
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
}
