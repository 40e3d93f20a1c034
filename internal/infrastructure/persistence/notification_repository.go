package persistence

import (
	"context"
	"errors"

	"github.com/budget/backend/internal/domain/audit"
	"github.com/budget/backend/internal/domain/notification"
	"github.com/budget/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormNotificationRepository implements notification.Repository using GORM
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewGormNotificationRepository creates a new GormNotificationRepository
func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// FindByID finds a notification by its ID
func (r *GormNotificationRepository) FindByID(ctx context.Context, id uuid.UUID) (*notification.Notification, error) {
	var n notification.Notification
	if err := r.db.WithContext(ctx).First(&n, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	audit.TrackLoaded(ctx, &n)
	return &n, nil
}

// FindByRecipient finds a user's notifications, newest first
func (r *GormNotificationRepository) FindByRecipient(ctx context.Context, recipientID uuid.UUID, unreadOnly bool) ([]notification.Notification, error) {
	query := r.db.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC")
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var notifications []notification.Notification
	if err := query.Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

// Save creates or updates a notification
func (r *GormNotificationRepository) Save(ctx context.Context, n *notification.Notification) error {
	db := r.db.WithContext(ctx)
	exists, err := rowExists(db, &notification.Notification{}, n.ID)
	if err != nil {
		return err
	}
	if !exists {
		return db.Create(n).Error
	}
	return db.Save(n).Error
}

// Ensure GormNotificationRepository implements notification.Repository
var _ notification.Repository = (*GormNotificationRepository)(nil)
