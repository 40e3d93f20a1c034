package notification

import (
	"context"
	"time"

	"github.com/budget/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Notification is a user-facing message, optionally tied to a change request
type Notification struct {
	shared.BaseEntity
	RecipientID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"recipient_id"`
	Title           string     `gorm:"type:varchar(200);not null" json:"title"`
	Message         string     `gorm:"type:text;not null" json:"message"`
	IsRead          bool       `gorm:"not null;default:false" json:"is_read"`
	Expires         *time.Time `json:"expires,omitempty"`
	ChangeRequestID *uuid.UUID `gorm:"type:uuid;index" json:"change_request_id,omitempty"`
}

// TableName specifies the table name for Notification
func (Notification) TableName() string {
	return "notifications"
}

// New creates a new unread notification
func New(recipientID uuid.UUID, title, message string) (*Notification, error) {
	if recipientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_RECIPIENT", "Recipient ID cannot be empty")
	}
	if title == "" {
		return nil, shared.NewDomainError("INVALID_TITLE", "Notification title cannot be empty")
	}
	return &Notification{
		BaseEntity:  shared.NewBaseEntity(),
		RecipientID: recipientID,
		Title:       title,
		Message:     message,
	}, nil
}

// LinkChangeRequest ties the notification to the change request it concerns
func (n *Notification) LinkChangeRequest(id uuid.UUID) {
	n.ChangeRequestID = &id
}

// MarkRead flags the notification as read
func (n *Notification) MarkRead() {
	n.IsRead = true
	n.UpdatedAt = time.Now()
}

// IsExpired reports whether the notification has passed its expiry
func (n *Notification) IsExpired(now time.Time) bool {
	return n.Expires != nil && now.After(*n.Expires)
}

// AuditClassName identifies the entity class on audit records
func (n *Notification) AuditClassName() string {
	return "Notification"
}

// AuditRowKey returns the stringified primary key
func (n *Notification) AuditRowKey() string {
	return n.ID.String()
}

// AuditSnapshot returns the notification's audited scalar attributes
func (n *Notification) AuditSnapshot() map[string]any {
	return map[string]any{
		"recipient_id":      n.RecipientID,
		"title":             n.Title,
		"message":           n.Message,
		"is_read":           n.IsRead,
		"expires":           n.Expires,
		"change_request_id": n.ChangeRequestID,
	}
}

// Repository provides access to notifications
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Notification, error)
	FindByRecipient(ctx context.Context, recipientID uuid.UUID, unreadOnly bool) ([]Notification, error)
	Save(ctx context.Context, n *Notification) error
}
