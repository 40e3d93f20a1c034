package notification

import (
	"context"
	"time"

	"github.com/budget/backend/internal/domain/notification"
	"github.com/budget/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// NotificationResponse represents a notification in API responses
type NotificationResponse struct {
	ID              string     `json:"id"`
	RecipientID     string     `json:"recipient_id"`
	Title           string     `json:"title"`
	Message         string     `json:"message"`
	IsRead          bool       `json:"is_read"`
	ChangeRequestID *string    `json:"change_request_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	Expires         *time.Time `json:"expires,omitempty"`
}

func toNotificationResponse(n *notification.Notification) NotificationResponse {
	resp := NotificationResponse{
		ID:          n.ID.String(),
		RecipientID: n.RecipientID.String(),
		Title:       n.Title,
		Message:     n.Message,
		IsRead:      n.IsRead,
		CreatedAt:   n.CreatedAt,
		Expires:     n.Expires,
	}
	if n.ChangeRequestID != nil {
		id := n.ChangeRequestID.String()
		resp.ChangeRequestID = &id
	}
	return resp
}

// Service handles reading and acknowledging a user's notifications
type Service struct {
	repo notification.Repository
}

// NewService creates a new notification Service
func NewService(repo notification.Repository) *Service {
	return &Service{repo: repo}
}

// ListForRecipient returns a user's notifications, skipping expired ones
func (s *Service) ListForRecipient(ctx context.Context, recipientID uuid.UUID, unreadOnly bool) ([]NotificationResponse, error) {
	notifications, err := s.repo.FindByRecipient(ctx, recipientID, unreadOnly)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	responses := make([]NotificationResponse, 0, len(notifications))
	for i := range notifications {
		if notifications[i].IsExpired(now) {
			continue
		}
		responses = append(responses, toNotificationResponse(&notifications[i]))
	}
	return responses, nil
}

// MarkRead acknowledges a notification. Only its recipient may do so.
func (s *Service) MarkRead(ctx context.Context, id uuid.UUID, recipientID uuid.UUID) (*NotificationResponse, error) {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.RecipientID != recipientID {
		return nil, shared.ErrForbidden
	}
	if !n.IsRead {
		n.MarkRead()
		if err := s.repo.Save(ctx, n); err != nil {
			return nil, err
		}
	}
	resp := toNotificationResponse(n)
	return &resp, nil
}
