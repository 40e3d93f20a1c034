package handler

import (
	notificationapp "github.com/budget/backend/internal/application/notification"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// NotificationHandler handles a user's notification endpoints
type NotificationHandler struct {
	BaseHandler
	notificationService *notificationapp.Service
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notificationService *notificationapp.Service) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// List returns the calling user's notifications, newest first
func (h *NotificationHandler) List(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	unreadOnly := c.Query("unread_only") == "true"

	notifications, err := h.notificationService.ListForRecipient(c.Request.Context(), userID, unreadOnly)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, notifications)
}

// MarkRead acknowledges one of the calling user's notifications
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid notification ID format")
		return
	}

	n, err := h.notificationService.MarkRead(c.Request.Context(), id, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, n)
}
