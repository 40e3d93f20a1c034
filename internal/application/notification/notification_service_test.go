package notification

import (
	"context"
	"testing"
	"time"

	"github.com/budget/backend/internal/domain/notification"
	"github.com/budget/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeNotification(t *testing.T, repo *fakeNotificationRepo, recipientID uuid.UUID) *notification.Notification {
	t.Helper()
	n, err := notification.New(recipientID, "Approval Required", "msg")
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), n))
	return n
}

func TestListForRecipientSkipsExpired(t *testing.T) {
	repo := newFakeNotificationRepo()
	svc := NewService(repo)
	recipient := uuid.New()

	fresh := storeNotification(t, repo, recipient)
	expired := storeNotification(t, repo, recipient)
	past := time.Now().Add(-time.Hour)
	expired.Expires = &past
	storeNotification(t, repo, uuid.New())

	responses, err := svc.ListForRecipient(context.Background(), recipient, false)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Equal(t, fresh.ID.String(), responses[0].ID)
}

func TestListForRecipientUnreadOnly(t *testing.T) {
	repo := newFakeNotificationRepo()
	svc := NewService(repo)
	recipient := uuid.New()

	read := storeNotification(t, repo, recipient)
	read.MarkRead()
	unread := storeNotification(t, repo, recipient)

	responses, err := svc.ListForRecipient(context.Background(), recipient, true)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Equal(t, unread.ID.String(), responses[0].ID)
}

func TestMarkRead(t *testing.T) {
	repo := newFakeNotificationRepo()
	svc := NewService(repo)
	recipient := uuid.New()
	n := storeNotification(t, repo, recipient)
	saves := len(repo.saved)

	resp, err := svc.MarkRead(context.Background(), n.ID, recipient)
	require.NoError(t, err)
	assert.True(t, resp.IsRead)
	assert.True(t, n.IsRead)
	assert.Len(t, repo.saved, saves+1)

	// Acknowledging again is a no-op, not an error.
	_, err = svc.MarkRead(context.Background(), n.ID, recipient)
	require.NoError(t, err)
	assert.Len(t, repo.saved, saves+1)
}

func TestMarkReadOnlyByRecipient(t *testing.T) {
	repo := newFakeNotificationRepo()
	svc := NewService(repo)
	n := storeNotification(t, repo, uuid.New())

	_, err := svc.MarkRead(context.Background(), n.ID, uuid.New())
	assert.ErrorIs(t, err, shared.ErrForbidden)
	assert.False(t, n.IsRead)
}

func TestMarkReadUnknownNotification(t *testing.T) {
	svc := NewService(newFakeNotificationRepo())
	_, err := svc.MarkRead(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
