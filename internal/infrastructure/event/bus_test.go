package event

import (
	"context"
	"errors"
	"testing"

	"github.com/budget/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingHandler struct {
	types    []string
	received []shared.DomainEvent
	err      error
	panics   bool
}

func (h *recordingHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	if h.panics {
		panic("handler exploded")
	}
	h.received = append(h.received, event)
	return h.err
}

func (h *recordingHandler) EventTypes() []string { return h.types }

func newEvent(eventType string) shared.DomainEvent {
	e := shared.NewBaseDomainEvent(eventType, "Test", uuid.New())
	return &e
}

func TestPublishDispatchesToSubscribers(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := &recordingHandler{types: []string{"thing.created"}}
	bus.Subscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), newEvent("thing.created")))
	require.NoError(t, bus.Publish(context.Background(), newEvent("thing.deleted")))

	require.Len(t, handler.received, 1)
	assert.Equal(t, "thing.created", handler.received[0].EventType())
}

func TestSubscribeWithExplicitTypes(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := &recordingHandler{types: []string{"thing.created"}}
	bus.Subscribe(handler, "thing.updated")

	require.NoError(t, bus.Publish(context.Background(), newEvent("thing.updated")))
	require.NoError(t, bus.Publish(context.Background(), newEvent("thing.created")))

	// Explicit subscription types override the handler's own list.
	require.Len(t, handler.received, 1)
	assert.Equal(t, "thing.updated", handler.received[0].EventType())
}

func TestHandlerErrorDoesNotStopDispatch(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	failing := &recordingHandler{types: []string{"thing.created"}, err: errors.New("boom")}
	healthy := &recordingHandler{types: []string{"thing.created"}}
	bus.Subscribe(failing)
	bus.Subscribe(healthy)

	require.NoError(t, bus.Publish(context.Background(), newEvent("thing.created")))
	assert.Len(t, healthy.received, 1)
}

func TestHandlerPanicIsContained(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(&recordingHandler{types: []string{"thing.created"}, panics: true})
	healthy := &recordingHandler{types: []string{"thing.created"}}
	bus.Subscribe(healthy)

	require.NotPanics(t, func() {
		_ = bus.Publish(context.Background(), newEvent("thing.created"))
	})
	assert.Len(t, healthy.received, 1)
}

func TestUnsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := &recordingHandler{types: []string{"thing.created"}}
	bus.Subscribe(handler)
	bus.Unsubscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), newEvent("thing.created")))
	assert.Empty(t, handler.received)
}
