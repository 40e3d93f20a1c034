package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerKeepsEarliestSnapshot(t *testing.T) {
	tracker := NewTracker()
	e := &stubEntity{class: "Thing", rowKey: "row-1", fields: map[string]any{"name": "first"}}

	tracker.Track(e)
	e.fields = map[string]any{"name": "second"}
	tracker.Track(e)

	snap, ok := tracker.SnapshotFor("Thing", "row-1")
	require.True(t, ok)
	assert.Equal(t, "first", snap.Fields["name"])
}

func TestTrackerSnapshotForUnknownRow(t *testing.T) {
	tracker := NewTracker()
	_, ok := tracker.SnapshotFor("Thing", "missing")
	assert.False(t, ok)
}

func TestTrackerKeepsFirstFailure(t *testing.T) {
	tracker := NewTracker()

	tracker.RecordFailure("UPDATE things SET x = ?", "[1]", errors.New("constraint violation"))
	tracker.RecordFailure("UPDATE things SET y = ?", "[2]", errors.New("transaction aborted"))

	failure := tracker.Failure()
	require.NotNil(t, failure)
	assert.Equal(t, "UPDATE things SET x = ?", failure.SQL)
	assert.EqualError(t, failure.Err, "constraint violation")
}

func TestWithTrackerAttachesOnce(t *testing.T) {
	ctx := WithTracker(context.Background())
	tracker := TrackerFromContext(ctx)
	require.NotNil(t, tracker)

	// A second attach keeps the existing tracker.
	assert.Same(t, tracker, TrackerFromContext(WithTracker(ctx)))
}

func TestTrackLoadedWithoutTrackerIsNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		TrackLoaded(context.Background(), &stubEntity{class: "Thing", rowKey: "r", fields: map[string]any{}})
	})
}

func TestActingChangeRequestContext(t *testing.T) {
	assert.Nil(t, ActingChangeRequestFromContext(context.Background()))

	id := uuid.New()
	ctx := WithActingChangeRequest(context.Background(), id)
	got := ActingChangeRequestFromContext(ctx)
	require.NotNil(t, got)
	assert.Equal(t, id, *got)
}
