package audit

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type contextKey int

const (
	trackerKey contextKey = iota
	actingChangeRequestKey
)

// FailedStatement describes the database statement that aborted a commit.
// It is captured inside the failing transaction and persisted afterwards
// through an independent session.
type FailedStatement struct {
	SQL        string
	Parameters string
	Err        error
}

// Tracker records pre-change snapshots of entities loaded within one request
// so the capture hooks can diff against them at flush time. One tracker
// belongs to exactly one request-scoped unit of work; it is not shared across
// requests.
type Tracker struct {
	mu        sync.Mutex
	snapshots map[string]Snapshot
	failure   *FailedStatement
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{snapshots: make(map[string]Snapshot)}
}

func snapshotKey(className, rowKey string) string {
	return className + "|" + rowKey
}

// Track stores the entity's current state as its pre-change snapshot.
// Tracking the same row twice keeps the earliest snapshot: the diff must be
// computed against the state first observed in this unit of work.
func (t *Tracker) Track(e Auditable) {
	snap := TakeSnapshot(e)
	t.mu.Lock()
	defer t.mu.Unlock()
	key := snapshotKey(snap.ClassName, snap.RowKey)
	if _, exists := t.snapshots[key]; exists {
		return
	}
	t.snapshots[key] = snap
}

// SnapshotFor returns the pre-change snapshot for a row, if one was tracked
func (t *Tracker) SnapshotFor(className, rowKey string) (Snapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	snap, ok := t.snapshots[snapshotKey(className, rowKey)]
	return snap, ok
}

// RecordFailure stores the statement that aborted the transaction. Only the
// first failure is kept; follow-up errors on an already-aborted transaction
// add no information.
func (t *Tracker) RecordFailure(sql, parameters string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.failure != nil {
		return
	}
	t.failure = &FailedStatement{SQL: sql, Parameters: parameters, Err: err}
}

// Failure returns the captured failing statement, if any
func (t *Tracker) Failure() *FailedStatement {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failure
}

// WithTracker attaches a fresh tracker to the context unless one is present
func WithTracker(ctx context.Context) context.Context {
	if TrackerFromContext(ctx) != nil {
		return ctx
	}
	return context.WithValue(ctx, trackerKey, NewTracker())
}

// TrackerFromContext retrieves the tracker from context, nil when absent
func TrackerFromContext(ctx context.Context) *Tracker {
	if ctx == nil {
		return nil
	}
	if tracker, ok := ctx.Value(trackerKey).(*Tracker); ok {
		return tracker
	}
	return nil
}

// TrackLoaded snapshots a freshly loaded entity into the context's tracker.
// Without a tracker it is a no-op, so repositories can call it unconditionally.
func TrackLoaded(ctx context.Context, e Auditable) {
	if tracker := TrackerFromContext(ctx); tracker != nil {
		tracker.Track(e)
	}
}

// WithActingChangeRequest tags the context so audit records produced by the
// next flush can be correlated to the change request being applied
func WithActingChangeRequest(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, actingChangeRequestKey, id)
}

// ActingChangeRequestFromContext returns the correlation id, nil when absent
func ActingChangeRequestFromContext(ctx context.Context) *uuid.UUID {
	if ctx == nil {
		return nil
	}
	if id, ok := ctx.Value(actingChangeRequestKey).(uuid.UUID); ok {
		return &id
	}
	return nil
}
