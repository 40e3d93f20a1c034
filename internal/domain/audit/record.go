package audit

import (
	"context"

	"github.com/budget/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// EventType classifies what happened to the audited entity within a transaction
type EventType string

const (
	EventTypeNew     EventType = "NEW"
	EventTypeUpdated EventType = "UPDATED"
	EventTypeDeleted EventType = "DELETED"
	EventTypeError   EventType = "ERROR"
)

// IsValid checks if the event type is a known value
func (t EventType) IsValid() bool {
	switch t {
	case EventTypeNew, EventTypeUpdated, EventTypeDeleted, EventTypeError:
		return true
	}
	return false
}

// String returns the string representation of EventType
func (t EventType) String() string {
	return string(t)
}

// Auditable is the capability interface every audited entity implements.
// The snapshot is a normalized, transport-safe view of the entity's scalar
// attributes; two snapshots of the same row are diffed to produce one record.
type Auditable interface {
	AuditClassName() string
	AuditRowKey() string
	AuditSnapshot() map[string]any
}

// CollectionOwner is implemented by entities whose relationship collections
// are audited as added/removed member sets.
type CollectionOwner interface {
	AuditCollections() map[string][]any
}

// AgreementScoped is implemented by entities that carry an agreement backlink,
// copied onto their audit records for fast filtering by agreement.
type AgreementScoped interface {
	AuditAgreementID() *uuid.UUID
}

// Record is an append-only snapshot of one entity's change within one
// transaction. It is never updated or deleted after creation.
type Record struct {
	shared.BaseEntity
	EventType             EventType      `gorm:"type:varchar(16);not null;index" json:"event_type"`
	ClassName             string         `gorm:"type:varchar(128);not null;index:idx_audit_class_row" json:"class_name"`
	RowKey                string         `gorm:"type:varchar(128);not null;index:idx_audit_class_row" json:"row_key"`
	Original              map[string]any `gorm:"serializer:json" json:"original"`
	Changes               map[string]any `gorm:"serializer:json" json:"changes"`
	CreatedBy             *uuid.UUID     `gorm:"type:uuid" json:"created_by,omitempty"`
	AgreementID           *uuid.UUID     `gorm:"type:uuid;index" json:"agreement_id,omitempty"`
	ActingChangeRequestID *uuid.UUID     `gorm:"type:uuid" json:"acting_change_request_id,omitempty"`
}

// TableName specifies the table name for Record
func (Record) TableName() string {
	return "audit_records"
}

// NewRecord creates an audit record from a computed diff. The caller must
// have checked DiffResult.HasChanges; a record without changes is a bug.
func NewRecord(event EventType, className string, diff DiffResult) *Record {
	return &Record{
		BaseEntity: shared.NewBaseEntity(),
		EventType:  event,
		ClassName:  className,
		RowKey:     diff.RowKey,
		Original:   diff.Original,
		Changes:    diff.ChangesMap(),
	}
}

// NewErrorRecord creates the record persisted by the error-capture hook when
// a commit fails. It carries the failing statement, its parameters and both
// the original and wrapping error descriptions.
func NewErrorRecord(statement, parameters string, cause, wrapped error) *Record {
	changes := map[string]any{
		"statement":  statement,
		"parameters": parameters,
	}
	if cause != nil {
		changes["error"] = cause.Error()
	}
	if wrapped != nil && wrapped != cause {
		changes["wrapped_error"] = wrapped.Error()
	}
	return &Record{
		BaseEntity: shared.NewBaseEntity(),
		EventType:  EventTypeError,
		ClassName:  "transaction",
		Changes:    changes,
	}
}

// RecordFilter narrows audit record queries
type RecordFilter struct {
	ClassName   string
	RowKey      string
	EventType   *EventType
	AgreementID *uuid.UUID
	Limit       int
	Offset      int
}

// Repository provides read access to persisted audit records. Writes happen
// exclusively through the capture hooks.
type Repository interface {
	FindAll(ctx context.Context, filter RecordFilter) ([]Record, int64, error)
}
