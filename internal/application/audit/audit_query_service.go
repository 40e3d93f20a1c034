package audit

import (
	"context"
	"time"

	"github.com/budget/backend/internal/domain/audit"
	"github.com/budget/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// QueryFilter narrows audit history lookups
type QueryFilter struct {
	ClassName   string
	RowKey      string
	EventType   *audit.EventType
	AgreementID *uuid.UUID
	Page        int
	PageSize    int
}

// RecordResponse represents an audit record in API responses
type RecordResponse struct {
	ID                    string         `json:"id"`
	EventType             string         `json:"event_type"`
	ClassName             string         `json:"class_name"`
	RowKey                string         `json:"row_key"`
	Original              map[string]any `json:"original,omitempty"`
	Changes               map[string]any `json:"changes,omitempty"`
	CreatedBy             *string        `json:"created_by,omitempty"`
	AgreementID           *string        `json:"agreement_id,omitempty"`
	ActingChangeRequestID *string        `json:"acting_change_request_id,omitempty"`
	CreatedAt             time.Time      `json:"created_at"`
}

func toRecordResponse(record *audit.Record) RecordResponse {
	resp := RecordResponse{
		ID:        record.ID.String(),
		EventType: record.EventType.String(),
		ClassName: record.ClassName,
		RowKey:    record.RowKey,
		Original:  record.Original,
		Changes:   record.Changes,
		CreatedAt: record.CreatedAt,
	}
	if record.CreatedBy != nil {
		id := record.CreatedBy.String()
		resp.CreatedBy = &id
	}
	if record.AgreementID != nil {
		id := record.AgreementID.String()
		resp.AgreementID = &id
	}
	if record.ActingChangeRequestID != nil {
		id := record.ActingChangeRequestID.String()
		resp.ActingChangeRequestID = &id
	}
	return resp
}

// QueryService provides read access to the audit history
type QueryService struct {
	recordRepo audit.Repository
}

// NewQueryService creates a new QueryService
func NewQueryService(recordRepo audit.Repository) *QueryService {
	return &QueryService{recordRepo: recordRepo}
}

// Find retrieves audit records matching the filter. A query that matches
// nothing is an error; history lookups are made against rows the caller
// believes exist.
func (s *QueryService) Find(ctx context.Context, filter QueryFilter) ([]RecordResponse, int64, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	domainFilter := audit.RecordFilter{
		ClassName:   filter.ClassName,
		RowKey:      filter.RowKey,
		EventType:   filter.EventType,
		AgreementID: filter.AgreementID,
		Limit:       pageSize,
		Offset:      (page - 1) * pageSize,
	}

	records, total, err := s.recordRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	if len(records) == 0 {
		return nil, 0, shared.ErrNotFound
	}
	responses := make([]RecordResponse, 0, len(records))
	for i := range records {
		responses = append(responses, toRecordResponse(&records[i]))
	}
	return responses, total, nil
}
