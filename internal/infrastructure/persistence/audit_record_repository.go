package persistence

import (
	"context"

	"github.com/budget/backend/internal/domain/audit"
	"gorm.io/gorm"
)

// GormAuditRecordRepository implements audit.Repository using GORM. It is
// read-only; record writes happen inside the capture callbacks.
type GormAuditRecordRepository struct {
	db *gorm.DB
}

// NewGormAuditRecordRepository creates a new GormAuditRecordRepository
func NewGormAuditRecordRepository(db *gorm.DB) *GormAuditRecordRepository {
	return &GormAuditRecordRepository{db: db}
}

// FindAll finds audit records matching the filter, most recent first
func (r *GormAuditRecordRepository) FindAll(ctx context.Context, filter audit.RecordFilter) ([]audit.Record, int64, error) {
	query := r.db.WithContext(ctx).Model(&audit.Record{})

	if filter.ClassName != "" {
		query = query.Where("class_name = ?", filter.ClassName)
	}
	if filter.RowKey != "" {
		query = query.Where("row_key = ?", filter.RowKey)
	}
	if filter.EventType != nil {
		query = query.Where("event_type = ?", *filter.EventType)
	}
	if filter.AgreementID != nil {
		query = query.Where("agreement_id = ?", *filter.AgreementID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("created_at DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var records []audit.Record
	if err := query.Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// Ensure GormAuditRecordRepository implements audit.Repository
var _ audit.Repository = (*GormAuditRecordRepository)(nil)
