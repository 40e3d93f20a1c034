package auditing

import (
	"context"

	"github.com/budget/backend/internal/domain/audit"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrorRecorder persists ERROR audit records for failed commits. It writes
// through its own session, never the aborted transaction, so the record
// survives the rollback that triggered it.
type ErrorRecorder struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewErrorRecorder creates an ErrorRecorder on an independent session
func NewErrorRecorder(db *gorm.DB, log *zap.Logger) *ErrorRecorder {
	return &ErrorRecorder{
		db:     db.Session(&gorm.Session{NewDB: true, SkipHooks: true}),
		logger: log.Named("audit"),
	}
}

// Record persists one ERROR record describing the statement that aborted a
// transaction. Failures here are logged, not returned; the caller's error is
// the one that matters.
func (r *ErrorRecorder) Record(ctx context.Context, failure *audit.FailedStatement, wrapped error) {
	record := audit.NewErrorRecord(failure.SQL, failure.Parameters, failure.Err, wrapped)
	record.CreatedBy = actorID(ctx)
	record.ActingChangeRequestID = audit.ActingChangeRequestFromContext(ctx)

	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		r.logger.Error("failed to persist error audit record",
			zap.String("statement", failure.SQL),
			zap.Error(err))
	}
}
