package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/budget/backend/internal/domain/audit"
	"github.com/budget/backend/internal/infrastructure/config"
	"github.com/budget/backend/internal/infrastructure/logger"
	"github.com/budget/backend/internal/infrastructure/persistence/auditing"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database holds the database connection and provides methods for database
// operations. Audit capture callbacks are registered on the connection, so
// every write through it is subject to audit.
type Database struct {
	DB            *gorm.DB
	errorRecorder *auditing.ErrorRecorder
}

// NewDatabase creates a new database connection with audit capture enabled
func NewDatabase(cfg *config.DatabaseConfig, auditCfg config.AuditConfig, log *zap.Logger) (*Database, error) {
	dsn := cfg.DSN()
	gormLogger := logger.NewGormLogger(log, gormlogger.Warn)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewDatabaseWithConn(db, log, auditCfg.ErrorCaptureEnabled)
}

// NewDatabaseWithConn wraps an existing GORM connection, registering the
// audit capture callbacks on it. Failed commits are only recorded when
// errorCapture is set. Used by tests to run against sqlite.
func NewDatabaseWithConn(db *gorm.DB, log *zap.Logger, errorCapture bool) (*Database, error) {
	if err := auditing.RegisterCallbacks(db, log); err != nil {
		return nil, fmt.Errorf("failed to register audit callbacks: %w", err)
	}
	d := &Database{DB: db}
	if errorCapture {
		d.errorRecorder = auditing.NewErrorRecorder(db, log)
	}
	return d, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Ping()
}

// AuditedTransaction runs fn inside a transaction with a pre-change snapshot
// tracker attached to the context. If the transaction fails and a failing
// statement was captured, one ERROR audit record is persisted through an
// independent session after the rollback.
func (d *Database) AuditedTransaction(ctx context.Context, fn func(ctx context.Context, tx *gorm.DB) error) error {
	ctx = audit.WithTracker(ctx)

	err := d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, tx)
	})
	if err != nil && d.errorRecorder != nil {
		if tracker := audit.TrackerFromContext(ctx); tracker != nil {
			if failure := tracker.Failure(); failure != nil {
				d.errorRecorder.Record(ctx, failure, err)
			}
		}
	}
	return err
}
