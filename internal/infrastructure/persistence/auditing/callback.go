package auditing

import (
	"context"
	"fmt"
	"reflect"

	"github.com/budget/backend/internal/domain/audit"
	"github.com/budget/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Callbacks provides GORM callback hooks that turn entity flushes into audit
// records. UPDATED and DELETED records are staged before the write executes,
// diffed against the snapshot taken when the row was loaded; NEW records are
// staged after creation so generated keys are present. Staged records ride the
// surrounding transaction and commit or roll back with it.
type Callbacks struct {
	logger *zap.Logger
}

// RegisterCallbacks registers audit capture callbacks with GORM
func RegisterCallbacks(db *gorm.DB, log *zap.Logger) error {
	c := &Callbacks{logger: log.Named("audit")}

	if err := db.Callback().Create().After("gorm:create").Register("audit:after_create", c.afterCreate); err != nil {
		return err
	}
	if err := db.Callback().Update().Before("gorm:update").Register("audit:before_update", c.beforeUpdate); err != nil {
		return err
	}
	if err := db.Callback().Delete().Before("gorm:delete").Register("audit:before_delete", c.beforeDelete); err != nil {
		return err
	}
	if err := db.Callback().Update().After("gorm:update").Register("audit:capture_update_error", c.stashFailure); err != nil {
		return err
	}
	if err := db.Callback().Delete().After("gorm:delete").Register("audit:capture_delete_error", c.stashFailure); err != nil {
		return err
	}
	return nil
}

// skip reports whether the statement must not produce audit records. Audit
// records themselves are exempt, as is any session opened with SkipHooks
// (which is how staged records are written).
func (c *Callbacks) skip(db *gorm.DB) bool {
	if db.Statement == nil || db.Statement.SkipHooks {
		return true
	}
	if db.Statement.Table == (audit.Record{}).TableName() {
		return true
	}
	switch db.Statement.Model.(type) {
	case *audit.Record, audit.Record, *[]audit.Record, []audit.Record:
		return true
	}
	return false
}

func (c *Callbacks) afterCreate(db *gorm.DB) {
	if c.skip(db) {
		return
	}
	if db.Error != nil {
		c.recordFailure(db)
		return
	}
	c.eachAuditable(db, func(e audit.Auditable) {
		current := audit.TakeSnapshot(e)
		diff := audit.BuildDiff(nil, &current)
		if !diff.HasChanges() {
			return
		}
		c.stage(db, e, audit.NewRecord(audit.EventTypeNew, current.ClassName, diff))
	})
}

func (c *Callbacks) beforeUpdate(db *gorm.DB) {
	if c.skip(db) || db.Error != nil {
		return
	}
	tracker := audit.TrackerFromContext(db.Statement.Context)
	c.eachAuditable(db, func(e audit.Auditable) {
		current := audit.TakeSnapshot(e)
		var old *audit.Snapshot
		if tracker != nil {
			if snap, ok := tracker.SnapshotFor(current.ClassName, current.RowKey); ok {
				old = &snap
			}
		}
		if old == nil {
			// Without a load-time snapshot there is nothing to diff against.
			// Repositories snapshot every loaded row, so this signals a write
			// that bypassed them.
			c.logger.Warn("no pre-change snapshot for updated row",
				zap.String("class_name", current.ClassName),
				zap.String("row_key", current.RowKey))
			return
		}
		diff := audit.BuildDiff(old, &current)
		if !diff.HasChanges() {
			return
		}
		c.stage(db, e, audit.NewRecord(audit.EventTypeUpdated, current.ClassName, diff))
	})
}

func (c *Callbacks) beforeDelete(db *gorm.DB) {
	if c.skip(db) || db.Error != nil {
		return
	}
	tracker := audit.TrackerFromContext(db.Statement.Context)
	c.eachAuditable(db, func(e audit.Auditable) {
		// Delete statements often carry only the primary key, so the tracked
		// snapshot is the authoritative pre-delete state.
		old := audit.TakeSnapshot(e)
		if tracker != nil {
			if snap, ok := tracker.SnapshotFor(old.ClassName, old.RowKey); ok {
				old = snap
			}
		}
		diff := audit.BuildDiff(&old, nil)
		c.stage(db, e, audit.NewRecord(audit.EventTypeDeleted, old.ClassName, diff))
	})
}

// stashFailure records the failing statement into the tracker so it can be
// persisted after the aborted transaction has unwound
func (c *Callbacks) stashFailure(db *gorm.DB) {
	if c.skip(db) || db.Error == nil {
		return
	}
	c.recordFailure(db)
}

func (c *Callbacks) recordFailure(db *gorm.DB) {
	tracker := audit.TrackerFromContext(db.Statement.Context)
	if tracker == nil {
		return
	}
	tracker.RecordFailure(
		db.Statement.SQL.String(),
		fmt.Sprintf("%v", db.Statement.Vars),
		db.Error,
	)
}

// eachAuditable visits every auditable entity in the statement, handling both
// single-struct and slice destinations. A panic while snapshotting one entity
// is contained so it cannot take the whole flush down with it.
func (c *Callbacks) eachAuditable(db *gorm.DB, fn func(e audit.Auditable)) {
	visit := func(v reflect.Value) {
		if !v.CanAddr() {
			return
		}
		e, ok := v.Addr().Interface().(audit.Auditable)
		if !ok {
			return
		}
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("audit capture panicked",
					zap.String("class_name", e.AuditClassName()),
					zap.Any("panic", r))
			}
		}()
		fn(e)
	}

	rv := db.Statement.ReflectValue
	switch rv.Kind() {
	case reflect.Struct:
		visit(rv)
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			elem := rv.Index(i)
			for elem.Kind() == reflect.Pointer {
				elem = elem.Elem()
			}
			if elem.Kind() == reflect.Struct {
				visit(elem)
			}
		}
	}
}

// stage writes one audit record through the current transaction. A staging
// failure aborts the statement; audit records are not best-effort.
func (c *Callbacks) stage(db *gorm.DB, e audit.Auditable, record *audit.Record) {
	ctx := db.Statement.Context
	record.CreatedBy = actorID(ctx)
	record.ActingChangeRequestID = audit.ActingChangeRequestFromContext(ctx)
	if scoped, ok := e.(audit.AgreementScoped); ok {
		record.AgreementID = scoped.AuditAgreementID()
	}

	tx := db.Session(&gorm.Session{NewDB: true, SkipHooks: true})
	if err := tx.Create(record).Error; err != nil {
		_ = db.AddError(fmt.Errorf("staging audit record: %w", err))
	}
}

// actorID resolves the acting user from the request context, nil when the
// write happened outside an authenticated request
func actorID(ctx context.Context) *uuid.UUID {
	raw := logger.GetUserID(ctx)
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}
