package persistence

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// rowExists reports whether a row with the given primary key is present.
// Repositories use it to choose between an insert and an update explicitly:
// GORM's Save decides by whether the primary key is zero, and our entities
// carry their UUID from construction, so a fresh entity would be routed into
// an update and its insert fallback does not run the audit capture callbacks.
func rowExists(db *gorm.DB, model any, id uuid.UUID) (bool, error) {
	var count int64
	if err := db.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
