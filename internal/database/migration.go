package database

import (
	"fmt"

	"ai-financer/internal/models"

	"gorm.io/gorm"
)

// MigrateLocal creates the cache table on the device database.
func MigrateLocal(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.CacheEntry{}); err != nil {
		return fmt.Errorf("auto migrate local: %w", err)
	}
	return nil
}

// MigrateRemote creates account and document tables on the shared store.
func MigrateRemote(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Account{},
		&models.RecordDocument{},
	); err != nil {
		return fmt.Errorf("auto migrate remote: %w", err)
	}
	return nil
}
