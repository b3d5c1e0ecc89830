package database

import (
	"os"
	"path/filepath"

	"github.com/procurehub/core/internal/database/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Initialize creates and returns a database connection
func Initialize(dbPath string) (*gorm.DB, error) {
	// Ensure the directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	// Configure GORM logger
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	// Open SQLite database
	db, err := gorm.Open(sqlite.Open(dbPath), gormConfig)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		return nil, err
	}

	return db, nil
}

// runMigrations runs all database migrations
func runMigrations(db *gorm.DB) error {
	// Auto-migrate all models
	if err := db.AutoMigrate(
		&models.RFP{},
		&models.Vendor{},
		&models.RFPVendor{},
		&models.Proposal{},
		&models.InboundEmail{},
		&models.Log{},
	); err != nil {
		return err
	}

	// Backfill statuses for rows created before the status columns existed
	db.Model(&models.RFP{}).Where("status = '' OR status IS NULL").Update("status", string(models.RFPStatusDraft))
	db.Model(&models.Proposal{}).Where("status = '' OR status IS NULL").Update("status", string(models.ProposalStatusReceived))
	db.Model(&models.RFPVendor{}).Where("status = '' OR status IS NULL").Update("status", string(models.RFPVendorStatusPending))

	// Vendor emails are matched case-insensitively; normalize stored values
	db.Exec("UPDATE vendors SET email = LOWER(email) WHERE email != LOWER(email)")

	return nil
}
