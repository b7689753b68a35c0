package repository

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/WankioM/property-qr/internal/models"
)

// Migrations returns the ordered schema migrations.
func Migrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "20240101_init_schema",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(
					&models.Property{},
					&models.PropertyClick{},
					&models.QrCodeMetadata{},
					&models.ScanEvent{},
					&models.PropertyScanAnalytics{},
					&models.SystemAnalytics{},
				)
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(
					"system_analytics",
					"property_scan_analytics",
					"scan_events",
					"qr_code_metadata",
					"property_clicks",
					"properties",
				)
			},
		},
		{
			ID: "20240115_scan_event_indexes",
			Migrate: func(tx *gorm.DB) error {
				// composite index for per-property time window queries
				return tx.Exec(`
					CREATE INDEX IF NOT EXISTS idx_scan_events_property_scanned_at
					ON scan_events(property_id, scanned_at DESC)
				`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Exec(`DROP INDEX IF EXISTS idx_scan_events_property_scanned_at`).Error
			},
		},
		{
			ID: "20240120_qr_active_generated_at_index",
			Migrate: func(tx *gorm.DB) error {
				return tx.Exec(`
					CREATE INDEX IF NOT EXISTS idx_qr_code_metadata_active_generated_at
					ON qr_code_metadata(generated_at)
					WHERE is_active
				`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Exec(`DROP INDEX IF EXISTS idx_qr_code_metadata_active_generated_at`).Error
			},
		},
	}
}

// Migrate applies pending migrations.
func Migrate(db *gorm.DB) error {
	return gormigrate.New(db, gormigrate.DefaultOptions, Migrations()).Migrate()
}
