package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormLogger "gorm.io/gorm/logger"

	"github.com/WankioM/property-qr/internal/models"
	"github.com/WankioM/property-qr/pkg/logger"
)

const eligibleCondition = "(removed IS NULL OR removed = false) AND price > 0 AND cardinality(images) > 0"

type PostgresDB struct {
	logger *logger.Logger

	Conn *gorm.DB
}

var _ models.Repository = (*PostgresDB)(nil)

func NewPostgresDB(user, password, dbname, host string, port int, logger *logger.Logger) (*PostgresDB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
		host, user, password, dbname, port)

	// Configure GORM logger to suppress "record not found" messages
	gormLogger := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:  gormLogger,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	logger.Info("Successfully connected to PostgreSQL!")
	return &PostgresDB{Conn: db, logger: logger}, nil
}

func (db *PostgresDB) Ping(ctx context.Context) error {
	sqlDB, err := db.Conn.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (db *PostgresDB) Close() error {
	sqlDB, err := db.Conn.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	return sqlDB.Close()
}

func notFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// Properties

func (db *PostgresDB) GetProperty(ctx context.Context, id string) (*models.Property, error) {
	var property models.Property
	if err := db.Conn.WithContext(ctx).Where("id = ?", id).First(&property).Error; err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("failed to get property %s: %w", id, models.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get property %s: %w", id, err)
	}
	return &property, nil
}

func (db *PostgresDB) ListEligibleProperties(ctx context.Context, limit int) ([]*models.Property, error) {
	var properties []*models.Property
	query := db.Conn.WithContext(ctx).Where(eligibleCondition).Order("id")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&properties).Error; err != nil {
		return nil, fmt.Errorf("failed to list eligible properties: %w", err)
	}
	return properties, nil
}

func (db *PostgresDB) GetPropertyNames(ctx context.Context, ids []string) (map[string]string, error) {
	var rows []struct {
		ID           string
		PropertyName string
	}
	if err := db.Conn.WithContext(ctx).Model(&models.Property{}).
		Select("id, property_name").Where("id IN ?", ids).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get property names: %w", err)
	}
	names := make(map[string]string, len(rows))
	for _, r := range rows {
		names[r.ID] = r.PropertyName
	}
	return names, nil
}

func (db *PostgresDB) GetPropertyStats(ctx context.Context) (*models.PropertyStats, error) {
	stats := &models.PropertyStats{}
	counts := []struct {
		dest  *int64
		where string
	}{
		{&stats.Total, ""},
		{&stats.Active, "removed IS NULL OR removed = false"},
		{&stats.Verified, "is_verified = true"},
		{&stats.WithImages, "cardinality(images) > 0"},
		{&stats.Eligible, eligibleCondition},
	}
	for _, c := range counts {
		query := db.Conn.WithContext(ctx).Model(&models.Property{})
		if c.where != "" {
			query = query.Where(c.where)
		}
		if err := query.Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("failed to count properties: %w", err)
		}
	}
	return stats, nil
}

func (db *PostgresDB) IncrementPropertyClicks(ctx context.Context, id string, at time.Time) error {
	return db.Conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Property{}).Where("id = ?", id).
			UpdateColumn("clicks", gorm.Expr("clicks + 1"))
		if res.Error != nil {
			return fmt.Errorf("failed to increment clicks: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("failed to increment clicks for %s: %w", id, models.ErrRecordNotFound)
		}
		if err := tx.Create(&models.PropertyClick{PropertyID: id, ClickedAt: at}).Error; err != nil {
			return fmt.Errorf("failed to record click: %w", err)
		}
		return nil
	})
}

// QR records

func (db *PostgresDB) GetQrByPropertyID(ctx context.Context, propertyID string) (*models.QrCodeMetadata, error) {
	var qr models.QrCodeMetadata
	if err := db.Conn.WithContext(ctx).Where("property_id = ?", propertyID).First(&qr).Error; err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("failed to get qr code for %s: %w", propertyID, models.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get qr code for %s: %w", propertyID, err)
	}
	return &qr, nil
}

func (db *PostgresDB) SaveQr(ctx context.Context, qr *models.QrCodeMetadata, expectedVersion int) error {
	conn := db.Conn.WithContext(ctx)
	if expectedVersion == 0 {
		res := conn.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "property_id"}},
			DoNothing: true,
		}).Create(qr)
		if res.Error != nil {
			return fmt.Errorf("failed to create qr code: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("failed to create qr code for %s: %w", qr.PropertyID, models.ErrVersionConflict)
		}
		return nil
	}

	res := conn.Model(&models.QrCodeMetadata{}).
		Where("property_id = ? AND qr_version = ?", qr.PropertyID, expectedVersion).
		Select("*").Omit("id", "property_id", "generated_at").
		Updates(qr)
	if res.Error != nil {
		return fmt.Errorf("failed to update qr code: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("failed to update qr code for %s: %w", qr.PropertyID, models.ErrVersionConflict)
	}
	return nil
}

func (db *PostgresDB) DeleteQr(ctx context.Context, propertyID string) (bool, error) {
	res := db.Conn.WithContext(ctx).Where("property_id = ?", propertyID).Delete(&models.QrCodeMetadata{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete qr code: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (db *PostgresDB) DeactivateQr(ctx context.Context, propertyID string, at time.Time) (bool, error) {
	res := db.Conn.WithContext(ctx).Model(&models.QrCodeMetadata{}).
		Where("property_id = ?", propertyID).
		Updates(map[string]interface{}{"is_active": false, "last_updated": at})
	if res.Error != nil {
		return false, fmt.Errorf("failed to deactivate qr code: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (db *PostgresDB) ListQrs(ctx context.Context, filter models.QrListFilter) ([]*models.QrCodeMetadata, error) {
	query := db.Conn.WithContext(ctx).Model(&models.QrCodeMetadata{})
	if filter.PropertyID != "" {
		query = query.Where("property_id = ?", filter.PropertyID)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var qrs []*models.QrCodeMetadata
	if err := query.Order("generated_at DESC, property_id").Offset(filter.Skip).Find(&qrs).Error; err != nil {
		return nil, fmt.Errorf("failed to list qr codes: %w", err)
	}
	return qrs, nil
}

func (db *PostgresDB) ListQrPropertyIDsGeneratedBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	var ids []string
	if err := db.Conn.WithContext(ctx).Model(&models.QrCodeMetadata{}).
		Where("is_active = ? AND generated_at < ?", true, cutoff).
		Order("property_id").
		Pluck("property_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list expired qr codes: %w", err)
	}
	return ids, nil
}

func (db *PostgresDB) ListQrPropertyIDsUpdatedBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	var ids []string
	if err := db.Conn.WithContext(ctx).Model(&models.QrCodeMetadata{}).
		Where("is_active = ? AND generated_at < ? AND last_updated < ?", true, cutoff, cutoff).
		Order("property_id").
		Pluck("property_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list stale qr codes: %w", err)
	}
	return ids, nil
}

func (db *PostgresDB) ListQrPropertyIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := db.Conn.WithContext(ctx).Model(&models.QrCodeMetadata{}).
		Order("property_id").Pluck("property_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list qr property ids: %w", err)
	}
	return ids, nil
}

func (db *PostgresDB) CountQrs(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	query := db.Conn.WithContext(ctx).Model(&models.QrCodeMetadata{})
	if !since.IsZero() {
		query = query.Where("generated_at >= ?", since)
	}
	if err := query.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count qr codes: %w", err)
	}
	return n, nil
}
