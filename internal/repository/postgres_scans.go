package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/WankioM/property-qr/internal/models"
)

func (db *PostgresDB) InsertScanEvent(ctx context.Context, event *models.ScanEvent) error {
	if err := db.Conn.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to insert scan event: %w", err)
	}
	return nil
}

func (db *PostgresDB) ListScanEvents(ctx context.Context, propertyID string, since time.Time) ([]*models.ScanEvent, error) {
	var events []*models.ScanEvent
	if err := db.Conn.WithContext(ctx).
		Where("property_id = ? AND scanned_at >= ?", propertyID, since).
		Order("scanned_at DESC").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to list scan events: %w", err)
	}
	return events, nil
}

func (db *PostgresDB) scanEvents(ctx context.Context, filter models.ScanEventFilter) *gorm.DB {
	query := db.Conn.WithContext(ctx).Model(&models.ScanEvent{})
	if filter.PropertyID != "" {
		query = query.Where("property_id = ?", filter.PropertyID)
	}
	if !filter.Since.IsZero() {
		query = query.Where("scanned_at >= ?", filter.Since)
	}
	if !filter.Until.IsZero() {
		query = query.Where("scanned_at < ?", filter.Until)
	}
	return query
}

func (db *PostgresDB) CountScanEvents(ctx context.Context, filter models.ScanEventFilter) (int64, error) {
	var n int64
	if err := db.scanEvents(ctx, filter).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count scan events: %w", err)
	}
	return n, nil
}

func (db *PostgresDB) CountDistinctScanIPs(ctx context.Context, filter models.ScanEventFilter) (int64, error) {
	var n int64
	if err := db.scanEvents(ctx, filter).
		Where("ip_address <> ''").
		Distinct("ip_address").
		Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count unique scanners: %w", err)
	}
	return n, nil
}

func (db *PostgresDB) TopScannedProperties(ctx context.Context, filter models.ScanEventFilter, limit int) ([]models.PropertyPerformance, error) {
	filter.PropertyID = ""
	var rows []models.PropertyPerformance
	if err := db.scanEvents(ctx, filter).
		Select(`property_id,
			COUNT(*) AS total_scans,
			COUNT(DISTINCT NULLIF(ip_address, '')) AS unique_scans,
			AVG(CASE WHEN redirect_success THEN 100.0 ELSE 0 END) AS success_rate`).
		Group("property_id").
		Order("total_scans DESC, property_id").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to rank properties: %w", err)
	}
	return rows, nil
}

func (db *PostgresDB) DailyScanCounts(ctx context.Context, propertyID string, since time.Time) ([]models.DailyScanCount, error) {
	var rows []models.DailyScanCount
	if err := db.Conn.WithContext(ctx).Model(&models.ScanEvent{}).
		Select("to_char(scanned_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS date, COUNT(*) AS count").
		Where("property_id = ? AND scanned_at >= ?", propertyID, since).
		Group("date").
		Order("date").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count daily scans: %w", err)
	}
	return rows, nil
}

func (db *PostgresDB) DeleteScanEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := db.Conn.WithContext(ctx).Where("scanned_at < ?", cutoff).Delete(&models.ScanEvent{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete old scan events: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (db *PostgresDB) GetPropertyAnalytics(ctx context.Context, propertyID string) (*models.PropertyScanAnalytics, error) {
	var analytics models.PropertyScanAnalytics
	if err := db.Conn.WithContext(ctx).Where("property_id = ?", propertyID).First(&analytics).Error; err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("failed to get analytics for %s: %w", propertyID, models.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get analytics for %s: %w", propertyID, err)
	}
	return &analytics, nil
}

func (db *PostgresDB) SavePropertyAnalytics(ctx context.Context, analytics *models.PropertyScanAnalytics) error {
	if err := db.Conn.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(analytics).Error; err != nil {
		return fmt.Errorf("failed to save property analytics: %w", err)
	}
	return nil
}

func (db *PostgresDB) GetSystemAnalytics(ctx context.Context) (*models.SystemAnalytics, error) {
	var analytics models.SystemAnalytics
	if err := db.Conn.WithContext(ctx).Where("id = ?", models.SystemAnalyticsID).First(&analytics).Error; err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("failed to get system analytics: %w", models.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get system analytics: %w", err)
	}
	return &analytics, nil
}

func (db *PostgresDB) SaveSystemAnalytics(ctx context.Context, analytics *models.SystemAnalytics) error {
	analytics.ID = models.SystemAnalyticsID
	if err := db.Conn.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(analytics).Error; err != nil {
		return fmt.Errorf("failed to save system analytics: %w", err)
	}
	return nil
}
