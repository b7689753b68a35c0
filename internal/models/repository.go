package models

import (
	"context"
	"time"
)

// PropertyRepository reads listings and records clicks.
type PropertyRepository interface {
	GetProperty(ctx context.Context, id string) (*Property, error)
	// ListEligibleProperties returns listings that can carry a QR code.
	// A limit of 0 means no limit.
	ListEligibleProperties(ctx context.Context, limit int) ([]*Property, error)
	GetPropertyNames(ctx context.Context, ids []string) (map[string]string, error)
	GetPropertyStats(ctx context.Context) (*PropertyStats, error)
	IncrementPropertyClicks(ctx context.Context, id string, at time.Time) error
}

// QrRepository stores QR records, one per property id.
type QrRepository interface {
	GetQrByPropertyID(ctx context.Context, propertyID string) (*QrCodeMetadata, error)
	// SaveQr upserts a record by property id. An expectedVersion of 0 creates a
	// new record; otherwise the stored record must still be at expectedVersion.
	// Both cases fail with ErrVersionConflict when the condition does not hold.
	SaveQr(ctx context.Context, qr *QrCodeMetadata, expectedVersion int) error
	DeleteQr(ctx context.Context, propertyID string) (bool, error)
	DeactivateQr(ctx context.Context, propertyID string, at time.Time) (bool, error)
	ListQrs(ctx context.Context, filter QrListFilter) ([]*QrCodeMetadata, error)
	// ListQrPropertyIDsGeneratedBefore returns active records generated before cutoff.
	ListQrPropertyIDsGeneratedBefore(ctx context.Context, cutoff time.Time) ([]string, error)
	// ListQrPropertyIDsUpdatedBefore returns active records last touched before cutoff.
	ListQrPropertyIDsUpdatedBefore(ctx context.Context, cutoff time.Time) ([]string, error)
	ListQrPropertyIDs(ctx context.Context) ([]string, error)
	// CountQrs counts records generated at or after since, a zero since counts all.
	CountQrs(ctx context.Context, since time.Time) (int64, error)
}

// ScanRepository stores scan events and analytics rollups.
type ScanRepository interface {
	InsertScanEvent(ctx context.Context, event *ScanEvent) error
	ListScanEvents(ctx context.Context, propertyID string, since time.Time) ([]*ScanEvent, error)
	CountScanEvents(ctx context.Context, filter ScanEventFilter) (int64, error)
	CountDistinctScanIPs(ctx context.Context, filter ScanEventFilter) (int64, error)
	// TopScannedProperties ranks properties by scan count within the filter
	// window. The filter's PropertyID is ignored.
	TopScannedProperties(ctx context.Context, filter ScanEventFilter, limit int) ([]PropertyPerformance, error)
	DailyScanCounts(ctx context.Context, propertyID string, since time.Time) ([]DailyScanCount, error)
	DeleteScanEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	GetPropertyAnalytics(ctx context.Context, propertyID string) (*PropertyScanAnalytics, error)
	SavePropertyAnalytics(ctx context.Context, analytics *PropertyScanAnalytics) error
	GetSystemAnalytics(ctx context.Context) (*SystemAnalytics, error)
	SaveSystemAnalytics(ctx context.Context, analytics *SystemAnalytics) error
}

// Repository is the full document store.
type Repository interface {
	PropertyRepository
	QrRepository
	ScanRepository

	Ping(ctx context.Context) error
	Close() error
}
