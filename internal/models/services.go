package models

import "context"

// ImageEncoder renders a payload into image bytes.
type ImageEncoder interface {
	Encode(payload string, settings QrGenerationSettings) ([]byte, error)
}

// ObjectStore persists binary objects and returns their public URL.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) (bool, error)
	PublicURL(key string) string
}

// PropertyProvider exposes listings to QR issuance and scan handling.
type PropertyProvider interface {
	// GetPropertyQrInfo returns the listing only if it is eligible for a QR code.
	GetPropertyQrInfo(ctx context.Context, id string) (*PropertyQrInfo, error)
	ListEligible(ctx context.Context, limit int) ([]*PropertyQrInfo, error)
	// ListNeedingQr returns eligible listing ids missing from existingIDs.
	ListNeedingQr(ctx context.Context, existingIDs []string) ([]string, error)
	IncrementClicks(ctx context.Context, id string) error
	Names(ctx context.Context, ids []string) (map[string]string, error)
	Stats(ctx context.Context) (*PropertyStats, error)
}

// TaskQueue runs work in the background. Submit never blocks and reports
// whether the task was accepted.
type TaskQueue interface {
	Submit(name string, task func(ctx context.Context) error) bool
}

// ScanRecorder records scans without blocking the caller. The Track*Scan
// methods return the id the event will be stored under.
type ScanRecorder interface {
	TrackScan(input ScanInput) string
	TrackFailedScan(input FailedScanInput) string
	TrackClick(propertyID string)
}

// Notifier delivers operational reports.
type Notifier interface {
	Notify(ctx context.Context, subject, message string)
}

// QrService is the QR lifecycle as exposed over HTTP.
type QrService interface {
	Generate(ctx context.Context, propertyID string, force bool, reason QrGenerationReason) (*QrCodeResponse, error)
	BatchGenerate(ctx context.Context, propertyIDs []string, force bool, reason QrGenerationReason) (*BatchQrCodeResponse, error)
	GenerateMissing(ctx context.Context) (*BatchQrCodeResponse, error)
	GetQrCode(ctx context.Context, propertyID string) (*QrCodeMetadata, error)
	ListQrCodes(ctx context.Context, filter QrListFilter) ([]*QrCodeMetadata, error)
	DeleteQrCode(ctx context.Context, propertyID string) (bool, error)
	DeactivateQrCode(ctx context.Context, propertyID string) (bool, error)
}

// AnalyticsService exposes scan rollups.
type AnalyticsService interface {
	PropertyAnalytics(ctx context.Context, propertyID string, includeRecent bool) (*ScanAnalyticsResponse, error)
	SystemAnalytics(ctx context.Context, includeComparison bool) (*SystemAnalyticsResponse, error)
	TopPerforming(ctx context.Context, limit, days int) ([]PropertyPerformance, error)
	ScanTrends(ctx context.Context, propertyID string, days int) ([]DailyScanCount, error)
}
