package analytics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/WankioM/property-qr/internal/clock"
	"github.com/WankioM/property-qr/internal/models"
	"github.com/WankioM/property-qr/pkg/logger"
	"github.com/WankioM/property-qr/pkg/validation"
)

const (
	DefaultTopLimit   = 10
	MaxTopLimit       = 100
	DefaultPeriodDays = 30
	MaxTrendDays      = 365

	recentScanDays = 7
	systemTopLimit = 10

	taskRecordScan       = "record_scan"
	taskRecordFailedScan = "record_failed_scan"
	taskPropertyUpdate   = "update_property_analytics"
	taskSystemRefresh    = "refresh_system_analytics"
	taskIncrementClicks  = "increment_clicks"
	metadataErrorReason  = "error_reason"
	defaultQrVersion     = 1
	percentagePrecision  = 100
	day                  = 24 * time.Hour
	defaultRetentionDays = 365
)

// Deps are the collaborators of an Aggregator.
type Deps struct {
	Scans      models.ScanRepository
	Qrs        models.QrRepository
	Properties models.PropertyProvider
	Queue      models.TaskQueue
	Clock      clock.Clock
	IDs        clock.IDGenerator
	Logger     *logger.Logger
}

// Aggregator records scan events and maintains per-property and
// system-wide rollups. Recording never blocks the caller: events and
// rollup updates go through the task queue.
type Aggregator struct {
	scans      models.ScanRepository
	qrs        models.QrRepository
	properties models.PropertyProvider
	queue      models.TaskQueue
	clock      clock.Clock
	ids        clock.IDGenerator
	logger     *logger.Logger

	systemPending atomic.Bool
}

var (
	_ models.ScanRecorder     = (*Aggregator)(nil)
	_ models.AnalyticsService = (*Aggregator)(nil)
)

func NewAggregator(deps Deps) *Aggregator {
	return &Aggregator{
		scans:      deps.Scans,
		qrs:        deps.Qrs,
		properties: deps.Properties,
		queue:      deps.Queue,
		clock:      deps.Clock,
		ids:        deps.IDs,
		logger:     deps.Logger.Named("analytics"),
	}
}

// TrackScan queues a scan for recording and returns its id. The scan time
// is fixed here, not when a worker picks the task up.
func (a *Aggregator) TrackScan(in models.ScanInput) string {
	if in.ScanID == "" {
		in.ScanID = a.ids.New()
	}
	if in.ScannedAt.IsZero() {
		in.ScannedAt = a.clock.Now()
	}
	if !a.queue.Submit(taskRecordScan, func(ctx context.Context) error {
		return a.RecordScan(ctx, in)
	}) {
		a.logger.Warn("Scan not recorded, queue unavailable", "scan_id", in.ScanID, "property_id", in.PropertyID)
	}
	return in.ScanID
}

// TrackFailedScan queues a failed scan for recording and returns its id.
func (a *Aggregator) TrackFailedScan(in models.FailedScanInput) string {
	if in.ScanID == "" {
		in.ScanID = a.ids.New()
	}
	if in.ScannedAt.IsZero() {
		in.ScannedAt = a.clock.Now()
	}
	if !a.queue.Submit(taskRecordFailedScan, func(ctx context.Context) error {
		return a.RecordFailedScan(ctx, in)
	}) {
		a.logger.Warn("Failed scan not recorded, queue unavailable", "scan_id", in.ScanID, "property_id", in.PropertyID)
	}
	return in.ScanID
}

// TrackClick queues a click increment for a listing.
func (a *Aggregator) TrackClick(propertyID string) {
	a.queue.Submit(taskIncrementClicks, func(ctx context.Context) error {
		return a.properties.IncrementClicks(ctx, propertyID)
	})
}

// RecordScan stores one scan event and schedules the rollup updates.
func (a *Aggregator) RecordScan(ctx context.Context, in models.ScanInput) error {
	if in.ScanID == "" {
		in.ScanID = a.ids.New()
	}
	if in.Source == "" {
		in.Source = models.ScanSourceQrCode
	}
	if in.QrVersion <= 0 {
		in.QrVersion = a.currentQrVersion(ctx, in.PropertyID)
	}

	if in.ScannedAt.IsZero() {
		in.ScannedAt = a.clock.Now()
	}

	event := models.NewScanEvent(in.ScanID, in, ParseUserAgent(in.UserAgent), in.ScannedAt)
	if err := a.scans.InsertScanEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to record scan %s: %w", in.ScanID, err)
	}
	a.logger.Debug("Scan recorded",
		"scan_id", event.ID,
		"property_id", event.PropertyID,
		"redirect_type", event.RedirectType,
		"success", event.RedirectSuccess)

	a.queue.Submit(taskPropertyUpdate, func(ctx context.Context) error {
		return a.updatePropertyAnalytics(ctx, event)
	})
	a.scheduleSystemRefresh()
	return nil
}

// RecordFailedScan stores a scan that could not be served.
func (a *Aggregator) RecordFailedScan(ctx context.Context, in models.FailedScanInput) error {
	metadata := make(map[string]string, len(in.Metadata)+1)
	for k, v := range in.Metadata {
		metadata[k] = v
	}
	if in.ErrorReason != "" {
		metadata[metadataErrorReason] = in.ErrorReason
	}
	return a.RecordScan(ctx, models.ScanInput{
		ScanID:          in.ScanID,
		PropertyID:      in.PropertyID,
		Source:          in.Source,
		UserAgent:       in.UserAgent,
		IPAddress:       in.IPAddress,
		SessionID:       in.SessionID,
		Referrer:        in.Referrer,
		RedirectType:    models.RedirectFailed,
		RedirectSuccess: false,
		Metadata:        metadata,
		ScannedAt:       in.ScannedAt,
	})
}

// currentQrVersion stamps scans with the record's live version rather than a
// fixed 1; 1 is only the fallback when no record is readable.
func (a *Aggregator) currentQrVersion(ctx context.Context, propertyID string) int {
	qr, err := a.qrs.GetQrByPropertyID(ctx, propertyID)
	if err != nil || qr == nil || qr.QrVersion <= 0 {
		return defaultQrVersion
	}
	return qr.QrVersion
}

func (a *Aggregator) scheduleSystemRefresh() {
	if !a.systemPending.CompareAndSwap(false, true) {
		return
	}
	if !a.queue.Submit(taskSystemRefresh, func(ctx context.Context) error {
		a.systemPending.Store(false)
		_, err := a.RefreshSystemAnalytics(ctx)
		return err
	}) {
		a.systemPending.Store(false)
	}
}

func (a *Aggregator) updatePropertyAnalytics(ctx context.Context, event *models.ScanEvent) error {
	now := a.clock.Now()
	rollup, err := a.loadPropertyAnalytics(ctx, event.PropertyID, now)
	if err != nil {
		return err
	}

	rollup.ApplyScan(event, now)
	if err := a.refreshCounters(ctx, rollup, now); err != nil {
		return err
	}

	if err := a.scans.SavePropertyAnalytics(ctx, rollup); err != nil {
		return fmt.Errorf("failed to save analytics for %s: %w", event.PropertyID, err)
	}
	return nil
}

func (a *Aggregator) loadPropertyAnalytics(ctx context.Context, propertyID string, now time.Time) (*models.PropertyScanAnalytics, error) {
	rollup, err := a.scans.GetPropertyAnalytics(ctx, propertyID)
	if errors.Is(err, models.ErrRecordNotFound) {
		return models.NewPropertyScanAnalytics(propertyID, now), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load analytics for %s: %w", propertyID, err)
	}
	return rollup, nil
}

// refreshCounters recomputes unique and period counters from raw events.
func (a *Aggregator) refreshCounters(ctx context.Context, rollup *models.PropertyScanAnalytics, now time.Time) error {
	id := rollup.PropertyID

	unique, err := a.scans.CountDistinctScanIPs(ctx, models.ScanEventFilter{PropertyID: id})
	if err != nil {
		return fmt.Errorf("failed to count unique scans for %s: %w", id, err)
	}
	rollup.UniqueScans = unique

	periods := []struct {
		since time.Time
		dst   *int64
	}{
		{clock.StartOfDay(now), &rollup.ScansToday},
		{clock.StartOfWeek(now), &rollup.ScansThisWeek},
		{clock.StartOfMonth(now), &rollup.ScansThisMonth},
	}
	for _, p := range periods {
		n, err := a.scans.CountScanEvents(ctx, models.ScanEventFilter{PropertyID: id, Since: p.since})
		if err != nil {
			return fmt.Errorf("failed to count scans for %s: %w", id, err)
		}
		*p.dst = n
	}
	return nil
}

// RefreshSystemAnalytics recomputes the service-wide rollup from counts
// and stores it.
func (a *Aggregator) RefreshSystemAnalytics(ctx context.Context) (*models.SystemAnalytics, error) {
	now := a.clock.Now()
	system := models.NewSystemAnalytics(now)

	scanCounts := []struct {
		since time.Time
		dst   *int64
	}{
		{time.Time{}, &system.TotalScansAllTime},
		{clock.StartOfDay(now), &system.TotalScansToday},
		{clock.StartOfWeek(now), &system.TotalScansThisWeek},
		{clock.StartOfMonth(now), &system.TotalScansThisMonth},
	}
	for _, c := range scanCounts {
		n, err := a.scans.CountScanEvents(ctx, models.ScanEventFilter{Since: c.since})
		if err != nil {
			return nil, fmt.Errorf("failed to count scans: %w", err)
		}
		*c.dst = n
	}

	stats, err := a.properties.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get property stats: %w", err)
	}
	system.TotalProperties = stats.Total

	qrCounts := []struct {
		since time.Time
		dst   *int64
	}{
		{time.Time{}, &system.QrGenerationStats.TotalGenerated},
		{clock.StartOfDay(now), &system.QrGenerationStats.GeneratedToday},
		{clock.StartOfWeek(now), &system.QrGenerationStats.GeneratedThisWeek},
		{clock.StartOfMonth(now), &system.QrGenerationStats.GeneratedThisMonth},
	}
	for _, c := range qrCounts {
		n, err := a.qrs.CountQrs(ctx, c.since)
		if err != nil {
			return nil, fmt.Errorf("failed to count QR codes: %w", err)
		}
		*c.dst = n
	}
	system.PropertiesWithQr = system.QrGenerationStats.TotalGenerated

	if system.PropertiesWithQr > 0 {
		system.AverageScansPerProperty = round2(float64(system.TotalScansAllTime) / float64(system.PropertiesWithQr))
	}

	top, err := a.topPerforming(ctx, models.ScanEventFilter{Since: now.Add(-DefaultPeriodDays * day)}, systemTopLimit)
	if err != nil {
		return nil, err
	}
	system.TopPerformingProperties = top

	if err := a.scans.SaveSystemAnalytics(ctx, system); err != nil {
		return nil, fmt.Errorf("failed to save system analytics: %w", err)
	}
	a.logger.Debug("System analytics refreshed", "total_scans", system.TotalScansAllTime, "properties_with_qr", system.PropertiesWithQr)
	return system, nil
}

func (a *Aggregator) topPerforming(ctx context.Context, filter models.ScanEventFilter, limit int) ([]models.PropertyPerformance, error) {
	top, err := a.scans.TopScannedProperties(ctx, filter, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank properties: %w", err)
	}
	if len(top) == 0 {
		return []models.PropertyPerformance{}, nil
	}

	ids := make([]string, len(top))
	for i, p := range top {
		ids[i] = p.PropertyID
	}
	names, err := a.properties.Names(ctx, ids)
	if err != nil {
		a.logger.Warn("Failed to resolve property names", "error", err)
		names = map[string]string{}
	}
	for i := range top {
		name, ok := names[top[i].PropertyID]
		if !ok || name == "" {
			name = "Unknown Property"
		}
		top[i].PropertyName = name
		top[i].SuccessRate = round2(top[i].SuccessRate)
	}
	return top, nil
}

// PropertyAnalytics returns a listing's rollup, creating an empty one on
// first access. includeRecent attaches the last 7 days of events.
func (a *Aggregator) PropertyAnalytics(ctx context.Context, propertyID string, includeRecent bool) (*models.ScanAnalyticsResponse, error) {
	id, err := validation.ValidateAndNormalizePropertyID(propertyID)
	if err != nil {
		return nil, models.ErrInvalidPropertyID(propertyID, err)
	}

	now := a.clock.Now()
	rollup, err := a.scans.GetPropertyAnalytics(ctx, id)
	if errors.Is(err, models.ErrRecordNotFound) {
		rollup = models.NewPropertyScanAnalytics(id, now)
		if err := a.scans.SavePropertyAnalytics(ctx, rollup); err != nil {
			return nil, models.ErrDatabase(id, err).WithOperation("property_analytics")
		}
	} else if err != nil {
		return nil, models.ErrDatabase(id, err).WithOperation("property_analytics")
	}

	resp := &models.ScanAnalyticsResponse{PropertyID: id, Analytics: rollup}
	if includeRecent {
		recent, err := a.scans.ListScanEvents(ctx, id, now.Add(-recentScanDays*day))
		if err != nil {
			return nil, models.ErrDatabase(id, err).WithOperation("recent_scans")
		}
		if recent == nil {
			recent = []*models.ScanEvent{}
		}
		resp.RecentScans = recent
	}
	return resp, nil
}

// SystemAnalytics returns the stored system rollup, computing it when
// absent. includeComparison compares the last 30 days with the 30 before.
func (a *Aggregator) SystemAnalytics(ctx context.Context, includeComparison bool) (*models.SystemAnalyticsResponse, error) {
	system, err := a.scans.GetSystemAnalytics(ctx)
	if errors.Is(err, models.ErrRecordNotFound) {
		system, err = a.RefreshSystemAnalytics(ctx)
	}
	if err != nil {
		return nil, models.ErrDatabase("", err).WithOperation("system_analytics")
	}

	resp := &models.SystemAnalyticsResponse{Analytics: system}
	if includeComparison {
		comparison, err := a.periodComparison(ctx, DefaultPeriodDays)
		if err != nil {
			return nil, models.ErrDatabase("", err).WithOperation("period_comparison")
		}
		resp.PeriodComparison = comparison
	}
	return resp, nil
}

func (a *Aggregator) periodComparison(ctx context.Context, days int) (*models.PeriodComparison, error) {
	now := a.clock.Now()
	window := time.Duration(days) * day
	currentStart := now.Add(-window)
	previousStart := currentStart.Add(-window)

	current, err := a.periodStats(ctx, models.ScanEventFilter{Since: currentStart}, days)
	if err != nil {
		return nil, err
	}
	previous, err := a.periodStats(ctx, models.ScanEventFilter{Since: previousStart, Until: currentStart}, days)
	if err != nil {
		return nil, err
	}
	return &models.PeriodComparison{
		CurrentPeriod:    *current,
		PreviousPeriod:   *previous,
		PercentageChange: models.PercentageChange(previous.TotalScans, current.TotalScans),
	}, nil
}

func (a *Aggregator) periodStats(ctx context.Context, filter models.ScanEventFilter, days int) (*models.PeriodStats, error) {
	total, err := a.scans.CountScanEvents(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count scans: %w", err)
	}
	unique, err := a.scans.CountDistinctScanIPs(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count unique scans: %w", err)
	}
	stats := &models.PeriodStats{
		TotalScans:     total,
		UniqueScans:    unique,
		AvgScansPerDay: round2(float64(total) / float64(days)),
	}
	top, err := a.topPerforming(ctx, filter, 1)
	if err != nil {
		return nil, err
	}
	if len(top) > 0 {
		stats.TopPropertyID = top[0].PropertyID
		stats.TopPropertyName = top[0].PropertyName
	}
	return stats, nil
}

// TopPerforming ranks listings by scans over the last days. limit defaults
// to 10 and is capped at 100; days defaults to 30.
func (a *Aggregator) TopPerforming(ctx context.Context, limit, days int) ([]models.PropertyPerformance, error) {
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	if limit > MaxTopLimit {
		limit = MaxTopLimit
	}
	if days <= 0 {
		days = DefaultPeriodDays
	}
	since := a.clock.Now().Add(-time.Duration(days) * day)
	top, err := a.topPerforming(ctx, models.ScanEventFilter{Since: since}, limit)
	if err != nil {
		return nil, models.ErrDatabase("", err).WithOperation("top_performing")
	}
	return top, nil
}

// ScanTrends returns per-day scan counts for a listing, oldest first.
func (a *Aggregator) ScanTrends(ctx context.Context, propertyID string, days int) ([]models.DailyScanCount, error) {
	id, err := validation.ValidateAndNormalizePropertyID(propertyID)
	if err != nil {
		return nil, models.ErrInvalidPropertyID(propertyID, err)
	}
	if days <= 0 {
		days = DefaultPeriodDays
	}
	if days > MaxTrendDays {
		days = MaxTrendDays
	}
	since := clock.StartOfDay(a.clock.Now()).AddDate(0, 0, -(days - 1))
	counts, err := a.scans.DailyScanCounts(ctx, id, since)
	if err != nil {
		return nil, models.ErrDatabase(id, err).WithOperation("scan_trends")
	}
	if counts == nil {
		counts = []models.DailyScanCount{}
	}
	return counts, nil
}

// CleanupOldEvents deletes scan events older than retentionDays.
func (a *Aggregator) CleanupOldEvents(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		retentionDays = defaultRetentionDays
	}
	cutoff := a.clock.Now().AddDate(0, 0, -retentionDays)
	deleted, err := a.scans.DeleteScanEventsBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete scan events before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	a.logger.Info("Old scan events deleted", "deleted", deleted, "cutoff", cutoff)
	return deleted, nil
}

func round2(v float64) float64 {
	return math.Round(v*percentagePrecision) / percentagePrecision
}
