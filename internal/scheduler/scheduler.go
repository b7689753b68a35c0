// Package scheduler runs the periodic QR and analytics maintenance jobs.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/WankioM/property-qr/internal/models"
	"github.com/WankioM/property-qr/pkg/logger"
)

// Job names accepted by RunNow.
const (
	JobRegenerateExpired = "regenerate_expired"
	JobCleanupScans      = "cleanup_scans"
	JobGenerateMissing   = "generate_missing"
	JobRefreshAnalytics  = "refresh_analytics"

	defaultRunTime = "0 2 * * *"
	jobTimeout     = 30 * time.Minute
)

// QrJobs is the QR side of the scheduled work.
type QrJobs interface {
	RegenerateExpired(ctx context.Context, expiryDays int) (*models.BatchQrCodeResponse, error)
	GenerateMissing(ctx context.Context) (*models.BatchQrCodeResponse, error)
}

// AnalyticsJobs is the analytics side of the scheduled work.
type AnalyticsJobs interface {
	RefreshSystemAnalytics(ctx context.Context) (*models.SystemAnalytics, error)
	CleanupOldEvents(ctx context.Context, retentionDays int) (int64, error)
}

// Config holds run times (HH:MM, UTC) and job parameters.
type Config struct {
	RegenerationRunTime      string
	CleanupRunTime           string
	GenerateMissingEnabled   bool
	GenerateMissingRunTime   string
	AnalyticsRefreshInterval time.Duration
	QrExpiryDays             int
	ScanRetentionDays        int
}

// Scheduler handles scheduled maintenance tasks
type Scheduler struct {
	cron      *cron.Cron
	qr        QrJobs
	analytics AnalyticsJobs
	notifier  models.Notifier
	logger    *logger.Logger
	cfg       Config

	mu        sync.Mutex
	isRunning bool
	jobs      map[string]func(ctx context.Context) error
}

// NewScheduler creates a new scheduler. notifier may be nil.
func NewScheduler(qr QrJobs, analytics AnalyticsJobs, notifier models.Notifier, cfg Config, logger *logger.Logger) *Scheduler {
	log := logger.Named("scheduler")
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cronLogger{log}), cron.SkipIfStillRunning(cronLogger{log})),
		),
		qr:        qr,
		analytics: analytics,
		notifier:  notifier,
		logger:    log,
		cfg:       cfg,
	}
	s.jobs = map[string]func(ctx context.Context) error{
		JobRegenerateExpired: s.regenerateExpired,
		JobCleanupScans:      s.cleanupScans,
		JobGenerateMissing:   s.generateMissing,
		JobRefreshAnalytics:  s.refreshAnalytics,
	}
	return s
}

// Start registers the jobs and starts the cron runner.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}

	schedule := map[string]string{
		JobRegenerateExpired: s.parseDailyRunTime(s.cfg.RegenerationRunTime),
		JobCleanupScans:      s.parseDailyRunTime(s.cfg.CleanupRunTime),
	}
	if s.cfg.GenerateMissingEnabled {
		schedule[JobGenerateMissing] = s.parseDailyRunTime(s.cfg.GenerateMissingRunTime)
	}
	if s.cfg.AnalyticsRefreshInterval > 0 {
		schedule[JobRefreshAnalytics] = "@every " + s.cfg.AnalyticsRefreshInterval.String()
	}

	for name, spec := range schedule {
		name := name
		if _, err := s.cron.AddFunc(spec, func() { s.run(name) }); err != nil {
			return fmt.Errorf("failed to schedule %s (%s): %w", name, spec, err)
		}
		s.logger.Info("Job scheduled", "job", name, "cron", spec)
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.Info("Scheduler started", "jobs", len(schedule))
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return
	}
	<-s.cron.Stop().Done()
	s.isRunning = false
	s.logger.Info("Scheduler stopped")
}

// Entries returns the number of scheduled jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// JobNames lists the jobs RunNow accepts.
func (s *Scheduler) JobNames() []string {
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RunNow immediately executes a job (for manual trigger)
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	job, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("unknown job %q, expected one of %s", name, strings.Join(s.JobNames(), ", "))
	}
	s.logger.Info("Manual trigger", "job", name)
	return job(ctx)
}

func (s *Scheduler) run(name string) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	s.logger.Info("Starting job", "job", name)
	if err := s.jobs[name](ctx); err != nil {
		s.logger.Error("Job failed", "job", name, "error", err)
		s.notify(ctx, fmt.Sprintf("Scheduled job %s failed", name), err.Error())
		return
	}
	s.logger.Info("Job completed", "job", name, "duration", time.Since(start))
}

func (s *Scheduler) regenerateExpired(ctx context.Context) error {
	resp, err := s.qr.RegenerateExpired(ctx, s.cfg.QrExpiryDays)
	if err != nil {
		return err
	}
	if resp.TotalRequested > 0 {
		s.notify(ctx, "Expired QR codes regenerated", batchSummary(resp))
	}
	return nil
}

func (s *Scheduler) generateMissing(ctx context.Context) error {
	resp, err := s.qr.GenerateMissing(ctx)
	if err != nil {
		return err
	}
	if resp.TotalRequested > 0 {
		s.notify(ctx, "Missing QR codes generated", batchSummary(resp))
	}
	return nil
}

func (s *Scheduler) cleanupScans(ctx context.Context) error {
	deleted, err := s.analytics.CleanupOldEvents(ctx, s.cfg.ScanRetentionDays)
	if err != nil {
		return err
	}
	s.logger.Info("Scan events cleaned up", "deleted", deleted, "retention_days", s.cfg.ScanRetentionDays)
	return nil
}

func (s *Scheduler) refreshAnalytics(ctx context.Context) error {
	_, err := s.analytics.RefreshSystemAnalytics(ctx)
	return err
}

func (s *Scheduler) notify(ctx context.Context, subject, message string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, subject, message)
}

func batchSummary(resp *models.BatchQrCodeResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Requested: %d\nSuccessful: %d\nFailed: %d",
		resp.TotalRequested, resp.TotalSuccessful, resp.TotalFailed)
	for _, f := range resp.Failed {
		fmt.Fprintf(&b, "\n- %s: %s (%s)", f.PropertyID, f.Error, f.ErrorCode)
	}
	return b.String()
}

// parseDailyRunTime converts HH:MM format to cron specification
// Example: "02:00" -> "0 2 * * *" (run at 2:00 AM every day)
func (s *Scheduler) parseDailyRunTime(timeStr string) string {
	spec, err := DailySpec(timeStr)
	if err != nil {
		s.logger.Warn("Failed to parse run time, using default 02:00", "time", timeStr, "error", err)
		return defaultRunTime
	}
	return spec
}

// DailySpec converts "HH:MM" into a daily cron spec.
func DailySpec(timeStr string) (string, error) {
	var hour, minute int
	n, err := fmt.Sscanf(strings.TrimSpace(timeStr), "%d:%d", &hour, &minute)
	if err != nil || n != 2 {
		return "", fmt.Errorf("expected HH:MM, got %q", timeStr)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return "", fmt.Errorf("time out of range: %q", timeStr)
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}

// cronLogger adapts the service logger to cron.Logger.
type cronLogger struct {
	l *logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(msg, append(keysAndValues, "error", err)...)
}
