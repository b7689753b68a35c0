package main

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/WankioM/property-qr/internal/analytics"
	"github.com/WankioM/property-qr/internal/clock"
	"github.com/WankioM/property-qr/internal/config"
	"github.com/WankioM/property-qr/internal/generator"
	"github.com/WankioM/property-qr/internal/http_api"
	"github.com/WankioM/property-qr/internal/models"
	"github.com/WankioM/property-qr/internal/notificator"
	"github.com/WankioM/property-qr/internal/property"
	"github.com/WankioM/property-qr/internal/qrcode"
	"github.com/WankioM/property-qr/internal/redirect"
	"github.com/WankioM/property-qr/internal/repository"
	"github.com/WankioM/property-qr/internal/scheduler"
	"github.com/WankioM/property-qr/internal/storage"
	"github.com/WankioM/property-qr/pkg/logger"
)

// application holds the wired service graph.
type application struct {
	cfg    *config.Config
	logger *logger.Logger

	repo       models.Repository
	dispatcher *analytics.Dispatcher
	scheduler  *scheduler.Scheduler
	telegram   *notificator.TelegramNotificator
	server     *http_api.HTTPServer
}

func newApplication(ctx context.Context, cfg *config.Config, log *logger.Logger) (*application, error) {
	// Initialize database
	repo, err := repository.NewRepositoryFromConfig(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store, err := storage.NewObjectStoreFromConfig(ctx, cfg, log)
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to initialize object storage: %w", err)
	}

	clk := clock.RealClock{}
	ids := clock.UUIDGenerator{}

	properties := property.NewService(repo, clk, log)
	gen := generator.NewGenerator(generator.Deps{
		Repo:       repo,
		Properties: properties,
		Encoder:    qrcode.NewEncoder(),
		Store:      store,
		Clock:      clk,
		IDs:        ids,
		Logger:     log,
	}, generator.Config{
		BaseURL:          cfg.BaseURL,
		Settings:         cfg.QR,
		BatchConcurrency: cfg.BatchConcurrency,
	})

	dispatcher := analytics.NewDispatcher(cfg.AnalyticsWorkers, cfg.AnalyticsQueueSize, cfg.AnalyticsMaxAttempts, log)
	aggregator := analytics.NewAggregator(analytics.Deps{
		Scans:      repo,
		Qrs:        repo,
		Properties: properties,
		Queue:      dispatcher,
		Clock:      clk,
		IDs:        ids,
		Logger:     log,
	})

	engine := redirect.NewEngine(properties, aggregator, clk, log, redirect.Config{
		DaobitatBaseURL:           cfg.DaobitatBaseURL,
		BlockchainExplorerBaseURL: cfg.BlockchainExplorerBaseURL,
		ServiceBaseURL:            cfg.BaseURL,
	})

	a := &application{
		cfg:        cfg,
		logger:     log,
		repo:       repo,
		dispatcher: dispatcher,
	}

	// Initialize notificator
	notif := notificator.NewNotificator(log)
	if cfg.TelegramBotToken != "" {
		a.telegram, err = notificator.NewTelegramNotificator(log, cfg.TelegramBotToken, aggregator)
		if err != nil {
			log.Error("Telegram notifications disabled", "error", err)
		} else {
			notif.WithTelegram(a.telegram, cfg.TelegramChatID)
		}
	}
	if cfg.OpsEmail != "" {
		email := notificator.NewEmailNotificator(log, cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPSender)
		notif.WithEmail(email, cfg.OpsEmail)
	}

	a.scheduler = scheduler.NewScheduler(gen, aggregator, notif, scheduler.Config{
		RegenerationRunTime:      cfg.RegenerationRunTime,
		CleanupRunTime:           cfg.CleanupRunTime,
		GenerateMissingEnabled:   cfg.GenerateMissingEnabled,
		GenerateMissingRunTime:   cfg.GenerateMissingRunTime,
		AnalyticsRefreshInterval: cfg.AnalyticsRefreshEvery(),
		QrExpiryDays:             cfg.QrExpiryDays,
		ScanRetentionDays:        cfg.ScanRetentionDays,
	}, log)

	checks := map[string]http_api.HealthCheck{
		"database": repo.Ping,
	}
	if p, ok := store.(interface{ Ping(context.Context) error }); ok {
		checks["storage"] = p.Ping
	}

	environment := "production"
	if cfg.Development {
		environment = "development"
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	a.server = http_api.NewHTTPServer(http_api.Services{
		Qr:         gen,
		Analytics:  aggregator,
		Scans:      engine,
		Clock:      clk,
		Checks:     checks,
		QueueStats: func() any { return dispatcher.Stats() },
	}, http_api.ServerConfig{
		Host:           cfg.APIHost,
		Port:           cfg.APIPort,
		CORSOrigins:    cfg.CORSOrigins,
		RequestTimeout: cfg.RequestTimeout(),
		BatchMaxSize:   cfg.BatchMaxSize,
		Version:        version,
		Environment:    environment,
	}, log)

	return a, nil
}

// start launches the background workers. The HTTP server is started by the
// caller.
func (a *application) start(ctx context.Context) {
	a.dispatcher.Start()
	if a.telegram != nil {
		a.telegram.Start(ctx)
	}
	if a.cfg.SchedulerEnabled {
		if err := a.scheduler.Start(); err != nil {
			a.logger.Error("Failed to start scheduler", "error", err)
		}
	}
}

// close stops background work in dependency order and releases the store.
func (a *application) close() {
	a.scheduler.Stop()
	a.dispatcher.Stop()
	if err := a.repo.Close(); err != nil {
		a.logger.Error("Failed to close repository", "error", err)
	}
	a.logger.Info("Shutdown complete")
}
