package http_api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/WankioM/property-qr/internal/clock"
	"github.com/WankioM/property-qr/internal/models"
	"github.com/WankioM/property-qr/internal/redirect"
	"github.com/WankioM/property-qr/pkg/logger"
)

const (
	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout = 10 * time.Second

	DefaultBatchMaxSize = 100
)

// ScanHandler classifies scans, implemented by redirect.Engine.
type ScanHandler interface {
	HandleScan(ctx context.Context, req redirect.ScanRequest) *redirect.Decision
	ScanData(ctx context.Context, req redirect.ScanRequest) (*models.ScanResponse, error)
}

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// Services are the application services exposed over HTTP.
type Services struct {
	Qr        models.QrService
	Analytics models.AnalyticsService
	Scans     ScanHandler
	Clock     clock.Clock
	// Checks are run by the readiness and detailed health endpoints.
	Checks map[string]HealthCheck
	// QueueStats, when set, is reported by the detailed health endpoint.
	QueueStats func() any
}

// ServerConfig holds listener and request settings.
type ServerConfig struct {
	Host           string
	Port           int
	CORSOrigins    []string
	RequestTimeout time.Duration
	BatchMaxSize   int
	Version        string
	Environment    string
}

// HTTPServer is the HTTP server struct that will serve the API
type HTTPServer struct {
	// logger is the logger instance
	logger *logger.Logger

	// router is the HTTP router
	router *gin.Engine
	cfg    ServerConfig

	// server is the underlying HTTP server
	server *http.Server

	qr         models.QrService
	analytics  models.AnalyticsService
	scans      ScanHandler
	clock      clock.Clock
	checks     map[string]HealthCheck
	queueStats func() any
	startedAt  time.Time
}

// NewHTTPServer creates a new HTTP server instance
func NewHTTPServer(svc Services, cfg ServerConfig, logger *logger.Logger) *HTTPServer {
	if cfg.BatchMaxSize <= 0 {
		cfg.BatchMaxSize = DefaultBatchMaxSize
	}
	log := logger.Named("http")

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))
	if cfg.RequestTimeout > 0 {
		router.Use(requestTimeout(cfg.RequestTimeout))
	}
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	server := &HTTPServer{
		logger:     log,
		router:     router,
		cfg:        cfg,
		qr:         svc.Qr,
		analytics:  svc.Analytics,
		scans:      svc.Scans,
		clock:      svc.Clock,
		checks:     svc.Checks,
		queueStats: svc.QueueStats,
		startedAt:  svc.Clock.Now(),
	}

	// Define routes
	server.routes()

	return server
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", "X-Session-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// Handler exposes the router, used by tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called. It returns nil after a graceful
// shutdown.
func (s *HTTPServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("Starting HTTP server", "address", addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start the HTTP server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *HTTPServer) Shutdown() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	s.logger.Info("Shutting down HTTP server...")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP server shutdown error: %w", err)
	}

	s.logger.Info("HTTP server shut down successfully")
	return nil
}
