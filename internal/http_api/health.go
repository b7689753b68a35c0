package http_api

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"

	healthCheckTimeout = 5 * time.Second
)

// ComponentHealth is the outcome of one dependency check.
type ComponentHealth struct {
	Status         string `json:"status"`
	Message        string `json:"message,omitempty"`
	ResponseTimeMs int64  `json:"response_time_ms"`
}

func (s *HTTPServer) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      statusHealthy,
		"timestamp":   s.clock.Now(),
		"version":     s.cfg.Version,
		"environment": s.cfg.Environment,
		"uptime":      int64(s.clock.Now().Sub(s.startedAt).Seconds()),
	})
}

func (s *HTTPServer) live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// ready reports 503 while any dependency check fails.
func (s *HTTPServer) ready(c *gin.Context) {
	components, healthy := s.runChecks(c.Request.Context())
	status := http.StatusOK
	state := "ready"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "not_ready"
	}
	c.JSON(status, gin.H{"status": state, "services": components})
}

func (s *HTTPServer) detailedHealth(c *gin.Context) {
	components, healthy := s.runChecks(c.Request.Context())
	overall := statusHealthy
	if !healthy {
		overall = statusUnhealthy
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	hostname, _ := os.Hostname()

	body := gin.H{
		"status":      overall,
		"timestamp":   s.clock.Now(),
		"version":     s.cfg.Version,
		"environment": s.cfg.Environment,
		"uptime":      int64(s.clock.Now().Sub(s.startedAt).Seconds()),
		"services":    components,
		"system_info": gin.H{
			"hostname":     hostname,
			"platform":     runtime.GOOS,
			"architecture": runtime.GOARCH,
			"go_version":   runtime.Version(),
			"goroutines":   runtime.NumGoroutine(),
			"memory_mb":    mem.Alloc / 1024 / 1024,
		},
	}
	if s.queueStats != nil {
		body["queue"] = s.queueStats()
	}
	c.JSON(http.StatusOK, body)
}

func (s *HTTPServer) runChecks(ctx context.Context) (map[string]ComponentHealth, bool) {
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	healthy := true
	components := make(map[string]ComponentHealth, len(names))
	for _, name := range names {
		start := time.Now()
		err := s.checks[name](ctx)
		h := ComponentHealth{Status: statusHealthy, ResponseTimeMs: time.Since(start).Milliseconds()}
		if err != nil {
			healthy = false
			h.Status = statusUnhealthy
			h.Message = err.Error()
			s.logger.Warn("Health check failed", "component", name, "error", err)
		}
		components[name] = h
	}
	return components, healthy
}
