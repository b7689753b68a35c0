package http_api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WankioM/property-qr/internal/analytics"
	"github.com/WankioM/property-qr/internal/generator"
	"github.com/WankioM/property-qr/internal/models"
	"github.com/WankioM/property-qr/internal/property"
	"github.com/WankioM/property-qr/internal/redirect"
	"github.com/WankioM/property-qr/internal/repository/memory"
	"github.com/WankioM/property-qr/internal/testutil"
	"github.com/WankioM/property-qr/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type apiFixture struct {
	server *HTTPServer
	repo   *memory.Store
	checks map[string]HealthCheck
}

func newAPIFixture(t *testing.T, props ...*models.Property) *apiFixture {
	t.Helper()
	repo := memory.NewStore()
	for _, p := range props {
		repo.AddProperty(p)
	}
	clk := testutil.FixedClock()
	ids := testutil.NewStubIDGenerator()
	log := logger.NewNopLogger()
	properties := property.NewService(repo, clk, log)

	gen := generator.NewGenerator(generator.Deps{
		Repo:       repo,
		Properties: properties,
		Encoder:    &testutil.Encoder{},
		Store:      testutil.NewStore(),
		Clock:      clk,
		IDs:        ids,
		Logger:     log,
	}, generator.Config{
		BaseURL:          "https://qr.test",
		Settings:         models.DefaultQrGenerationSettings(),
		BatchConcurrency: 2,
	})
	agg := analytics.NewAggregator(analytics.Deps{
		Scans:      repo,
		Qrs:        repo,
		Properties: properties,
		Queue:      &testutil.Queue{},
		Clock:      clk,
		IDs:        ids,
		Logger:     log,
	})
	engine := redirect.NewEngine(properties, agg, clk, log, redirect.Config{
		DaobitatBaseURL:           "https://daobitat.test",
		BlockchainExplorerBaseURL: "https://explorer.test",
		ServiceBaseURL:            "https://qr.test",
	})

	f := &apiFixture{repo: repo, checks: map[string]HealthCheck{"database": repo.Ping}}
	f.server = NewHTTPServer(Services{
		Qr:         gen,
		Analytics:  agg,
		Scans:      engine,
		Clock:      clk,
		Checks:     f.checks,
		QueueStats: func() any { return gin.H{"queued": 0} },
	}, ServerConfig{BatchMaxSize: 3, Version: "test"}, log)
	return f
}

func (f *apiFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Linux; Android 14; Pixel 8) Mobile")
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Path    string          `json:"path"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	env := decode(t, rec)
	require.True(t, env.Success, rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", models.ErrValidation("bad"), http.StatusBadRequest},
		{"invalid id", models.ErrInvalidPropertyID("x y", errors.New("bad")), http.StatusBadRequest},
		{"property not found", models.ErrPropertyNotFound("p1"), http.StatusNotFound},
		{"qr not found", models.ErrQrNotFound("p1"), http.StatusNotFound},
		{"conflict", models.ErrConflict("p1", models.ErrVersionConflict), http.StatusConflict},
		{"ineligible", models.ErrPropertyNotEligible("p1", "Property has no images"), http.StatusUnprocessableEntity},
		{"generation", models.ErrQrGenerationFailed("p1", errors.New("encode")), http.StatusInternalServerError},
		{"upload", models.ErrUploadFailed("p1", errors.New("s3")), http.StatusBadGateway},
		{"database", models.ErrDatabase("p1", errors.New("down")), http.StatusInternalServerError},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestGenerateQr(t *testing.T) {
	removed := testutil.NewProperty("gone")
	yes := true
	removed.Removed = &yes
	f := newAPIFixture(t, testutil.NewProperty("p1"), removed)

	rec := f.do(t, http.MethodPost, "/api/v1/qr/generate/p1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp models.QrCodeResponse
	decodeData(t, rec, &resp)
	assert.Equal(t, "p1", resp.PropertyID)
	assert.Equal(t, models.QrStatusGenerated, resp.Status)
	assert.Equal(t, 1, resp.QrVersion)
	assert.Equal(t, "https://qr.test/scan/p1", resp.ScanURL)

	rec = f.do(t, http.MethodPost, "/api/v1/qr/generate/p1", models.GenerateQrRequest{PropertyID: "p1"})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &resp)
	assert.Equal(t, models.QrStatusExists, resp.Status)

	tests := []struct {
		name   string
		path   string
		body   any
		status int
		code   string
	}{
		{"body mismatch", "/api/v1/qr/generate/p1", models.GenerateQrRequest{PropertyID: "p2"}, http.StatusBadRequest, "validation_error"},
		{"bad reason", "/api/v1/qr/generate/p1", map[string]string{"reason": "whim"}, http.StatusBadRequest, "validation_error"},
		{"missing property", "/api/v1/qr/generate/nope", nil, http.StatusNotFound, "property_not_found"},
		{"ineligible", "/api/v1/qr/generate/gone", nil, http.StatusUnprocessableEntity, "property_not_eligible"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			env := decode(t, rec)
			assert.False(t, env.Success)
			assert.Equal(t, tt.code, env.Error)
			assert.Equal(t, tt.path, env.Path)
		})
	}
}

func TestBatchGenerateQr(t *testing.T) {
	f := newAPIFixture(t, testutil.NewProperty("p1"), testutil.NewProperty("p2"))

	rec := f.do(t, http.MethodPost, "/api/v1/qr/generate/batch", models.BatchGenerateQrRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Property IDs list cannot be empty", decode(t, rec).Message)

	rec = f.do(t, http.MethodPost, "/api/v1/qr/generate/batch", models.BatchGenerateQrRequest{PropertyIDs: []string{"a", "b", "c", "d"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Cannot process more than 3 properties at once", decode(t, rec).Message)

	rec = f.do(t, http.MethodPost, "/api/v1/qr/generate/batch", models.BatchGenerateQrRequest{PropertyIDs: []string{"p1", "missing", "p2"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp models.BatchQrCodeResponse
	decodeData(t, rec, &resp)
	assert.Equal(t, 3, resp.TotalRequested)
	assert.Equal(t, 2, resp.TotalSuccessful)
	assert.Equal(t, 1, resp.TotalFailed)
	require.Len(t, resp.Failed, 1)
	assert.Equal(t, "missing", resp.Failed[0].PropertyID)
}

func TestGenerateMissingQr(t *testing.T) {
	f := newAPIFixture(t, testutil.NewProperty("p1"), testutil.NewProperty("p2"))
	f.do(t, http.MethodPost, "/api/v1/qr/generate/p1", nil)

	rec := f.do(t, http.MethodPost, "/api/v1/qr/generate/missing", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp models.BatchQrCodeResponse
	decodeData(t, rec, &resp)
	assert.Equal(t, 1, resp.TotalRequested)
	require.Len(t, resp.Successful, 1)
	assert.Equal(t, "p2", resp.Successful[0].PropertyID)
}

func TestQrLifecycleEndpoints(t *testing.T) {
	f := newAPIFixture(t, testutil.NewProperty("p1"))

	rec := f.do(t, http.MethodGet, "/api/v1/qr/p1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "qr_not_found", decode(t, rec).Error)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/v1/qr/generate/p1", nil).Code)

	rec = f.do(t, http.MethodGet, "/api/v1/qr/p1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var qr models.QrCodeMetadata
	decodeData(t, rec, &qr)
	assert.Equal(t, "p1", qr.PropertyID)
	assert.True(t, qr.IsActive)

	rec = f.do(t, http.MethodPut, "/api/v1/qr/regenerate/p1?reason=whim", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPut, "/api/v1/qr/regenerate/p1?reason=property_updated", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var regen models.QrCodeResponse
	decodeData(t, rec, &regen)
	assert.Equal(t, models.QrStatusRegenerated, regen.Status)
	assert.Equal(t, 2, regen.QrVersion)

	rec = f.do(t, http.MethodPatch, "/api/v1/qr/deactivate/p1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var deactivated map[string]any
	decodeData(t, rec, &deactivated)
	assert.Equal(t, true, deactivated["deactivated"])

	rec = f.do(t, http.MethodGet, "/api/v1/qr?active_only=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var active []models.QrCodeMetadata
	decodeData(t, rec, &active)
	assert.Empty(t, active)

	rec = f.do(t, http.MethodGet, "/api/v1/qr?limit=ten", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/v1/qr/p1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/v1/qr/p1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "QR code not found for deletion", decode(t, rec).Message)

	rec = f.do(t, http.MethodPatch, "/api/v1/qr/deactivate/p1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "QR code not found for deactivation", decode(t, rec).Message)
}

func TestScanRedirects(t *testing.T) {
	f := newAPIFixture(t, testutil.NewProperty("p1"), testutil.NewOnchainProperty("p2", "0xabc"))

	rec := f.do(t, http.MethodGet, "/scan/p1?source=share&utm_source=flyer", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://daobitat.test/property/p1", rec.Header().Get("Location"))
	assert.Contains(t, rec.Header().Get("Cache-Control"), "no-store")

	rec = f.do(t, http.MethodGet, "/scan/p2?redirect=blockchain", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://explorer.test/token/0xabc", rec.Header().Get("Location"))

	rec = f.do(t, http.MethodGet, "/scan/p2", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "View on Base Explorer")

	rec = f.do(t, http.MethodGet, "/scan/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Property not found")

	events := f.repo.ScanEvents()
	require.Len(t, events, 4)
	assert.Equal(t, models.ScanSourceShareLink, events[0].ScanSource)
	assert.Equal(t, "flyer", events[0].Metadata["utm_source"])
	require.NotNil(t, events[0].Device)
	assert.Equal(t, models.DeviceMobile, events[0].Device.DeviceType)
	assert.Equal(t, models.RedirectFailed, events[3].RedirectType)
	assert.Len(t, f.repo.Clicks("p2"), 2)
}

func TestScanData(t *testing.T) {
	f := newAPIFixture(t, testutil.NewOnchainProperty("p2", "0xabc"))

	for _, path := range []string{"/api/scan/p2", "/api/v1/scan/p2"} {
		rec := f.do(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp models.ScanResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, "dual", resp.RedirectType)
		assert.Equal(t, "https://qr.test/scan/p2", resp.URLs.RedirectPageURL)
		assert.NotEmpty(t, resp.ScanID)
	}

	rec := f.do(t, http.MethodGet, "/api/v1/scan/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "property_not_found", decode(t, rec).Error)
}

func TestAnalyticsEndpoints(t *testing.T) {
	f := newAPIFixture(t, testutil.NewProperty("p1"))
	f.do(t, http.MethodGet, "/scan/p1", nil)
	f.do(t, http.MethodGet, "/scan/p1", nil)

	rec := f.do(t, http.MethodGet, "/api/v1/analytics/properties/p1?recent=true", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp models.ScanAnalyticsResponse
	decodeData(t, rec, &resp)
	assert.Equal(t, int64(2), resp.Analytics.TotalScans)
	assert.Len(t, resp.RecentScans, 2)

	rec = f.do(t, http.MethodGet, "/api/v1/analytics/properties/p1?recent=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/analytics/properties/p1/trends?days=7", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var trends struct {
		Trends []models.DailyScanCount `json:"trends"`
	}
	decodeData(t, rec, &trends)
	assert.Equal(t, []models.DailyScanCount{{Date: "2024-01-17", Count: 2}}, trends.Trends)

	rec = f.do(t, http.MethodGet, "/api/v1/analytics/system?compare=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var system models.SystemAnalyticsResponse
	decodeData(t, rec, &system)
	assert.Equal(t, int64(2), system.Analytics.TotalScansAllTime)
	require.NotNil(t, system.PeriodComparison)
	assert.Equal(t, int64(2), system.PeriodComparison.CurrentPeriod.TotalScans)

	rec = f.do(t, http.MethodGet, "/api/v1/analytics/top?limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var top []models.PropertyPerformance
	decodeData(t, rec, &top)
	require.Len(t, top, 1)
	assert.Equal(t, "Garden Villa p1", top[0].PropertyName)
}

func TestHealthEndpoints(t *testing.T) {
	f := newAPIFixture(t)

	for _, path := range []string{"/health", "/health/live", "/scan/health", "/health/ready", "/health/detailed"} {
		rec := f.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	f.checks["storage"] = func(context.Context) error { return errors.New("bucket unreachable") }

	rec := f.do(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = f.do(t, http.MethodGet, "/health/detailed", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Status   string                     `json:"status"`
		Services map[string]ComponentHealth `json:"services"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, statusUnhealthy, body.Status)
	assert.Equal(t, statusHealthy, body.Services["database"].Status)
	assert.Equal(t, "bucket unreachable", body.Services["storage"].Message)
}
