package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 3000, cfg.APIPort)
	assert.Equal(t, "https://qr-service.daobitat.xyz", cfg.BaseURL)
	assert.Equal(t, "https://basescan.org", cfg.BlockchainExplorerBaseURL)
	assert.Equal(t, 256, cfg.QR.Size)
	assert.Equal(t, 365, cfg.QrExpiryDays)
	assert.Equal(t, 15*time.Minute, cfg.AnalyticsRefreshEvery())

	cfg.AnalyticsRefreshInterval = "soon"
	assert.Zero(t, cfg.AnalyticsRefreshEvery())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("CORS_ORIGINS", "https://a.test, https://b.test,")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("STORAGE_TYPE", "memory")
	t.Setenv("QR_DEFAULT_SIZE", "512")
	t.Setenv("DEVELOPMENT", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.APIPort)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, 512, cfg.QR.Size)
	assert.True(t, cfg.Development)
}

func TestLoadConfigIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.APIPort)
}

func TestYAMLOverlayThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_port: 9000
storage_type: memory
base_url: https://qr.example.com
qr:
  size: 1024
  foreground_color: "#112233"
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("BASE_URL", "https://env.example.com")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.APIPort)
	assert.Equal(t, "memory", cfg.StorageType)
	assert.Equal(t, 1024, cfg.QR.Size)
	assert.Equal(t, "#112233", cfg.QR.ForegroundColor)
	assert.Equal(t, "#FFFFFF", cfg.QR.BackgroundColor)
	assert.Equal(t, "https://env.example.com", cfg.BaseURL)
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad port", func(c *Config) { c.APIPort = 0 }},
		{"trailing slash base url", func(c *Config) { c.BaseURL = "https://qr.example.com/" }},
		{"unknown store driver", func(c *Config) { c.StoreDriver = "mongo" }},
		{"missing postgres db", func(c *Config) { c.PostgresDB = "" }},
		{"unknown storage", func(c *Config) { c.StorageType = "gcs" }},
		{"missing bucket", func(c *Config) { c.S3Bucket = "" }},
		{"qr too small", func(c *Config) { c.QR.Size = 10 }},
		{"bad error correction", func(c *Config) { c.QR.ErrorCorrection = "extreme" }},
		{"bad colour", func(c *Config) { c.QR.BackgroundColor = "white" }},
		{"unsupported format", func(c *Config) { c.QR.Format = "svg" }},
		{"zero workers", func(c *Config) { c.AnalyticsWorkers = 0 }},
		{"bad run time", func(c *Config) { c.CleanupRunTime = "25:00" }},
		{"bad refresh interval", func(c *Config) { c.AnalyticsRefreshInterval = "often" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
