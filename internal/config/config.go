package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/WankioM/property-qr/internal/models"
	"github.com/WankioM/property-qr/pkg/validation"
)

type Config struct {
	Development bool   `yaml:"development"`
	LogLevel    string `yaml:"log_level"`
	// API configuration
	APIHost               string   `yaml:"api_host"`
	APIPort               int      `yaml:"api_port"`
	CORSOrigins           []string `yaml:"cors_origins"`
	RequestTimeoutSeconds int      `yaml:"request_timeout_seconds"`

	// Store configuration, "postgres" or "memory"
	StoreDriver      string `yaml:"store_driver"`
	PostgresUser     string `yaml:"postgres_user"`
	PostgresPassword string `yaml:"postgres_password"`
	PostgresHost     string `yaml:"postgres_host"`
	PostgresPort     int    `yaml:"postgres_port"`
	PostgresDB       string `yaml:"postgres_db"`

	// Object storage configuration, "s3" or "memory"
	StorageType        string `yaml:"storage_type"`
	AWSRegion          string `yaml:"aws_region"`
	AWSAccessKeyID     string `yaml:"aws_access_key_id"`
	AWSSecretAccessKey string `yaml:"aws_secret_access_key"`
	S3Bucket           string `yaml:"s3_bucket"`
	S3Endpoint         string `yaml:"s3_endpoint"`
	S3UsePathStyle     bool   `yaml:"s3_use_path_style"`
	CloudFrontDomain   string `yaml:"cloudfront_domain"`

	// Public URLs
	BaseURL                   string `yaml:"base_url"`
	DaobitatBaseURL           string `yaml:"daobitat_base_url"`
	BlockchainExplorerBaseURL string `yaml:"blockchain_explorer_base_url"`

	// QR configuration
	QR           models.QrGenerationSettings `yaml:"qr"`
	QrExpiryDays int                         `yaml:"qr_expiry_days"`

	// Batch configuration
	BatchMaxSize     int `yaml:"batch_max_size"`
	BatchConcurrency int `yaml:"batch_concurrency"`

	// Analytics configuration
	AnalyticsWorkers     int `yaml:"analytics_workers"`
	AnalyticsQueueSize   int `yaml:"analytics_queue_size"`
	AnalyticsMaxAttempts int `yaml:"analytics_max_attempts"`
	ScanRetentionDays    int `yaml:"scan_retention_days"`

	// Scheduler configuration, run times are HH:MM in UTC
	SchedulerEnabled         bool   `yaml:"scheduler_enabled"`
	RegenerationRunTime      string `yaml:"regeneration_run_time"`
	CleanupRunTime           string `yaml:"cleanup_run_time"`
	GenerateMissingEnabled   bool   `yaml:"generate_missing_enabled"`
	GenerateMissingRunTime   string `yaml:"generate_missing_run_time"`
	AnalyticsRefreshInterval string `yaml:"analytics_refresh_interval"`

	// SMTP configuration
	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUser     string `yaml:"smtp_user"`
	SMTPPassword string `yaml:"smtp_password"`
	SMTPSender   string `yaml:"smtp_sender"`
	OpsEmail     string `yaml:"ops_email"`

	// Notification configuration
	TelegramBotToken string `yaml:"telegram_bot_token"`
	TelegramChatID   string `yaml:"telegram_chat_id"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:                  "info",
		APIHost:                   "0.0.0.0",
		APIPort:                   3000,
		CORSOrigins:               []string{"http://localhost:3000", "https://daobitat.xyz"},
		RequestTimeoutSeconds:     30,
		StoreDriver:               "postgres",
		PostgresUser:              "postgres",
		PostgresPassword:          "password",
		PostgresHost:              "localhost",
		PostgresPort:              5432,
		PostgresDB:                "property_qr",
		StorageType:               "s3",
		AWSRegion:                 "us-east-1",
		S3Bucket:                  "daobitat-qr-codes",
		BaseURL:                   "https://qr-service.daobitat.xyz",
		DaobitatBaseURL:           "https://www.daobitat.xyz",
		BlockchainExplorerBaseURL: "https://basescan.org",
		QR:                        models.DefaultQrGenerationSettings(),
		QrExpiryDays:              365,
		BatchMaxSize:              100,
		BatchConcurrency:          8,
		AnalyticsWorkers:          4,
		AnalyticsQueueSize:        1024,
		AnalyticsMaxAttempts:      3,
		ScanRetentionDays:         365,
		SchedulerEnabled:          true,
		RegenerationRunTime:       "03:00",
		CleanupRunTime:            "04:00",
		GenerateMissingRunTime:    "02:30",
		AnalyticsRefreshInterval:  "15m",
		SMTPHost:                  "smtp.example.com",
		SMTPPort:                  587,
	}
}

// LoadConfig builds the configuration from defaults, an optional YAML file
// named by CONFIG_FILE and environment variables, in that order.
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if path := getEnv("CONFIG_FILE", ""); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile overlays the YAML file at path onto c. Keys missing from the file
// keep their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Development = getEnvAsBool("DEVELOPMENT", c.Development)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.APIHost = getEnv("HOST", c.APIHost)
	c.APIPort = getEnvAsInt("PORT", c.APIPort)
	c.CORSOrigins = getEnvAsList("CORS_ORIGINS", c.CORSOrigins)
	c.RequestTimeoutSeconds = getEnvAsInt("REQUEST_TIMEOUT_SECONDS", c.RequestTimeoutSeconds)

	c.StoreDriver = getEnv("STORE_DRIVER", c.StoreDriver)
	c.PostgresUser = getEnv("POSTGRES_USER", c.PostgresUser)
	c.PostgresPassword = getEnv("POSTGRES_PASSWORD", c.PostgresPassword)
	c.PostgresHost = getEnv("POSTGRES_HOST", c.PostgresHost)
	c.PostgresPort = getEnvAsInt("POSTGRES_PORT", c.PostgresPort)
	c.PostgresDB = getEnv("POSTGRES_DB", c.PostgresDB)

	c.StorageType = getEnv("STORAGE_TYPE", c.StorageType)
	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.AWSAccessKeyID = getEnv("AWS_ACCESS_KEY_ID", c.AWSAccessKeyID)
	c.AWSSecretAccessKey = getEnv("AWS_SECRET_ACCESS_KEY", c.AWSSecretAccessKey)
	c.S3Bucket = getEnv("S3_BUCKET", c.S3Bucket)
	c.S3Endpoint = getEnv("S3_ENDPOINT", c.S3Endpoint)
	c.S3UsePathStyle = getEnvAsBool("S3_USE_PATH_STYLE", c.S3UsePathStyle)
	c.CloudFrontDomain = getEnv("CLOUDFRONT_DOMAIN", c.CloudFrontDomain)

	c.BaseURL = getEnv("BASE_URL", c.BaseURL)
	c.DaobitatBaseURL = getEnv("DAOBITAT_BASE_URL", c.DaobitatBaseURL)
	c.BlockchainExplorerBaseURL = getEnv("BLOCKCHAIN_EXPLORER_BASE_URL", c.BlockchainExplorerBaseURL)

	c.QR.Size = getEnvAsInt("QR_DEFAULT_SIZE", c.QR.Size)
	c.QR.ErrorCorrection = getEnv("QR_ERROR_CORRECTION", c.QR.ErrorCorrection)
	c.QR.IncludeLogo = getEnvAsBool("QR_INCLUDE_LOGO", c.QR.IncludeLogo)
	c.QR.LogoURL = getEnv("QR_LOGO_URL", c.QR.LogoURL)
	c.QR.BackgroundColor = getEnv("QR_BACKGROUND_COLOR", c.QR.BackgroundColor)
	c.QR.ForegroundColor = getEnv("QR_FOREGROUND_COLOR", c.QR.ForegroundColor)
	c.QR.Format = getEnv("QR_FORMAT", c.QR.Format)
	c.QrExpiryDays = getEnvAsInt("QR_EXPIRY_DAYS", c.QrExpiryDays)

	c.BatchMaxSize = getEnvAsInt("BATCH_MAX_SIZE", c.BatchMaxSize)
	c.BatchConcurrency = getEnvAsInt("BATCH_CONCURRENCY", c.BatchConcurrency)

	c.AnalyticsWorkers = getEnvAsInt("ANALYTICS_WORKERS", c.AnalyticsWorkers)
	c.AnalyticsQueueSize = getEnvAsInt("ANALYTICS_QUEUE_SIZE", c.AnalyticsQueueSize)
	c.AnalyticsMaxAttempts = getEnvAsInt("ANALYTICS_MAX_ATTEMPTS", c.AnalyticsMaxAttempts)
	c.ScanRetentionDays = getEnvAsInt("SCAN_RETENTION_DAYS", c.ScanRetentionDays)

	c.SchedulerEnabled = getEnvAsBool("SCHEDULER_ENABLED", c.SchedulerEnabled)
	c.RegenerationRunTime = getEnv("REGENERATION_RUN_TIME", c.RegenerationRunTime)
	c.CleanupRunTime = getEnv("CLEANUP_RUN_TIME", c.CleanupRunTime)
	c.GenerateMissingEnabled = getEnvAsBool("GENERATE_MISSING_ENABLED", c.GenerateMissingEnabled)
	c.GenerateMissingRunTime = getEnv("GENERATE_MISSING_RUN_TIME", c.GenerateMissingRunTime)
	c.AnalyticsRefreshInterval = getEnv("ANALYTICS_REFRESH_INTERVAL", c.AnalyticsRefreshInterval)

	c.SMTPHost = getEnv("SMTP_HOST", c.SMTPHost)
	c.SMTPPort = getEnvAsInt("SMTP_PORT", c.SMTPPort)
	c.SMTPUser = getEnv("SMTP_USER", c.SMTPUser)
	c.SMTPPassword = getEnv("SMTP_PASSWORD", c.SMTPPassword)
	c.SMTPSender = getEnv("SMTP_SENDER", c.SMTPSender)
	c.OpsEmail = getEnv("OPS_EMAIL", c.OpsEmail)

	c.TelegramBotToken = getEnv("TELEGRAM_BOT_TOKEN", c.TelegramBotToken)
	c.TelegramChatID = getEnv("TELEGRAM_CHAT_ID", c.TelegramChatID)
}

// RequestTimeout is the per-request deadline applied by the HTTP server.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// Validate checks that all required configuration fields are properly set
func (c *Config) Validate() error {
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	for name, u := range map[string]string{
		"BASE_URL":                     c.BaseURL,
		"DAOBITAT_BASE_URL":            c.DaobitatBaseURL,
		"BLOCKCHAIN_EXPLORER_BASE_URL": c.BlockchainExplorerBaseURL,
	} {
		if err := validation.ValidateBaseURL(u); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	switch c.StoreDriver {
	case "memory":
	case "postgres":
		if c.PostgresDB == "" {
			return fmt.Errorf("POSTGRES_DB is required")
		}
		if c.PostgresHost == "" {
			return fmt.Errorf("POSTGRES_HOST is required")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER: %s", c.StoreDriver)
	}

	switch c.StorageType {
	case "memory":
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required")
		}
		if c.AWSRegion == "" {
			return fmt.Errorf("AWS_REGION is required")
		}
	default:
		return fmt.Errorf("unknown STORAGE_TYPE: %s", c.StorageType)
	}

	if err := c.validateQR(); err != nil {
		return err
	}

	if c.BatchMaxSize <= 0 || c.BatchConcurrency <= 0 {
		return fmt.Errorf("BATCH_MAX_SIZE and BATCH_CONCURRENCY must be positive")
	}
	if c.AnalyticsWorkers <= 0 || c.AnalyticsQueueSize <= 0 || c.AnalyticsMaxAttempts <= 0 {
		return fmt.Errorf("analytics worker settings must be positive")
	}
	if c.ScanRetentionDays <= 0 {
		return fmt.Errorf("SCAN_RETENTION_DAYS must be positive")
	}

	for name, v := range map[string]string{
		"REGENERATION_RUN_TIME":     c.RegenerationRunTime,
		"CLEANUP_RUN_TIME":          c.CleanupRunTime,
		"GENERATE_MISSING_RUN_TIME": c.GenerateMissingRunTime,
	} {
		if _, err := time.Parse("15:04", v); err != nil {
			return fmt.Errorf("invalid %s %q: expected HH:MM", name, v)
		}
	}
	if _, err := time.ParseDuration(c.AnalyticsRefreshInterval); err != nil {
		return fmt.Errorf("invalid ANALYTICS_REFRESH_INTERVAL: %w", err)
	}

	return nil
}

func (c *Config) validateQR() error {
	if c.QR.Size < 64 || c.QR.Size > 2048 {
		return fmt.Errorf("QR_DEFAULT_SIZE must be between 64 and 2048")
	}
	switch strings.ToLower(c.QR.ErrorCorrection) {
	case "low", "medium", "quartile", "high":
	default:
		return fmt.Errorf("unknown QR_ERROR_CORRECTION: %s", c.QR.ErrorCorrection)
	}
	if err := validation.ValidateHexColor(c.QR.BackgroundColor); err != nil {
		return fmt.Errorf("invalid QR_BACKGROUND_COLOR: %w", err)
	}
	if err := validation.ValidateHexColor(c.QR.ForegroundColor); err != nil {
		return fmt.Errorf("invalid QR_FOREGROUND_COLOR: %w", err)
	}
	if c.QR.Format != "png" {
		return fmt.Errorf("unsupported QR_FORMAT: %s", c.QR.Format)
	}
	if c.QrExpiryDays <= 0 {
		return fmt.Errorf("QR_EXPIRY_DAYS must be positive")
	}
	return nil
}

// Helper functions to read environment variables
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(name string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsBool(name string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := strconv.ParseBool(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsList(name string, defaultValue []string) []string {
	valueStr, exists := os.LookupEnv(name)
	if !exists {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// AnalyticsRefreshEvery is the parsed analytics refresh interval, zero when
// the value does not parse.
func (c *Config) AnalyticsRefreshEvery() time.Duration {
	d, err := time.ParseDuration(c.AnalyticsRefreshInterval)
	if err != nil {
		return 0
	}
	return d
}
