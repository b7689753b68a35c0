package repository

import (
	"fmt"

	"github.com/WankioM/property-qr/internal/config"
	"github.com/WankioM/property-qr/internal/models"
	"github.com/WankioM/property-qr/internal/repository/memory"
	"github.com/WankioM/property-qr/pkg/logger"
)

// NewRepositoryFromConfig creates a Repository for the configured store driver.
func NewRepositoryFromConfig(cfg *config.Config, logger *logger.Logger) (models.Repository, error) {
	switch cfg.StoreDriver {
	case "memory":
		logger.Warn("Using in-memory store, data is lost on restart")
		return memory.NewStore(), nil
	case "postgres":
		return NewPostgresDB(cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDB, cfg.PostgresHost, cfg.PostgresPort, logger)
	default:
		return nil, fmt.Errorf("unknown store driver: %s", cfg.StoreDriver)
	}
}
