package storage

import (
	"context"
	"fmt"

	"github.com/WankioM/property-qr/internal/config"
	"github.com/WankioM/property-qr/internal/models"
	"github.com/WankioM/property-qr/pkg/logger"
)

// NewObjectStoreFromConfig creates an ObjectStore based on the storage type.
func NewObjectStoreFromConfig(ctx context.Context, cfg *config.Config, logger *logger.Logger) (models.ObjectStore, error) {
	switch cfg.StorageType {
	case "memory":
		return NewMemoryStore(cfg.S3Bucket), nil
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("s3 storage requires a bucket")
		}
		return NewS3Store(ctx, S3Config{
			Region:           cfg.AWSRegion,
			Bucket:           cfg.S3Bucket,
			AccessKeyID:      cfg.AWSAccessKeyID,
			SecretAccessKey:  cfg.AWSSecretAccessKey,
			Endpoint:         cfg.S3Endpoint,
			UsePathStyle:     cfg.S3UsePathStyle,
			CloudFrontDomain: cfg.CloudFrontDomain,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.StorageType)
	}
}
