package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/basekick-labs/sensorlog/internal/config"
	"github.com/rs/zerolog"
)

// New builds the backend selected by cfg.Backend. Remote backends are
// wrapped with retries and a circuit breaker.
func New(ctx context.Context, cfg config.StorageConfig, logger zerolog.Logger) (Backend, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "local":
		return NewLocalBackend(cfg.LocalPath, logger)
	}

	remote, err := newRemote(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	rc := DefaultResilientConfig()
	rc.MaxRetries = cfg.MaxRetries
	rc.MaxFailures = cfg.BreakerFailures
	if cfg.RetryDelay > 0 {
		rc.RetryDelay = cfg.RetryDelay
	}
	return NewResilientBackend(remote, rc, logger), nil
}

func newRemote(ctx context.Context, cfg config.StorageConfig, logger zerolog.Logger) (Backend, error) {
	switch strings.ToLower(cfg.Backend) {
	case "s3":
		return NewS3Backend(ctx, &S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseSSL:    cfg.S3UseSSL,
			PathStyle: cfg.S3PathStyle,
		}, logger)
	case "azure":
		return NewAzureBlobBackend(ctx, &AzureBlobConfig{
			ConnectionString:   cfg.AzureConnectionString,
			AccountName:        cfg.AzureAccountName,
			AccountKey:         cfg.AzureAccountKey,
			SASToken:           cfg.AzureSASToken,
			UseManagedIdentity: cfg.AzureUseManagedIdentity,
			ContainerName:      cfg.AzureContainer,
			Endpoint:           cfg.AzureEndpoint,
		}, logger)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}
