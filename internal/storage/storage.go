// Package storage uploads rendered documents to content-addressed storage.
package storage

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/signchain/signchain/internal/config"
	"github.com/signchain/signchain/internal/model"
	"github.com/signchain/signchain/internal/resilience"
)

const ContentTypePDF = "application/pdf"

type Uploader interface {
	Upload(ctx context.Context, content []byte, fileName string) (model.StoredObject, error)
}

// New selects the backend named by cfg.Backend and wraps it with retries.
func New(ctx context.Context, cfg config.StorageConfig, log zerolog.Logger) (Uploader, error) {
	var (
		backend Uploader
		err     error
	)
	switch cfg.Backend {
	case config.StoragePinata:
		backend = NewPinata(cfg.Pinata.APIURL, cfg.Pinata.JWT, nil)
	case config.StorageMinIO:
		backend, err = NewMinIO(ctx, cfg.MinIO)
	case config.StorageSimulated, "":
		log.Warn().Msg("storage is simulated, documents are not persisted")
		return NewSimulated(), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	retry := resilience.Config{
		MaxAttempts:    cfg.Retry.MaxAttempts,
		InitialBackoff: cfg.Retry.InitialBackoff,
		MaxBackoff:     cfg.Retry.MaxBackoff,
		Jitter:         resilience.DefaultConfig().Jitter,
		Breaker:        cfg.Retry.BreakerEnabled,
	}
	return NewRetrying(backend, retry, cfg.Backend, log), nil
}
