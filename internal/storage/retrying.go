package storage

import (
	"context"
	"errors"

	"github.com/minio/minio-go/v7"
	"github.com/rs/zerolog"

	"github.com/signchain/signchain/internal/model"
	"github.com/signchain/signchain/internal/resilience"
)

// Retrying runs uploads through the resilience executor. Transient HTTP and
// network failures are retried with jittered backoff.
type Retrying struct {
	next     Uploader
	executor *resilience.Executor
}

func NewRetrying(next Uploader, cfg resilience.Config, backend string, log zerolog.Logger) *Retrying {
	return &Retrying{
		next:     next,
		executor: resilience.NewExecutor("storage."+backend, cfg, classifyUploadError, log),
	}
}

func (r *Retrying) Upload(ctx context.Context, content []byte, fileName string) (model.StoredObject, error) {
	var stored model.StoredObject
	err := r.executor.Do(ctx, func(ctx context.Context) error {
		var err error
		stored, err = r.next.Upload(ctx, content, fileName)
		return err
	})
	if err != nil {
		return model.StoredObject{}, err
	}
	return stored, nil
}

func classifyUploadError(err error) resilience.ErrorClassification {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) && resp.StatusCode != 0 {
		retryable := resilience.IsRetryableHTTPStatus(resp.StatusCode)
		return resilience.ErrorClassification{Retryable: retryable, RecordFailure: retryable}
	}
	return resilience.ClassifyHTTPError(err)
}
