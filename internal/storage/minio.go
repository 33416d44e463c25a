package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/signchain/signchain/internal/config"
	"github.com/signchain/signchain/internal/model"
)

// MinIO keeps documents in an S3 bucket keyed by their locally computed CID.
type MinIO struct {
	client *minio.Client
	bucket string
}

func NewMinIO(ctx context.Context, cfg config.MinIOConfig) (*MinIO, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	s := &MinIO{client: client, bucket: cfg.Bucket}
	if err := s.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MinIO) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

func (s *MinIO) Upload(ctx context.Context, content []byte, fileName string) (model.StoredObject, error) {
	id, err := ComputeCID(content)
	if err != nil {
		return model.StoredObject{}, err
	}
	key := id.String()

	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType:  ContentTypePDF,
		UserMetadata: map[string]string{"filename": fileName},
	})
	if err != nil {
		return model.StoredObject{}, fmt.Errorf("minio upload: %w", err)
	}
	return model.StoredObject{CID: key, URI: fmt.Sprintf("s3://%s/%s", s.bucket, key)}, nil
}
