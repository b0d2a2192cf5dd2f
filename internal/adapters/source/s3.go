package source

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ghalamif/InfraBoard/internal/domain"
)

type s3Opener struct {
	client *minio.Client
	bucket string
	key    string
}

func newS3Opener(cfg S3Config) (*s3Opener, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}
	return &s3Opener{client: client, bucket: cfg.Bucket, key: cfg.Key}, nil
}

func (s *s3Opener) open(ctx context.Context) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("s3 get object: %w", err)
	}
	// GetObject is lazy; Stat surfaces a missing key before the CSV reader does.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		switch minio.ToErrorResponse(err).Code {
		case "NoSuchKey", "NoSuchBucket":
			return nil, fmt.Errorf("s3://%s/%s: %w", s.bucket, s.key, domain.ErrDatasetNotFound)
		}
		return nil, fmt.Errorf("s3 stat object: %w", err)
	}
	return obj, nil
}

func (s *s3Opener) name() string { return fmt.Sprintf("s3:%s/%s", s.bucket, s.key) }
