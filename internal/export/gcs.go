package export

import (
	"context"
	"fmt"
	"path"
	"time"

	"cloud.google.com/go/storage"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"simreg/internal/logger"
)

// ObjectStore saves bytes as an object in a bucket.
type ObjectStore interface {
	SaveBytes(ctx context.Context, bucketName string, objectName string, data []byte) error
}

type gcsStore struct {
	client *storage.Client
}

// NewObjectStore adapts a Cloud Storage client to ObjectStore.
func NewObjectStore(client *storage.Client) ObjectStore {
	return &gcsStore{client: client}
}

func (s *gcsStore) SaveBytes(ctx context.Context, bucketName string, objectName string, data []byte) error {
	writer := s.client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	writer.ContentType = "image/png"

	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write to GCS: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

// GCSSink uploads cards to a bucket, retrying failed uploads at a constant
// interval.
type GCSSink struct {
	store      ObjectStore
	bucket     string
	prefix     string
	maxRetries uint64
	wait       time.Duration
	log        zerolog.Logger
}

// NewGCSSink creates a sink writing to bucket under prefix.
func NewGCSSink(store ObjectStore, bucket, prefix string, maxRetries int, wait time.Duration) *GCSSink {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &GCSSink{
		store:      store,
		bucket:     bucket,
		prefix:     prefix,
		maxRetries: uint64(maxRetries),
		wait:       wait,
		log:        logger.WithComponent("export.gcs"),
	}
}

func (s *GCSSink) Name() string { return "gcs" }

func (s *GCSSink) Save(ctx context.Context, object string, data []byte) (string, error) {
	name := path.Join(s.prefix, object)
	attempt := 0

	location, err := backoff.RetryWithData(func() (string, error) {
		attempt++
		if err := s.store.SaveBytes(ctx, s.bucket, name, data); err != nil {
			if ctx.Err() != nil {
				return "", backoff.Permanent(err)
			}
			s.log.Warn().Err(err).Int("attempt", attempt).Str("object", name).Msg("Upload failed")
			return "", err
		}
		return fmt.Sprintf("gs://%s/%s", s.bucket, name), nil
	}, backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(s.wait), s.maxRetries), ctx))
	if err != nil {
		return "", &ExportError{Sink: s.Name(), Object: name, Err: err}
	}
	return location, nil
}
