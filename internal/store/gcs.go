package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	"cloud.google.com/go/storage"
	"github.com/pagecurl-labs/flipbookd/internal/domain"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/iterator"
)

// GCS stores flipbook artifacts in a Cloud Storage bucket.
type GCS struct {
	client *storage.Client
	bucket string
}

// NewGCS creates an artifact store over an existing Cloud Storage client.
func NewGCS(client *storage.Client, bucket string) *GCS {
	return &GCS{client: client, bucket: bucket}
}

// Upload writes data to the named object and returns its public URL.
func (s *GCS) Upload(ctx context.Context, object, contentType string, data []byte) (string, error) {
	writer := s.client.Bucket(s.bucket).Object(object).NewWriter(ctx)
	writer.ContentType = contentType

	if _, err := io.Copy(writer, bytes.NewReader(data)); err != nil {
		_ = writer.Close()
		return "", domain.StorageError(fmt.Sprintf("failed to write object %s", object), err)
	}
	if err := writer.Close(); err != nil {
		return "", domain.StorageError(fmt.Sprintf("failed to finalize object %s", object), err)
	}

	return s.publicURL(object), nil
}

// Delete removes a single object, reporting domain.ErrBlobNotFound when the
// object is already gone.
func (s *GCS) Delete(ctx context.Context, object string) error {
	err := s.client.Bucket(s.bucket).Object(object).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return domain.ErrBlobNotFound
	}
	if err != nil {
		return domain.StorageError(fmt.Sprintf("failed to delete object %s", object), err)
	}
	return nil
}

// DeleteAll removes every object under prefix, deleting concurrently once the
// listing is complete.
func (s *GCS) DeleteAll(ctx context.Context, prefix string) error {
	query := &storage.Query{Prefix: prefix}
	it := s.client.Bucket(s.bucket).Objects(ctx, query)

	var objects []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return domain.StorageError(fmt.Sprintf("failed to list objects under %s", prefix), err)
		}
		objects = append(objects, attrs.Name)
	}

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(10)
	for _, object := range objects {
		eg.Go(func() error {
			err := s.Delete(gctx, object)
			if errors.Is(err, domain.ErrBlobNotFound) {
				return nil
			}
			return err
		})
	}
	return eg.Wait()
}

func (s *GCS) publicURL(object string) string {
	u := url.URL{
		Scheme: "https",
		Host:   "storage.googleapis.com",
		Path:   fmt.Sprintf("/%s/%s", s.bucket, object),
	}
	return u.String()
}
