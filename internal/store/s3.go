package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/pagecurl-labs/flipbookd/internal/domain"
)

// S3Options configures the S3 artifact store. Endpoint is the base URL of a
// MinIO or other S3-compatible service; leave it empty for AWS itself.
type S3Options struct {
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// S3 stores flipbook artifacts in an S3-compatible bucket.
type S3 struct {
	client *s3.Client
	opts   S3Options
}

// NewS3 builds the S3 client from static credentials and returns the store.
func NewS3(ctx context.Context, opts S3Options) (*S3, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(opts.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKey,
			opts.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 configuration: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3{client: client, opts: opts}, nil
}

// Upload writes data to the named object and returns its public URL.
func (s *S3) Upload(ctx context.Context, object, contentType string, data []byte) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.opts.Bucket),
		Key:         aws.String(object),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", domain.StorageError(fmt.Sprintf("failed to write object %s", object), err)
	}

	return s.publicURL(object), nil
}

// Delete removes a single object. S3 deletes are silent for missing keys, so
// the object is checked first to keep the not-found contract.
func (s *S3) Delete(ctx context.Context, object string) error {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(object),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return domain.ErrBlobNotFound
		}
		return domain.StorageError(fmt.Sprintf("failed to stat object %s", object), err)
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(object),
	})
	if err != nil {
		return domain.StorageError(fmt.Sprintf("failed to delete object %s", object), err)
	}
	return nil
}

// DeleteAll removes every object under prefix.
func (s *S3) DeleteAll(ctx context.Context, prefix string) error {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.opts.Bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return domain.StorageError(fmt.Sprintf("failed to list objects under %s", prefix), err)
		}
		for _, obj := range page.Contents {
			_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(s.opts.Bucket),
				Key:    obj.Key,
			})
			if err != nil {
				return domain.StorageError(fmt.Sprintf("failed to delete object %s", aws.ToString(obj.Key)), err)
			}
		}
	}
	return nil
}

func (s *S3) publicURL(object string) string {
	if s.opts.Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(s.opts.Endpoint, "/"), s.opts.Bucket, object)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.opts.Bucket, s.opts.Region, object)
}
