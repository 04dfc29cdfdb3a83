package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/joseph-ayodele/fleet-tracker/internal/common"
)

// Uploader is the part of *s3manager.Uploader the store uses.
type Uploader interface {
	UploadWithContext(ctx aws.Context, input *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error)
}

// Getter is the part of *s3.S3 the store uses.
type Getter interface {
	GetObjectWithContext(ctx aws.Context, input *s3.GetObjectInput, opts ...request.Option) (*s3.GetObjectOutput, error)
}

// S3Store keeps artifacts in a bucket under an optional key prefix.
type S3Store struct {
	bucket   string
	prefix   string
	uploader Uploader
	getter   Getter
	logger   *slog.Logger
}

// NewS3Store uses the default AWS credential chain.
func NewS3Store(bucket, region, prefix string, logger *slog.Logger) (*S3Store, error) {
	if bucket == "" {
		return nil, common.NewAppError(common.CodeConfig, "S3_BUCKET is required for the s3 storage backend", nil)
	}
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("aws session: %w", err)
	}
	return NewS3StoreWithClients(bucket, prefix, s3manager.NewUploader(sess), s3.New(sess), logger), nil
}

func NewS3StoreWithClients(bucket, prefix string, uploader Uploader, getter Getter, logger *slog.Logger) *S3Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &S3Store{
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
		uploader: uploader,
		getter:   getter,
		logger:   logger,
	}
}

func (s *S3Store) objectKey(key string) (string, error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	if s.prefix == "" {
		return k, nil
	}
	return path.Join(s.prefix, k), nil
}

func (s *S3Store) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	k, err := s.objectKey(key)
	if err != nil {
		return "", err
	}
	in := &s3manager.UploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(k),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}

	out, err := s.uploader.UploadWithContext(ctx, in)
	if err != nil {
		s.logger.Error("storage.put.failed", "backend", "s3", "bucket", s.bucket, "key", k, "error", err)
		return "", fmt.Errorf("upload s3://%s/%s: %w", s.bucket, k, err)
	}
	s.logger.Debug("storage.put.ok", "backend", "s3", "bucket", s.bucket, "key", k, "bytes", len(data))

	if out != nil && out.Location != "" {
		return out.Location, nil
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, k), nil
}

func (s *S3Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	k, err := s.objectKey(key)
	if err != nil {
		return nil, err
	}
	out, err := s.getter.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(k),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == s3.ErrCodeNoSuchKey {
			return nil, common.NotFound(fmt.Sprintf("artifact %q not found", k))
		}
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.bucket, k, err)
	}
	return out.Body, nil
}
