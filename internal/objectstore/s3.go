package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

// S3API is the subset of the S3 client used for object reads and writes.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Presigner signs PutObject requests.
type Presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Store is the S3-backed Gateway.
type S3Store struct {
	client    S3API
	presigner Presigner
	config    Config
	logger    *zap.Logger
}

var _ Gateway = (*S3Store)(nil)

// NewS3Store builds a Gateway over an S3 client.
func NewS3Store(client *s3.Client, config Config, logger *zap.Logger) (*S3Store, error) {
	return newS3Store(client, s3.NewPresignClient(client), config, logger)
}

func newS3Store(client S3API, presigner Presigner, config Config, logger *zap.Logger) (*S3Store, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid object store config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &S3Store{
		client:    client,
		presigner: presigner,
		config:    config,
		logger:    logger.Named("s3"),
	}, nil
}

func (s *S3Store) UploadURL(ctx context.Context, key string) (string, error) {
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.config.UploadBucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.config.URLExpiration))
	if err != nil {
		return "", fmt.Errorf("failed to presign upload of %s: %w", key, err)
	}

	s.logger.Debug("issued upload url",
		zap.String("bucket", s.config.UploadBucket),
		zap.String("key", key),
		zap.Duration("expires", s.config.URLExpiration))
	return req.URL, nil
}

func (s *S3Store) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, fmt.Errorf("%s/%s: %w", bucket, key, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("failed to get %s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s/%s: %w", bucket, key, err)
	}
	return body, nil
}

func (s *S3Store) PutObject(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to put %s/%s: %w", bucket, key, err)
	}

	s.logger.Debug("wrote object", zap.String("bucket", bucket), zap.String("key", key), zap.Int("bytes", len(body)))
	return nil
}

func (s *S3Store) ObjectURL(bucket, key string) string {
	return PublicURL(bucket, key)
}

func isNoSuchKey(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
