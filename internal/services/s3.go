package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/codeatpanorama/vision-flow/internal/config"
	"github.com/codeatpanorama/vision-flow/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3ImageStore archives check images in an S3 bucket
type S3ImageStore struct {
	client   *s3.Client
	bucket   string
	region   string
	endpoint string // Custom endpoint for MinIO/S3-compatible services
	prefix   string
}

// NewS3ImageStore creates a new S3 image store
func NewS3ImageStore(ctx context.Context, cfg config.S3Config) (*S3ImageStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var client *s3.Client
	if cfg.Endpoint != "" {
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true // Required for MinIO
		})
	} else {
		client = s3.NewFromConfig(awsCfg)
	}

	return &S3ImageStore{
		client:   client,
		bucket:   cfg.Bucket,
		region:   cfg.Region,
		endpoint: cfg.Endpoint,
		prefix:   cfg.Prefix,
	}, nil
}

// SaveCheckImage uploads one side of a check and returns its URL
func (s *S3ImageStore) SaveCheckImage(ctx context.Context, checkID, side string, png []byte) (string, error) {
	key := s.objectKey(CheckImageKey(checkID, side))

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(png),
		ContentType: aws.String("image/png"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return s.GetFileURL(key), nil
}

// GetFileURL returns the full URL for a given object key
func (s *S3ImageStore) GetFileURL(key string) string {
	if s.endpoint != "" {
		// Format: <endpoint>/<bucket>/<key>
		return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, key)
	}
	// Format: https://<bucket>.s3.<region>.amazonaws.com/<key>
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

// GetObject retrieves an image from S3
// Returns the object body, content type, and any error
func (s *S3ImageStore) GetObject(ctx context.Context, key string) (io.ReadCloser, string, error) {
	output, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, "", fmt.Errorf("object %s: %w", key, models.ErrNotFound)
		}
		return nil, "", fmt.Errorf("failed to get object from S3: %w", err)
	}

	contentType := "application/octet-stream"
	if output.ContentType != nil {
		contentType = *output.ContentType
	}
	return output.Body, contentType, nil
}

func (s *S3ImageStore) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}

// NewImageStore builds the image store selected by IMAGE_STORE
func NewImageStore(ctx context.Context, cfg config.StorageConfig) (ImageStore, error) {
	switch cfg.Backend {
	case "s3":
		return NewS3ImageStore(ctx, cfg.S3)
	case "local", "":
		return NewLocalImageStore(cfg.ChecksDir)
	default:
		return nil, fmt.Errorf("unsupported image store %q", cfg.Backend)
	}
}
