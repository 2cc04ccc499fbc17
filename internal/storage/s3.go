package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-intake/internal/config"
)

// PhotoStore uploads report photos to S3-compatible storage.
type PhotoStore struct {
	client   *s3.Client
	bucket   string
	region   string
	endpoint string
	maxBytes int64
	logger   *zap.Logger
}

// NewPhotoStore builds a store from configuration. Static credentials are
// used when given, otherwise the default AWS chain applies.
func NewPhotoStore(ctx context.Context, cfg config.PhotoConfig, logger *zap.Logger) (*PhotoStore, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("photo bucket not configured")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	var client *s3.Client
	if cfg.Endpoint != "" {
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	} else {
		client = s3.NewFromConfig(awsCfg)
	}

	return &PhotoStore{
		client:   client,
		bucket:   cfg.Bucket,
		region:   cfg.Region,
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		maxBytes: int64(cfg.MaxBytes),
		logger:   logger,
	}, nil
}

// Upload stores body under key and returns its public URL.
func (p *PhotoStore) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	if p.maxBytes > 0 && size > p.maxBytes {
		return "", fmt.Errorf("photo too large: %d bytes exceeds %d", size, p.maxBytes)
	}
	input := &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}
	if _, err := p.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	url := PublicURL(p.bucket, p.region, p.endpoint, key)
	p.logger.Info("photo uploaded", zap.String("key", key), zap.Int64("size", size))
	return url, nil
}

// PublicURL returns the address an uploaded object is served from.
func PublicURL(bucket, region, endpoint, key string) string {
	if endpoint == "" {
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, key)
	}
	endpoint = strings.TrimRight(endpoint, "/")
	if strings.Contains(endpoint, "digitaloceanspaces.com") {
		host := strings.TrimPrefix(endpoint, "https://")
		return fmt.Sprintf("https://%s.%s/%s", bucket, host, key)
	}
	return fmt.Sprintf("%s/%s/%s", endpoint, bucket, key)
}
