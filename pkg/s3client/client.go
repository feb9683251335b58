package s3client

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/bstardust/piclabel/internal/logger"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config represents the configuration for an S3 client
type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Prefix    string
}

// Client is an S3 client backed by the MinIO SDK
type Client struct {
	api    minioAPI
	config Config
}

var _ S3Interface = (*Client)(nil)

// New creates a new S3 client and checks that the bucket exists
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("S3 endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3 bucket name is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("S3 access key and secret key are required")
	}

	// Remove protocol prefix if present
	endpoint := cfg.Endpoint
	endpoint = strings.TrimPrefix(endpoint, "https://")
	endpoint = strings.TrimPrefix(endpoint, "http://")
	endpoint = strings.TrimSuffix(endpoint, "/")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       cfg.UseSSL,
		Region:       cfg.Region,
		BucketLookup: minio.BucketLookupAuto,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	c, err := newClient(ctx, client, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("Successfully connected to S3 endpoint %s, bucket %s", endpoint, cfg.Bucket)
	return c, nil
}

func newClient(ctx context.Context, api minioAPI, cfg Config) (*Client, error) {
	exists, err := api.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check if bucket exists: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrBucketNotFound, cfg.Bucket)
	}
	return &Client{api: api, config: cfg}, nil
}

// UploadFile uploads a file to S3
func (c *Client) UploadFile(ctx context.Context, reader io.Reader, objectKey string, size int64, metadata map[string]string, contentType string) error {
	objectKey = c.getObjectKey(objectKey)

	if contentType == "" {
		contentType = "application/octet-stream"
	}

	opts := minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: metadata,
	}

	info, err := c.api.PutObject(ctx, c.config.Bucket, objectKey, reader, size, opts)
	if err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}

	logger.Debug("Uploaded file to %s (%d bytes, etag: %s)", objectKey, info.Size, info.ETag)
	return nil
}

// ObjectExists checks if an object exists in the bucket
func (c *Client) ObjectExists(ctx context.Context, objectKey string) (bool, error) {
	objectKey = c.getObjectKey(objectKey)

	_, err := c.api.StatObject(ctx, c.config.Bucket, objectKey, minio.StatObjectOptions{})
	if err != nil {
		if IsNotFoundError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check if object exists: %w", err)
	}

	return true, nil
}

// GetPresignedURL generates a presigned GET URL for an object
func (c *Client) GetPresignedURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	objectKey = c.getObjectKey(objectKey)

	u, err := c.api.PresignedGetObject(ctx, c.config.Bucket, objectKey, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return u.String(), nil
}

// getObjectKey returns the full object key with prefix
func (c *Client) getObjectKey(key string) string {
	if c.config.Prefix == "" {
		return key
	}

	prefix := strings.Trim(c.config.Prefix, "/")
	key = strings.TrimPrefix(key, "/")

	return path.Join(prefix, key)
}

// GetBucketName returns the bucket name
func (c *Client) GetBucketName() string {
	return c.config.Bucket
}

// GetPrefix returns the prefix
func (c *Client) GetPrefix() string {
	return c.config.Prefix
}
