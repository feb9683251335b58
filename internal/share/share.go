// Package share publishes labeled images to an S3-compatible bucket and
// hands back a presigned link.
package share

import (
	"bytes"
	"context"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/bstardust/piclabel/internal/fileinfo"
	"github.com/bstardust/piclabel/internal/labeler"
	"github.com/bstardust/piclabel/internal/logger"
	"github.com/bstardust/piclabel/internal/render"
	"github.com/bstardust/piclabel/pkg/common"
	"github.com/bstardust/piclabel/pkg/s3client"
	"github.com/google/uuid"
)

// MaxExpiry is the longest lifetime S3 accepts for a presigned URL
const MaxExpiry = 7 * 24 * time.Hour

// Shared is a published image
type Shared struct {
	Key string
	URL string
}

// Service uploads labeled images and presigns them
type Service struct {
	client s3client.S3Interface
	expiry time.Duration
	retry  RetryConfig
}

// New creates a share service. expiry is clamped to (0, MaxExpiry].
func New(client s3client.S3Interface, expiry time.Duration, retry RetryConfig) *Service {
	if expiry <= 0 || expiry > MaxExpiry {
		expiry = MaxExpiry
	}
	return &Service{client: client, expiry: expiry, retry: retry}
}

// Share uploads the labeled image and returns a presigned GET URL for it
func (s *Service) Share(ctx context.Context, res *labeler.Result, caption render.Caption) (*Shared, error) {
	key, err := s.objectKey(ctx, filepath.Base(res.OutputPath))
	if err != nil {
		return nil, common.NewShareError("cannot check bucket", err)
	}

	metadata := map[string]string{
		"datetime":        headerValue(caption.DateTime),
		"location":        headerValue(caption.Location),
		"source-filename": headerValue(filepath.Base(res.Source)),
	}
	contentType := fileinfo.ContentType(key)

	err = RetryWithBackoff(ctx, "upload "+key, func() error {
		return s.client.UploadFile(ctx, bytes.NewReader(res.Data), key, int64(len(res.Data)), metadata, contentType)
	}, s.retry)
	if err != nil {
		return nil, common.NewShareError("upload failed", err)
	}

	link, err := s.client.GetPresignedURL(ctx, key, s.expiry)
	if err != nil {
		return nil, common.NewShareError("cannot presign URL", err)
	}

	logger.Info("Shared %s as s3://%s/%s", res.OutputPath, s.client.GetBucketName(), key)
	return &Shared{Key: key, URL: link}, nil
}

// objectKey returns name, or name with a random suffix when the bucket
// already holds an object under it.
func (s *Service) objectKey(ctx context.Context, name string) (string, error) {
	exists, err := s.client.ObjectExists(ctx, name)
	if err != nil {
		return "", err
	}
	if !exists {
		return name, nil
	}
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + "-" + uuid.NewString()[:8] + ext, nil
}

// headerValue makes s safe for an x-amz-meta header
func headerValue(s string) string {
	return mime.QEncoding.Encode("utf-8", s)
}
