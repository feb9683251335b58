package share

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/bstardust/piclabel/internal/labeler"
	"github.com/bstardust/piclabel/internal/render"
	"github.com/bstardust/piclabel/pkg/common"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock S3 Client
type MockS3Client struct {
	mock.Mock
}

func (m *MockS3Client) UploadFile(ctx context.Context, reader io.Reader, objectKey string, size int64, metadata map[string]string, contentType string) error {
	// drain so each attempt sees the full body
	io.Copy(io.Discard, reader)
	args := m.Called(ctx, reader, objectKey, size, metadata, contentType)
	return args.Error(0)
}

func (m *MockS3Client) ObjectExists(ctx context.Context, objectKey string) (bool, error) {
	args := m.Called(ctx, objectKey)
	return args.Bool(0), args.Error(1)
}

func (m *MockS3Client) GetPresignedURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, objectKey, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockS3Client) GetBucketName() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockS3Client) GetPrefix() string {
	args := m.Called()
	return args.String(0)
}

var (
	result = &labeler.Result{
		Source:     "DCIM/IMG_0001.JPG",
		OutputPath: "/home/me/Pictures/PicLabel/2013-07-14_18-30-05.jpg",
		Data:       []byte("jpeg bytes"),
	}
	caption = render.Caption{DateTime: "Sunday, July 14, 2013 18:30", Location: "Place de la Concorde, Paris, France"}
)

func fastRetry() RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.InitialBackoff = time.Millisecond
	cfg.MaxBackoff = 5 * time.Millisecond
	return cfg
}

func TestShare(t *testing.T) {
	s3 := new(MockS3Client)
	key := "2013-07-14_18-30-05.jpg"
	s3.On("ObjectExists", mock.Anything, key).Return(false, nil)
	s3.On("UploadFile", mock.Anything, mock.Anything, key, int64(10), mock.MatchedBy(func(m map[string]string) bool {
		return m["location"] == caption.Location && m["source-filename"] == "IMG_0001.JPG"
	}), "image/jpeg").Return(nil)
	s3.On("GetPresignedURL", mock.Anything, key, 24*time.Hour).Return("https://s3.local/"+key+"?sig", nil)
	s3.On("GetBucketName").Return("photos")

	shared, err := New(s3, 24*time.Hour, fastRetry()).Share(context.Background(), result, caption)
	require.NoError(t, err)
	assert.Equal(t, key, shared.Key)
	assert.Equal(t, "https://s3.local/"+key+"?sig", shared.URL)
	s3.AssertExpectations(t)
}

func TestShare_ExistingKeyGetsSuffix(t *testing.T) {
	s3 := new(MockS3Client)
	s3.On("ObjectExists", mock.Anything, "2013-07-14_18-30-05.jpg").Return(true, nil)
	s3.On("UploadFile", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	s3.On("GetPresignedURL", mock.Anything, mock.Anything, MaxExpiry).Return("https://s3.local/x", nil)
	s3.On("GetBucketName").Return("photos")

	shared, err := New(s3, 0, fastRetry()).Share(context.Background(), result, caption)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(shared.Key, "2013-07-14_18-30-05-"))
	assert.True(t, strings.HasSuffix(shared.Key, ".jpg"))
	assert.NotEqual(t, "2013-07-14_18-30-05.jpg", shared.Key)
}

func TestShare_RetriesTransientUploadErrors(t *testing.T) {
	s3 := new(MockS3Client)
	s3.On("ObjectExists", mock.Anything, mock.Anything).Return(false, nil)
	s3.On("UploadFile", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("upload failed: connection reset by peer")).Twice()
	s3.On("UploadFile", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	s3.On("GetPresignedURL", mock.Anything, mock.Anything, mock.Anything).Return("https://s3.local/x", nil)
	s3.On("GetBucketName").Return("photos")

	_, err := New(s3, time.Hour, fastRetry()).Share(context.Background(), result, caption)
	require.NoError(t, err)
	s3.AssertNumberOfCalls(t, "UploadFile", 3)
}

func TestShare_AuthErrorIsNotRetried(t *testing.T) {
	s3 := new(MockS3Client)
	s3.On("ObjectExists", mock.Anything, mock.Anything).Return(false, nil)
	s3.On("UploadFile", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.ErrorResponse{Code: "AccessDenied", Message: "Access Denied."})

	_, err := New(s3, time.Hour, fastRetry()).Share(context.Background(), result, caption)

	var shareErr *common.ShareError
	require.ErrorAs(t, err, &shareErr)
	s3.AssertNumberOfCalls(t, "UploadFile", 1)
}

func TestShare_BucketCheckFails(t *testing.T) {
	s3 := new(MockS3Client)
	s3.On("ObjectExists", mock.Anything, mock.Anything).Return(false, errors.New("dial tcp: i/o timeout"))

	_, err := New(s3, time.Hour, fastRetry()).Share(context.Background(), result, caption)

	var shareErr *common.ShareError
	assert.ErrorAs(t, err, &shareErr)
	s3.AssertNotCalled(t, "UploadFile", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRetryConfig_IsRetryable(t *testing.T) {
	rc := DefaultRetryConfig()

	assert.True(t, rc.IsRetryable(errors.New("SlowDown: please reduce your request rate")))
	assert.True(t, rc.IsRetryable(errors.New("read: connection reset")))
	assert.False(t, rc.IsRetryable(nil))
	assert.False(t, rc.IsRetryable(context.Canceled))
	assert.False(t, rc.IsRetryable(minio.ErrorResponse{Code: "AccessDenied"}))
	assert.False(t, rc.IsRetryable(minio.ErrorResponse{Code: "NoSuchBucket", Message: "connection to bucket refused"}))
	assert.True(t, rc.IsRetryable(minio.ErrorResponse{Code: "BadGateway", StatusCode: 502}))
	assert.False(t, rc.IsRetryable(errors.New("image too large")))
}

func TestRetryWithBackoff_GivesUp(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), "op", func() error {
		calls++
		return errors.New("network unreachable")
	}, fastRetry())

	assert.Error(t, err)
	assert.Equal(t, fastRetry().MaxRetries+1, calls)
	assert.Contains(t, err.Error(), "op failed after 4 attempts")
}

func TestRetryWithBackoff_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, "op", func() error { return nil }, fastRetry())
	assert.ErrorIs(t, err, context.Canceled)
}
