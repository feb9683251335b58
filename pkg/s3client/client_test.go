package s3client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockMinioClient is a mock implementation of the Minio client
type MockMinioClient struct {
	mock.Mock
}

func (m *MockMinioClient) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	args := m.Called(ctx, bucketName)
	return args.Bool(0), args.Error(1)
}

func (m *MockMinioClient) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	args := m.Called(ctx, bucketName, objectName, reader, objectSize, opts)
	return args.Get(0).(minio.UploadInfo), args.Error(1)
}

func (m *MockMinioClient) StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	args := m.Called(ctx, bucketName, objectName, opts)
	return args.Get(0).(minio.ObjectInfo), args.Error(1)
}

func (m *MockMinioClient) PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error) {
	args := m.Called(ctx, bucketName, objectName, expires, reqParams)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*url.URL), args.Error(1)
}

var testConfig = Config{
	Endpoint:  "play.min.io",
	Bucket:    "photos",
	AccessKey: "key",
	SecretKey: "secret",
	Prefix:    "/labeled/",
}

func newTestClient(t *testing.T) (*Client, *MockMinioClient) {
	t.Helper()
	api := new(MockMinioClient)
	api.On("BucketExists", mock.Anything, "photos").Return(true, nil).Once()
	c, err := newClient(context.Background(), api, testConfig)
	require.NoError(t, err)
	return c, api
}

func TestNew_Validation(t *testing.T) {
	ctx := context.Background()

	_, err := New(ctx, Config{Bucket: "b", AccessKey: "a", SecretKey: "s"})
	assert.ErrorContains(t, err, "endpoint")

	_, err = New(ctx, Config{Endpoint: "e", AccessKey: "a", SecretKey: "s"})
	assert.ErrorContains(t, err, "bucket")

	_, err = New(ctx, Config{Endpoint: "e", Bucket: "b"})
	assert.ErrorContains(t, err, "access key")
}

func TestNewClient_MissingBucket(t *testing.T) {
	api := new(MockMinioClient)
	api.On("BucketExists", mock.Anything, "photos").Return(false, nil)

	_, err := newClient(context.Background(), api, testConfig)
	assert.ErrorIs(t, err, ErrBucketNotFound)
	assert.True(t, IsNotFoundError(err))
}

func TestUploadFile(t *testing.T) {
	c, api := newTestClient(t)
	body := bytes.NewReader([]byte("jpeg"))
	meta := map[string]string{"location": "Paris"}

	api.On("PutObject", mock.Anything, "photos", "labeled/a.jpg", body, int64(4), minio.PutObjectOptions{
		ContentType:  "image/jpeg",
		UserMetadata: meta,
	}).Return(minio.UploadInfo{Size: 4, ETag: "etag"}, nil)

	require.NoError(t, c.UploadFile(context.Background(), body, "a.jpg", 4, meta, "image/jpeg"))
	api.AssertExpectations(t)
}

func TestUploadFile_DefaultContentType(t *testing.T) {
	c, api := newTestClient(t)

	api.On("PutObject", mock.Anything, "photos", "labeled/b", mock.Anything, int64(0),
		mock.MatchedBy(func(o minio.PutObjectOptions) bool { return o.ContentType == "application/octet-stream" }),
	).Return(minio.UploadInfo{}, nil)

	require.NoError(t, c.UploadFile(context.Background(), bytes.NewReader(nil), "/b", 0, nil, ""))
	api.AssertExpectations(t)
}

func TestObjectExists(t *testing.T) {
	c, api := newTestClient(t)
	api.On("StatObject", mock.Anything, "photos", "labeled/there.jpg", mock.Anything).Return(minio.ObjectInfo{}, nil)
	api.On("StatObject", mock.Anything, "photos", "labeled/gone.jpg", mock.Anything).
		Return(minio.ObjectInfo{}, minio.ErrorResponse{Code: "NoSuchKey"})
	api.On("StatObject", mock.Anything, "photos", "labeled/denied.jpg", mock.Anything).
		Return(minio.ObjectInfo{}, minio.ErrorResponse{Code: "AccessDenied", Message: "Access Denied."})

	ok, err := c.ObjectExists(context.Background(), "there.jpg")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.ObjectExists(context.Background(), "gone.jpg")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = c.ObjectExists(context.Background(), "denied.jpg")
	assert.True(t, IsAuthError(err))
}

func TestGetPresignedURL(t *testing.T) {
	c, api := newTestClient(t)
	u, _ := url.Parse("https://play.min.io/photos/labeled/a.jpg?X-Amz-Signature=abc")
	api.On("PresignedGetObject", mock.Anything, "photos", "labeled/a.jpg", time.Hour, url.Values(nil)).Return(u, nil)

	got, err := c.GetPresignedURL(context.Background(), "a.jpg", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, u.String(), got)
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindOther},
		{"plain", errors.New("boom"), KindOther},
		{"missing bucket", fmt.Errorf("check: %w", ErrBucketNotFound), KindNotFound},
		{"missing key", minio.ErrorResponse{Code: "NoSuchKey"}, KindNotFound},
		{"denied", fmt.Errorf("upload: %w", minio.ErrorResponse{Code: "AccessDenied"}), KindAuth},
		{"throttled", minio.ErrorResponse{Code: "SlowDown"}, KindTransient},
		{"status 403", minio.ErrorResponse{Code: "Custom", StatusCode: 403}, KindAuth},
		{"status 503", minio.ErrorResponse{StatusCode: 503}, KindTransient},
		{"status 400", minio.ErrorResponse{Code: "InvalidArgument", StatusCode: 400}, KindOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorKind(tt.err))
		})
	}
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "", Describe(nil))
	assert.Equal(t, "boom", Describe(errors.New("boom")))

	wrapped := fmt.Errorf("failed to upload file: %w", minio.ErrorResponse{Code: "SlowDown", Message: "Please reduce your request rate."})
	assert.Equal(t, "Please reduce your request rate. (SlowDown)", Describe(wrapped))
	assert.Equal(t, "AccessDenied", Describe(minio.ErrorResponse{Code: "AccessDenied"}))
}
