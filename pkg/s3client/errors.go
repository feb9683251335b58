package s3client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/minio/minio-go/v7"
)

// ErrBucketNotFound is returned by New when the configured bucket is missing
var ErrBucketNotFound = errors.New("bucket not found")

// Kind groups bucket errors by how a share should react to them
type Kind int

const (
	// KindOther is anything unclassified; callers may inspect the text
	KindOther Kind = iota
	KindNotFound
	KindAuth
	// KindTransient is worth retrying: throttling and server-side failures
	KindTransient
)

var codeKinds = map[string]Kind{
	"NoSuchBucket":                 KindNotFound,
	"NoSuchKey":                    KindNotFound,
	"NotFound":                     KindNotFound,
	"AccessDenied":                 KindAuth,
	"InvalidAccessKeyId":           KindAuth,
	"SignatureDoesNotMatch":        KindAuth,
	"AuthorizationHeaderMalformed": KindAuth,
	"ExpiredToken":                 KindAuth,
	"InvalidToken":                 KindAuth,
	"SlowDown":                     KindTransient,
	"RequestTimeout":               KindTransient,
	"InternalError":                KindTransient,
	"ServiceUnavailable":           KindTransient,
	"XMinioServerNotInitialized":   KindTransient,
}

// ErrorKind classifies err by its S3 error code, then its HTTP status
func ErrorKind(err error) Kind {
	if err == nil {
		return KindOther
	}
	if errors.Is(err, ErrBucketNotFound) {
		return KindNotFound
	}

	var resp minio.ErrorResponse
	if !errors.As(err, &resp) {
		return KindOther
	}
	if kind, ok := codeKinds[resp.Code]; ok {
		return kind
	}
	switch resp.StatusCode {
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuth
	case http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return KindTransient
	}
	return KindOther
}

// IsNotFoundError reports a missing bucket or object
func IsNotFoundError(err error) bool {
	if ErrorKind(err) == KindNotFound {
		return true
	}
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "no such")
}

// IsAuthError reports rejected credentials or a denied operation
func IsAuthError(err error) bool {
	if ErrorKind(err) == KindAuth {
		return true
	}
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "access denied") || strings.Contains(msg, "invalid credential")
}

// Describe renders err for the user: the server's message and code for S3
// errors, the plain text otherwise.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var resp minio.ErrorResponse
	if errors.As(err, &resp) && resp.Code != "" {
		if resp.Message == "" {
			return resp.Code
		}
		return fmt.Sprintf("%s (%s)", resp.Message, resp.Code)
	}
	return err.Error()
}
