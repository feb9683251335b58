package share

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/bstardust/piclabel/internal/logger"
	"github.com/bstardust/piclabel/pkg/s3client"
)

// RetryConfig defines retry behavior for uploads that might fail transiently
type RetryConfig struct {
	// MaxRetries is the maximum number of retries before giving up
	MaxRetries int

	// InitialBackoff is the duration to wait before the first retry
	InitialBackoff time.Duration

	// MaxBackoff is the maximum duration to wait between retries
	MaxBackoff time.Duration

	// BackoffFactor is the factor by which to increase backoff after each retry
	BackoffFactor float64

	// RetryableErrors holds S3 error codes that should be retried
	RetryableErrors map[string]bool
}

// DefaultRetryConfig returns a default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialBackoff:  1 * time.Second,
		MaxBackoff:      30 * time.Second,
		BackoffFactor:   2.0,
		RetryableErrors: defaultRetryableErrors(),
	}
}

func defaultRetryableErrors() map[string]bool {
	return map[string]bool{
		"RequestTimeout":       true,
		"RequestTimeTooSkewed": true,
		"InternalError":        true,
		"SlowDown":             true,
		"OperationAborted":     true,
		"ServiceUnavailable":   true,
		"RequestLimitExceeded": true,
		"ThrottlingException":  true,
	}
}

// IsRetryable determines if an error should be retried based on its type or message
func (rc RetryConfig) IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	switch s3client.ErrorKind(err) {
	case s3client.KindAuth, s3client.KindNotFound:
		return false
	case s3client.KindTransient:
		return true
	}
	if s3client.IsAuthError(err) || s3client.IsNotFoundError(err) {
		return false
	}

	for errCode := range rc.RetryableErrors {
		if strings.Contains(err.Error(), errCode) {
			return true
		}
	}

	lowerErr := strings.ToLower(err.Error())
	return strings.Contains(lowerErr, "timeout") ||
		strings.Contains(lowerErr, "connection") ||
		strings.Contains(lowerErr, "reset") ||
		strings.Contains(lowerErr, "broken pipe") ||
		strings.Contains(lowerErr, "network") ||
		strings.Contains(lowerErr, "unavailable")
}

// RetryWithBackoff retries the given operation with exponential backoff
func RetryWithBackoff(ctx context.Context, operation string, fn func() error, config RetryConfig) error {
	var err error
	var attempt int

	for attempt = 0; attempt <= config.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return fmt.Errorf("%s canceled: %w", operation, ctx.Err())
		}

		if attempt > 0 {
			logger.Debug("Retry attempt %d/%d for %s", attempt, config.MaxRetries, operation)
		}

		err = fn()
		if err == nil {
			if attempt > 0 {
				logger.Info("Successfully completed %s after %d retries", operation, attempt)
			}
			return nil
		}

		if !config.IsRetryable(err) {
			logger.Warn("Non-retryable error for %s: %s", operation, s3client.Describe(err))
			return err
		}

		if attempt == config.MaxRetries {
			break
		}

		backoff := getBackoffDuration(attempt, config)
		logger.Debug("Backing off for %v before retrying %s: %v", backoff, operation, err)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return fmt.Errorf("%s canceled during retry: %w", operation, ctx.Err())
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operation, attempt+1, err)
}

// getBackoffDuration calculates the backoff duration for a retry attempt
func getBackoffDuration(attempt int, config RetryConfig) time.Duration {
	backoff := float64(config.InitialBackoff) * math.Pow(config.BackoffFactor, float64(attempt))

	// ±20% jitter
	jitter := (rand.Float64() * 0.4) - 0.2
	backoff = backoff * (1 + jitter)

	if backoff > float64(config.MaxBackoff) {
		backoff = float64(config.MaxBackoff)
	}

	return time.Duration(backoff)
}
