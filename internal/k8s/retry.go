package k8s

import (
	"context"
	"errors"
	"time"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

const (
	defaultRetryAttempts = 3
	initialRetryDelay    = 100 * time.Millisecond
	maxRetryDelay        = 2 * time.Second
)

// isRetryable reports whether the API error is transient: 5xx or 429.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if apierrors.IsTooManyRequests(err) {
		return true
	}
	if apierrors.IsInternalError(err) || apierrors.IsServerTimeout(err) {
		return true
	}
	var se *apierrors.StatusError
	if errors.As(err, &se) && se.ErrStatus.Code >= 500 {
		return true
	}
	return false
}

func retryDelay(attempt int) time.Duration {
	d := initialRetryDelay
	for i := 0; i < attempt && d < maxRetryDelay; i++ {
		d *= 3
		if d > maxRetryDelay {
			d = maxRetryDelay
		}
	}
	return d
}

// doWithRetry runs fn up to maxAttempts times, backing off between transient
// failures. Non-retryable errors return immediately.
func doWithRetry(ctx context.Context, maxAttempts int, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt == maxAttempts-1 || !isRetryable(lastErr) {
			return lastErr
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryDelay(attempt)):
		}
	}
	return lastErr
}
