package tutor

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gemtutor-ai/gemtutor/internal/provider"
)

const (
	maxAttempts = 3
	baseDelay   = 5 * time.Second
)

// isRetryableError checks if an error is worth retrying (rate limit, server
// error, network, blocked response).
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	// Context cancelled is NOT retryable.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	// Blocked or empty responses sometimes succeed on a second attempt.
	var blocked *provider.BlockedError
	if errors.As(err, &blocked) {
		return true
	}

	msg := err.Error()
	// Rate limit (429)
	if strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "rate_limit") {
		return true
	}
	// Server errors (500, 502, 503, 504, 529)
	for _, code := range []string{"500", "502", "503", "504", "529"} {
		if strings.Contains(msg, code) {
			return true
		}
	}
	// Network errors
	if strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "EOF") ||
		strings.Contains(msg, "temporary failure") {
		return true
	}
	return false
}

// sleepWithContext sleeps for d, but returns early if ctx is cancelled.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
