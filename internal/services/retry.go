package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/temeke/spotify-playlists/internal/shared"
)

// RetryConfig bounds the retry loop around remote requests.
type RetryConfig struct {
	MaxAttempts int           // Maximum number of attempts, including the first
	InitialWait time.Duration // First backoff, doubled each retry
	MaxWait     time.Duration // Backoff ceiling
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts: 3,
		InitialWait: 500 * time.Millisecond,
		MaxWait:     10 * time.Second,
	}
}

// RateLimitedError is returned on a 429 response. RetryAfter carries the
// server-requested wait when the Retry-After header was present.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
	}
	return "rate limited"
}

func (e *RateLimitedError) Unwrap() error { return shared.ErrRateLimited }

// retryable reports whether an error is worth retrying: rate-limit and
// availability errors are, credential errors never are.
func retryable(err error) bool {
	return errors.Is(err, shared.ErrRateLimited) || errors.Is(err, shared.ErrRemoteUnavailable)
}

// withRetry executes op with exponential backoff. Rate-limited responses
// wait at least the server-requested interval; unauthorized responses
// fail immediately.
func withRetry(ctx context.Context, cfg *RetryConfig, op func() error) error {
	if cfg == nil {
		cfg = DefaultRetryConfig()
	}

	wait := cfg.InitialWait
	var err error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if !retryable(err) || attempt == cfg.MaxAttempts {
			return err
		}

		sleep := wait
		var rl *RateLimitedError
		if errors.As(err, &rl) && rl.RetryAfter > sleep {
			sleep = rl.RetryAfter
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}

		wait *= 2
		if wait > cfg.MaxWait {
			wait = cfg.MaxWait
		}
	}

	return err
}
