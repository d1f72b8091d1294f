// Package retry wraps a scraper with bounded exponential backoff for
// transient failures.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/jobpulse/jobpulse/internal/config"
	"github.com/jobpulse/jobpulse/internal/model"
)

// ExhaustedError reports that every attempt failed. It wraps the last
// attempt's error.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all %d attempts failed: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// RetryScraper is a decorator that retries transient failures with
// exponential backoff and jitter before delegating to the wrapped scraper.
type RetryScraper struct {
	inner           model.Scraper
	maxAttempts     int
	baseDelay       time.Duration
	maxDelay        time.Duration
	exponentialBase float64
	jitter          bool
	logger          *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// Wrap adds retry behavior to a scraper. maxAttempts counts the initial
// call, so 3 attempts means at most 2 retries.
func Wrap(inner model.Scraper, cfg config.RetryConfig, logger *slog.Logger) *RetryScraper {
	return &RetryScraper{
		inner:           inner,
		maxAttempts:     cfg.MaxAttempts,
		baseDelay:       cfg.BaseDelay,
		maxDelay:        cfg.MaxDelay,
		exponentialBase: cfg.ExponentialBase,
		jitter:          cfg.Jitter,
		logger:          logger,
		sleep:           sleepCtx,
	}
}

func (s *RetryScraper) Name() string { return s.inner.Name() }

// Fetch attempts the wrapped fetch, retrying on transient errors. Permanent
// errors are returned immediately; exhausting every attempt returns an
// *ExhaustedError wrapping the last failure.
func (s *RetryScraper) Fetch(ctx context.Context) ([]model.Listing, error) {
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		listings, err := s.inner.Fetch(ctx)
		if err == nil {
			return listings, nil
		}
		if !isRetryable(err) {
			return nil, err
		}
		lastErr = err

		if attempt == s.maxAttempts {
			break
		}

		delay := s.backoffDelay(attempt, err)
		s.logger.Warn("retrying after transient error",
			"source", s.inner.Name(),
			"attempt", attempt,
			"max_attempts", s.maxAttempts,
			"delay", delay,
			"error", err,
		)
		if err := s.sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("retry cancelled: %w", err)
		}
	}

	return nil, &ExhaustedError{Attempts: s.maxAttempts, Last: lastErr}
}

// backoffDelay computes the delay after a given attempt. If the error carries
// a Retry-After duration (HTTP 429), that takes precedence over the
// exponential schedule. The result never exceeds maxDelay.
func (s *RetryScraper) backoffDelay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		if httpErr.RetryAfter > s.maxDelay {
			return s.maxDelay
		}
		return httpErr.RetryAfter
	}

	delay := time.Duration(float64(s.baseDelay) * math.Pow(s.exponentialBase, float64(attempt-1)))
	if delay > s.maxDelay || delay <= 0 {
		delay = s.maxDelay
	}

	if s.jitter {
		// ±30% jitter, still clamped to maxDelay.
		spread := float64(delay) * 0.3
		delay = time.Duration(float64(delay) + (rand.Float64()*2-1)*spread)
		if delay > s.maxDelay {
			delay = s.maxDelay
		}
		if delay < 0 {
			delay = 0
		}
	}
	return delay
}

// isRetryable returns true if the error represents a transient failure worth
// retrying.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Context cancellation — never retry.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		// 429 Too Many Requests — retryable.
		if httpErr.StatusCode == 429 {
			return true
		}
		// 5xx — retryable.
		if httpErr.StatusCode >= 500 {
			return true
		}
		// 4xx (not 429) — not retryable.
		return false
	}

	// Non-HTTP errors (network, DNS, etc.) — retryable.
	return true
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
