package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrRecipientGone marks a recipient that can never be delivered to again
// (blocked the bot, deactivated their account). The notifier skips such
// recipients for the rest of the run instead of retrying them.
var ErrRecipientGone = errors.New("recipient permanently unreachable")

// HTTPError wraps an HTTP status code so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}
