// Package breaker implements a per-source circuit breaker. A source that
// keeps failing is cut off for a recovery window instead of being hammered
// on every cycle.
package breaker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jobpulse/jobpulse/internal/config"
	"github.com/jobpulse/jobpulse/internal/model"
)

// ErrOpen is returned for calls rejected while the breaker is open.
var ErrOpen = errors.New("circuit breaker open")

// State is the breaker's position in its lifecycle.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Breaker tracks failures for a single source.
//
// Closed: calls pass through; failureThreshold consecutive failures open it.
// Open: calls are rejected with ErrOpen until recoveryTimeout has elapsed.
// Half-open: at most halfOpenMaxCalls trial calls are admitted;
// successThreshold consecutive successes close the breaker, any failure
// reopens it.
type Breaker struct {
	name             string
	failureThreshold int
	recoveryTimeout  time.Duration
	successThreshold int
	halfOpenMaxCalls int
	logger           *slog.Logger

	mu            sync.Mutex
	state         State
	failures      int
	successes     int
	halfOpenCalls int
	openedAt      time.Time

	now func() time.Time
}

// New creates a breaker for the named source.
func New(name string, cfg config.BreakerConfig, logger *slog.Logger) *Breaker {
	return &Breaker{
		name:             name,
		failureThreshold: cfg.FailureThreshold,
		recoveryTimeout:  cfg.RecoveryTimeout,
		successThreshold: cfg.SuccessThreshold,
		halfOpenMaxCalls: cfg.HalfOpenMaxCalls,
		logger:           logger,
		state:            StateClosed,
		now:              time.Now,
	}
}

// State returns the current state, transitioning open → half-open when the
// recovery timeout has elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeHalfOpen()
	return b.state
}

// allow reports whether a call may proceed right now.
func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeHalfOpen()

	switch b.state {
	case StateClosed:
		return true
	case StateHalfOpen:
		if b.halfOpenCalls >= b.halfOpenMaxCalls {
			return false
		}
		b.halfOpenCalls++
		return true
	default:
		return false
	}
}

// maybeHalfOpen moves an open breaker to half-open once the recovery window
// has passed. Caller holds b.mu.
func (b *Breaker) maybeHalfOpen() {
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.recoveryTimeout {
		b.state = StateHalfOpen
		b.halfOpenCalls = 0
		b.successes = 0
		b.logger.Info("circuit breaker half-open", "source", b.name)
	}
}

// recordSuccess registers a successful call.
func (b *Breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		b.failures = 0
	case StateHalfOpen:
		b.successes++
		if b.successes >= b.successThreshold {
			b.state = StateClosed
			b.failures = 0
			b.logger.Info("circuit breaker closed", "source", b.name)
		}
	}
}

// recordFailure registers a failed call.
func (b *Breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		b.failures++
		if b.failures >= b.failureThreshold {
			b.open()
		}
	case StateHalfOpen:
		// One failure during a trial sends the breaker straight back to open.
		b.open()
	}
}

// open transitions to the open state. Caller holds b.mu.
func (b *Breaker) open() {
	b.state = StateOpen
	b.openedAt = b.now()
	b.successes = 0
	b.halfOpenCalls = 0
	b.logger.Warn("circuit breaker opened",
		"source", b.name,
		"failures", b.failures,
		"recovery_timeout", b.recoveryTimeout,
	)
}

// BreakerScraper is a decorator that guards a scraper with a circuit breaker.
type BreakerScraper struct {
	inner   model.Scraper
	breaker *Breaker
}

// Wrap guards the given scraper with its own breaker.
func Wrap(inner model.Scraper, cfg config.BreakerConfig, logger *slog.Logger) *BreakerScraper {
	return &BreakerScraper{
		inner:   inner,
		breaker: New(inner.Name(), cfg, logger),
	}
}

func (s *BreakerScraper) Name() string { return s.inner.Name() }

// Fetch delegates to the wrapped scraper when the breaker admits the call.
// Rejected calls fail fast with ErrOpen and never touch the source.
func (s *BreakerScraper) Fetch(ctx context.Context) ([]model.Listing, error) {
	if !s.breaker.allow() {
		return nil, fmt.Errorf("%s fetch: %w", s.inner.Name(), ErrOpen)
	}

	listings, err := s.inner.Fetch(ctx)
	if err != nil {
		s.breaker.recordFailure()
		return nil, err
	}
	s.breaker.recordSuccess()
	return listings, nil
}
