// Package scheduler fires the recurring scrape and daily digest jobs. Two
// interchangeable backends exist: a cron-expression backend and a plain
// sleep-loop fallback.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jobpulse/jobpulse/internal/config"
)

// Jobs holds the work the scheduler triggers. Both functions must be safe to
// call repeatedly.
type Jobs struct {
	Scrape func(ctx context.Context)
	Digest func(ctx context.Context)
}

// Runner drives the jobs until its context is cancelled.
type Runner interface {
	Run(ctx context.Context) error
}

// New selects a backend from the configuration.
func New(cfg config.SchedulerConfig, jobs Jobs, logger *slog.Logger) (Runner, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("scheduler timezone %q: %w", cfg.Timezone, err)
	}

	switch cfg.Backend {
	case "cron":
		return newCronRunner(cfg, jobs, loc, logger)
	case "loop":
		return newLoopRunner(cfg, jobs, loc, logger), nil
	default:
		return nil, fmt.Errorf("unknown scheduler backend %q", cfg.Backend)
	}
}
