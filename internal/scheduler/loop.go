package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/jobpulse/jobpulse/internal/config"
)

// loopRunner is the fallback backend: a plain select loop with a ticker for
// scrapes and a computed timer for the daily digest. It exists for builds
// where the cron dependency is unwanted and as the simpler reference for the
// firing rules.
type loopRunner struct {
	jobs       Jobs
	interval   time.Duration
	digestHour int
	loc        *time.Location
	grace      time.Duration
	logger     *slog.Logger

	now func() time.Time
}

func newLoopRunner(cfg config.SchedulerConfig, jobs Jobs, loc *time.Location, logger *slog.Logger) *loopRunner {
	return &loopRunner{
		jobs:       jobs,
		interval:   cfg.ScrapeInterval,
		digestHour: cfg.DigestHour,
		loc:        loc,
		grace:      cfg.StartupGrace,
		logger:     logger,
		now:        time.Now,
	}
}

// nextDigest computes the next wall-clock firing of the digest, rolling to
// tomorrow when today's hour has already passed.
func (r *loopRunner) nextDigest() time.Time {
	now := r.now().In(r.loc)
	next := time.Date(now.Year(), now.Month(), now.Day(), r.digestHour, 0, 0, 0, r.loc)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Run performs one immediate scrape after the startup grace, then ticks on
// the scrape interval and fires the digest daily. Returns nil on ctx
// cancellation.
func (r *loopRunner) Run(ctx context.Context) error {
	r.logger.Info("starting loop scheduler",
		"interval", r.interval.String(),
		"digest_hour", r.digestHour,
		"timezone", r.loc.String(),
	)

	if r.grace > 0 {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(r.grace):
		}
	}

	r.jobs.Scrape(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	digestTimer := time.NewTimer(time.Until(r.nextDigest()))
	defer digestTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("shutting down scheduler")
			return nil
		case <-ticker.C:
			r.jobs.Scrape(ctx)
		case <-digestTimer.C:
			r.jobs.Digest(ctx)
			digestTimer.Reset(time.Until(r.nextDigest()))
		}
	}
}
