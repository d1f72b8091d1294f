package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jobpulse/jobpulse/internal/config"
)

// cronRunner schedules jobs through robfig/cron. The digest entry fires at
// the configured hour, local to the configured timezone.
type cronRunner struct {
	cron   *cron.Cron
	jobs   Jobs
	grace  time.Duration
	logger *slog.Logger

	mu  sync.Mutex
	ctx context.Context
}

func newCronRunner(cfg config.SchedulerConfig, jobs Jobs, loc *time.Location, logger *slog.Logger) (*cronRunner, error) {
	r := &cronRunner{
		cron:   cron.New(cron.WithLocation(loc)),
		jobs:   jobs,
		grace:  cfg.StartupGrace,
		logger: logger,
		ctx:    context.Background(),
	}

	scrapeSpec := fmt.Sprintf("@every %s", cfg.ScrapeInterval)
	digestSpec := fmt.Sprintf("0 %d * * *", cfg.DigestHour)

	if _, err := r.cron.AddFunc(scrapeSpec, func() { r.jobs.Scrape(r.context()) }); err != nil {
		return nil, fmt.Errorf("cron.AddFunc scrape: %w", err)
	}
	if _, err := r.cron.AddFunc(digestSpec, func() { r.jobs.Digest(r.context()) }); err != nil {
		return nil, fmt.Errorf("cron.AddFunc digest: %w", err)
	}

	logger.Info("cron schedule registered",
		"scrape", scrapeSpec,
		"digest", digestSpec,
		"timezone", loc.String(),
	)
	return r, nil
}

func (r *cronRunner) context() context.Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ctx
}

// Run performs one immediate scrape after the startup grace, then hands
// control to cron until ctx is cancelled. Stop waits for in-flight jobs.
func (r *cronRunner) Run(ctx context.Context) error {
	r.mu.Lock()
	r.ctx = ctx
	r.mu.Unlock()

	if r.grace > 0 {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(r.grace):
		}
	}

	r.jobs.Scrape(ctx)

	r.cron.Start()
	<-ctx.Done()
	r.logger.Info("shutting down scheduler")
	<-r.cron.Stop().Done()
	return nil
}
