package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jobpulse/jobpulse/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSchedulerConfig(backend string) config.SchedulerConfig {
	return config.SchedulerConfig{
		Backend:        backend,
		Timezone:       "Asia/Kolkata",
		ScrapeInterval: 50 * time.Millisecond,
		DigestHour:     9,
		StartupGrace:   0,
	}
}

func TestNewSelectsBackend(t *testing.T) {
	jobs := Jobs{
		Scrape: func(ctx context.Context) {},
		Digest: func(ctx context.Context) {},
	}

	r, err := New(testSchedulerConfig("cron"), jobs, discardLogger())
	if err != nil {
		t.Fatalf("cron backend: %v", err)
	}
	if _, ok := r.(*cronRunner); !ok {
		t.Errorf("expected *cronRunner, got %T", r)
	}

	r, err = New(testSchedulerConfig("loop"), jobs, discardLogger())
	if err != nil {
		t.Fatalf("loop backend: %v", err)
	}
	if _, ok := r.(*loopRunner); !ok {
		t.Errorf("expected *loopRunner, got %T", r)
	}

	if _, err := New(testSchedulerConfig("quartz"), jobs, discardLogger()); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestNewRejectsBadTimezone(t *testing.T) {
	cfg := testSchedulerConfig("loop")
	cfg.Timezone = "Mars/Olympus"
	if _, err := New(cfg, Jobs{}, discardLogger()); err == nil {
		t.Error("expected error for unknown timezone")
	}
}

func TestLoopRunnerScrapesOnInterval(t *testing.T) {
	var scrapes int32
	jobs := Jobs{
		Scrape: func(ctx context.Context) { atomic.AddInt32(&scrapes, 1) },
		Digest: func(ctx context.Context) {},
	}

	r, err := New(testSchedulerConfig("loop"), jobs, discardLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 180*time.Millisecond)
	defer cancel()
	if err := r.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Immediate scrape plus at least two 50ms ticks within 180ms.
	if got := atomic.LoadInt32(&scrapes); got < 3 {
		t.Errorf("scrapes = %d, want at least 3", got)
	}
}

func TestLoopRunnerStartupGrace(t *testing.T) {
	var scrapes int32
	cfg := testSchedulerConfig("loop")
	cfg.StartupGrace = time.Hour
	r, err := New(cfg, Jobs{
		Scrape: func(ctx context.Context) { atomic.AddInt32(&scrapes, 1) },
		Digest: func(ctx context.Context) {},
	}, discardLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := r.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := atomic.LoadInt32(&scrapes); got != 0 {
		t.Errorf("scrapes during grace = %d, want 0", got)
	}
}

func TestNextDigestRollsOver(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}

	r := newLoopRunner(testSchedulerConfig("loop"), Jobs{}, loc, discardLogger())

	// Before the digest hour: fires today.
	r.now = func() time.Time {
		return time.Date(2026, 3, 10, 7, 30, 0, 0, loc)
	}
	next := r.nextDigest()
	if next.Day() != 10 || next.Hour() != 9 {
		t.Errorf("next digest = %v, want today 09:00", next)
	}

	// After the digest hour: rolls to tomorrow.
	r.now = func() time.Time {
		return time.Date(2026, 3, 10, 9, 0, 1, 0, loc)
	}
	next = r.nextDigest()
	if next.Day() != 11 || next.Hour() != 9 {
		t.Errorf("next digest = %v, want tomorrow 09:00", next)
	}
}

func TestCronRunnerRunsImmediateScrapeAndStops(t *testing.T) {
	var scrapes int32
	cfg := testSchedulerConfig("cron")
	cfg.ScrapeInterval = time.Hour
	r, err := New(cfg, Jobs{
		Scrape: func(ctx context.Context) { atomic.AddInt32(&scrapes, 1) },
		Digest: func(ctx context.Context) {},
	}, discardLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
	if got := atomic.LoadInt32(&scrapes); got != 1 {
		t.Errorf("scrapes = %d, want exactly the immediate one", got)
	}
}
