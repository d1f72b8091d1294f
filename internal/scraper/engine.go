package scraper

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jobpulse/jobpulse/internal/metrics"
	"github.com/jobpulse/jobpulse/internal/model"
)

// Engine runs every registered scraper with bounded concurrency and persists
// the results. A failing source never affects its siblings: it simply
// contributes zero inserts for the run.
type Engine struct {
	scrapers []model.Scraper
	store    model.ListingStore
	workers  int
	recorder metrics.Recorder
	logger   *slog.Logger
}

// NewEngine creates an engine over the given scrapers. workers bounds how
// many sources are fetched at once.
func NewEngine(
	scrapers []model.Scraper,
	store model.ListingStore,
	workers int,
	recorder metrics.Recorder,
	logger *slog.Logger,
) *Engine {
	if workers < 1 {
		workers = 1
	}
	return &Engine{
		scrapers: scrapers,
		store:    store,
		workers:  workers,
		recorder: recorder,
		logger:   logger,
	}
}

// Run executes one scrape cycle and returns the number of newly inserted
// listings per source. Every registered source has an entry in the result,
// failed ones at zero.
func (e *Engine) Run(ctx context.Context) map[string]int {
	tasks := make(chan model.Scraper)
	var mu sync.Mutex
	inserted := make(map[string]int, len(e.scrapers))
	for _, s := range e.scrapers {
		inserted[s.Name()] = 0
	}

	var wg sync.WaitGroup
	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range tasks {
				n := e.runOne(ctx, s)
				mu.Lock()
				inserted[s.Name()] = n
				mu.Unlock()
			}
		}()
	}

	for _, s := range e.scrapers {
		tasks <- s
	}
	close(tasks)
	wg.Wait()

	total := 0
	for _, n := range inserted {
		total += n
	}
	e.logger.Info("scrape cycle complete", "sources", len(e.scrapers), "inserted", total)
	return inserted
}

// runOne fetches a single source and inserts its listings, absorbing both
// errors and panics so one bad source cannot take down the cycle.
func (e *Engine) runOne(ctx context.Context, s model.Scraper) (inserted int) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("scraper panicked", "source", s.Name(), "panic", r)
			e.recorder.ScrapeFailed(s.Name())
			inserted = 0
		}
	}()

	listings, err := s.Fetch(ctx)
	if err != nil {
		e.logger.Error("scrape failed", "source", s.Name(), "error", err)
		e.recorder.ScrapeFailed(s.Name())
		return 0
	}

	for _, l := range listings {
		ok, err := e.store.AddListing(ctx, l)
		if err != nil {
			e.logger.Error("storing listing", "source", s.Name(), "url", l.URL, "error", err)
			continue
		}
		if ok {
			inserted++
		}
	}

	e.recorder.ScrapeSucceeded(s.Name(), len(listings), inserted)
	e.logger.Info("scraped source",
		"source", s.Name(),
		"fetched", len(listings),
		"new", inserted,
	)
	return inserted
}
