package main

import (
	"context"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/jobpulse/jobpulse/internal/metrics"
	"github.com/jobpulse/jobpulse/internal/scraper"
	"github.com/jobpulse/jobpulse/internal/store"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Run one scrape cycle and exit",
	Long:  "Fetches every enabled source once, stores new listings, and prints per-source counts.",
	RunE:  runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	httpClient := &http.Client{Timeout: cfg.Scrapers.Timeout}
	scrapers := buildScrapers(cfg, httpClient, logger)
	if len(scrapers) == 0 {
		logger.Error("no sources enabled")
		os.Exit(1)
	}

	engine := scraper.NewEngine(scrapers, st, cfg.Scrapers.MaxConcurrent, metrics.NewInMemory(), logger)
	counts := engine.Run(context.Background())
	for source, n := range counts {
		logger.Info("source result", "source", source, "new", n)
	}
	return nil
}
