package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/jobpulse/jobpulse/internal/breaker"
	"github.com/jobpulse/jobpulse/internal/config"
	"github.com/jobpulse/jobpulse/internal/model"
	"github.com/jobpulse/jobpulse/internal/retry"
	"github.com/jobpulse/jobpulse/internal/scraper"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobpulse",
	Short: "Listing radar for jobs, internships and scholarships",
	Long:  "JobPulse scrapes job, internship and scholarship sources and delivers new listings to subscribed Telegram users.",
	// Default to `start` so that `jobpulse` with no args runs the daemon.
	// This preserves compatibility with systemd unit files that invoke the binary directly.
	RunE: runStart,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBPULSE_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > JOBPULSE_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("JOBPULSE_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

// buildScrapers constructs every enabled source, each wrapped with retry and
// a circuit breaker.
func buildScrapers(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) []model.Scraper {
	ua := cfg.Scrapers.UserAgent
	all := []model.Scraper{
		scraper.NewRemoteOK(httpClient, ua),
		scraper.NewWeWorkRemotely(httpClient, ua),
		scraper.NewInternshala(httpClient, ua),
		scraper.NewScholarshipsCorner(httpClient, ua),
	}

	var scrapers []model.Scraper
	for _, s := range all {
		if !cfg.Scrapers.SourceEnabled(s.Name()) {
			logger.Info("source disabled", "source", s.Name())
			continue
		}
		wrapped := retry.Wrap(s, cfg.Retry, logger)
		scrapers = append(scrapers, breaker.Wrap(wrapped, cfg.Breaker, logger))
		logger.Info("registered source", "source", s.Name())
	}
	return scrapers
}
