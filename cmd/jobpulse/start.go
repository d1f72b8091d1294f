package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jobpulse/jobpulse/internal/metrics"
	"github.com/jobpulse/jobpulse/internal/notifier"
	"github.com/jobpulse/jobpulse/internal/scheduler"
	"github.com/jobpulse/jobpulse/internal/scraper"
	"github.com/jobpulse/jobpulse/internal/server"
	"github.com/jobpulse/jobpulse/internal/store"
	"github.com/jobpulse/jobpulse/internal/telegram"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the bot daemon",
	Long:  "Runs the scheduler and webhook server; blocks until SIGINT/SIGTERM.",
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"scrape_interval", cfg.Scheduler.ScrapeInterval.String(),
		"digest_hour", cfg.Scheduler.DigestHour,
		"timezone", cfg.Scheduler.Timezone,
		"backend", cfg.Scheduler.Backend,
	)

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	recorder := metrics.NewInMemory()
	httpClient := &http.Client{Timeout: cfg.Scrapers.Timeout}

	scrapers := buildScrapers(cfg, httpClient, logger)
	if len(scrapers) == 0 {
		logger.Error("no sources enabled")
		os.Exit(1)
	}
	engine := scraper.NewEngine(scrapers, st, cfg.Scrapers.MaxConcurrent, recorder, logger)

	client, err := telegram.NewClient(cfg.Telegram.Token, logger)
	if err != nil {
		logger.Error("failed to connect to telegram", "error", err)
		os.Exit(1)
	}

	notif := notifier.New(client, cfg.Messaging.BatchSize, cfg.Messaging.BatchSleep, recorder, logger)
	digest := notifier.NewDigest(st, notif, logger)

	purge := func(ctx context.Context) (int64, error) {
		return st.PurgeOlderThan(ctx, cfg.RetentionDays)
	}
	bot := telegram.NewBot(st, client, cfg.Telegram.AdminID, purge, recorder, logger)

	sched, err := scheduler.New(cfg.Scheduler, scheduler.Jobs{
		Scrape: func(ctx context.Context) { engine.Run(ctx) },
		Digest: func(ctx context.Context) {
			if _, err := digest.Run(ctx); err != nil {
				logger.Error("digest run failed", "error", err)
			}
		},
	}, logger)
	if err != nil {
		logger.Error("failed to build scheduler", "error", err)
		os.Exit(1)
	}

	router := server.NewRouter(server.Deps{
		WebhookToken: cfg.Telegram.WebhookToken,
		Bot:          bot,
		Store:        st,
		Pinger:       st,
		Metrics:      recorder,
		Logger:       logger,
	})
	srv := server.New(router, cfg.Server.Port,
		cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout, logger)

	if cfg.Telegram.WebhookBaseURL != "" {
		if err := client.RegisterWebhook(cfg.Telegram.WebhookBaseURL, cfg.Telegram.WebhookToken); err != nil {
			logger.Error("failed to register webhook", "error", err)
			os.Exit(1)
		}
		logger.Info("webhook registered", "base_url", cfg.Telegram.WebhookBaseURL)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() { errCh <- srv.Run(ctx) }()
	go func() { errCh <- sched.Run(ctx) }()

	var firstErr error
	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil {
			if firstErr == nil {
				firstErr = err
			}
			stop()
		}
	}
	if firstErr != nil {
		logger.Error("daemon error", "error", firstErr)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
