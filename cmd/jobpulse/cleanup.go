package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/jobpulse/jobpulse/internal/store"
)

var cleanupDays int

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove old listings",
	Long:  "Deletes listings older than the retention window and prints how many were removed.",
	RunE:  runCleanup,
}

func init() {
	cleanupCmd.Flags().IntVar(&cleanupDays, "days", 0, "override retention window in days (default: config retention_days)")
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	days := cleanupDays
	if days <= 0 {
		days = cfg.RetentionDays
	}

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	removed, err := st.PurgeOlderThan(context.Background(), days)
	if err != nil {
		logger.Error("cleanup failed", "error", err)
		os.Exit(1)
	}
	logger.Info("cleanup complete", "days", days, "removed", removed)
	return nil
}
