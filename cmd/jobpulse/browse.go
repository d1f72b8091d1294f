package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jobpulse/jobpulse/internal/browse"
	"github.com/jobpulse/jobpulse/internal/store"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse stored listings in the terminal",
	Long:  "Opens an interactive TUI over the local database, one tab per category.",
	RunE:  runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
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

	return browse.Run(st)
}
