package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/jobpulse/jobpulse/internal/telegram"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Notification subcommands",
}

var notifyTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a test message to the admin",
	Long:  "Sends a test message to the configured admin chat to verify the bot token.",
	RunE:  runNotifyTest,
}

func init() {
	rootCmd.AddCommand(notifyCmd)
	notifyCmd.AddCommand(notifyTestCmd)
}

func runNotifyTest(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	client, err := telegram.NewClient(cfg.Telegram.Token, logger)
	if err != nil {
		logger.Error("failed to connect to telegram", "error", err)
		os.Exit(1)
	}

	msg := "🔔 Test notification: the bot token and admin chat are working."
	if err := client.SendMessage(context.Background(), cfg.Telegram.AdminID, msg); err != nil {
		logger.Error("test notification failed", "error", err)
		os.Exit(1)
	}
	logger.Info("test notification sent successfully")
	return nil
}
