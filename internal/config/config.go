package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the JobPulse bot.
type Config struct {
	Telegram  TelegramConfig
	Server    ServerConfig
	Database  DatabaseConfig
	Scheduler SchedulerConfig
	Messaging MessagingConfig
	Scrapers  ScraperConfig
	Retry     RetryConfig
	Breaker   BreakerConfig

	RetentionDays int // listings older than this are eligible for cleanup
}

// TelegramConfig holds bot credentials and the webhook identity.
type TelegramConfig struct {
	Token          string `yaml:"token"`            // bot API token, expanded from env by Load
	AdminID        int64  `yaml:"admin_id"`         // sole user allowed to run admin commands
	WebhookBaseURL string `yaml:"webhook_base_url"` // public base URL registered with Telegram
	WebhookToken   string `yaml:"webhook_token"`    // path secret for the inbound webhook
}

// ServerConfig controls the HTTP surface (webhook, health, stats).
type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig locates the SQLite file.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SchedulerConfig controls the scrape and digest timers.
type SchedulerConfig struct {
	Backend        string // "cron" or "loop"
	Timezone       string // IANA name; the digest hour is local to this zone
	ScrapeInterval time.Duration
	DigestHour     int // 0-23, local to Timezone
	StartupGrace   time.Duration
}

// MessagingConfig controls batched notification delivery.
type MessagingConfig struct {
	BatchSize  int
	BatchSleep time.Duration
}

// ScraperConfig controls outbound source fetching.
type ScraperConfig struct {
	Timeout       time.Duration
	UserAgent     string
	MaxConcurrent int
	Sources       []SourceConfig
}

// SourceConfig enables or disables a single registered source.
type SourceConfig struct {
	Name    string `yaml:"name"`
	Enabled bool   `yaml:"enabled"`
}

// RetryConfig controls the retry-with-backoff wrapper around sources.
type RetryConfig struct {
	MaxAttempts     int
	BaseDelay       time.Duration
	MaxDelay        time.Duration
	ExponentialBase float64
	Jitter          bool
}

// BreakerConfig controls the per-source circuit breaker.
type BreakerConfig struct {
	FailureThreshold int
	RecoveryTimeout  time.Duration
	SuccessThreshold int
	HalfOpenMaxCalls int
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// rawConfig is used for YAML unmarshaling (snake_case fields and durations as strings).
type rawConfig struct {
	Telegram  TelegramConfig     `yaml:"telegram"`
	Server    rawServerConfig    `yaml:"server"`
	Database  DatabaseConfig     `yaml:"database"`
	Scheduler rawSchedulerConfig `yaml:"scheduler"`
	Messaging rawMessagingConfig `yaml:"messaging"`
	Scrapers  rawScraperConfig   `yaml:"scrapers"`
	Retry     rawRetryConfig     `yaml:"retry"`
	Breaker   rawBreakerConfig   `yaml:"breaker"`

	RetentionDays int `yaml:"retention_days"`
}

type rawServerConfig struct {
	Port            int    `yaml:"port"`
	ReadTimeout     string `yaml:"read_timeout"`
	WriteTimeout    string `yaml:"write_timeout"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

type rawSchedulerConfig struct {
	Backend        string `yaml:"backend"`
	Timezone       string `yaml:"timezone"`
	ScrapeInterval string `yaml:"scrape_interval"`
	DigestHour     *int   `yaml:"digest_hour"`
	StartupGrace   string `yaml:"startup_grace"`
}

type rawMessagingConfig struct {
	BatchSize  int    `yaml:"batch_size"`
	BatchSleep string `yaml:"batch_sleep"`
}

type rawScraperConfig struct {
	Timeout       string         `yaml:"timeout"`
	UserAgent     string         `yaml:"user_agent"`
	MaxConcurrent int            `yaml:"max_concurrent"`
	Sources       []SourceConfig `yaml:"sources"`
}

type rawRetryConfig struct {
	MaxAttempts     int     `yaml:"max_attempts"`
	BaseDelay       string  `yaml:"base_delay"`
	MaxDelay        string  `yaml:"max_delay"`
	ExponentialBase float64 `yaml:"exponential_base"`
	Jitter          *bool   `yaml:"jitter"`
}

type rawBreakerConfig struct {
	FailureThreshold int    `yaml:"failure_threshold"`
	RecoveryTimeout  string `yaml:"recovery_timeout"`
	SuccessThreshold int    `yaml:"success_threshold"`
	HalfOpenMaxCalls int    `yaml:"half_open_max_calls"`
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables so secrets stay out of the file.
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := &Config{
		Telegram:      raw.Telegram,
		Database:      raw.Database,
		RetentionDays: raw.RetentionDays,
	}

	cfg.Server.Port = raw.Server.Port
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.ReadTimeout, err = parseDuration(raw.Server.ReadTimeout, 5*time.Second, "server.read_timeout"); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = parseDuration(raw.Server.WriteTimeout, 10*time.Second, "server.write_timeout"); err != nil {
		return nil, err
	}
	if cfg.Server.ShutdownTimeout, err = parseDuration(raw.Server.ShutdownTimeout, 30*time.Second, "server.shutdown_timeout"); err != nil {
		return nil, err
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = "jobpulse.db"
	}

	cfg.Scheduler.Backend = raw.Scheduler.Backend
	if cfg.Scheduler.Backend == "" {
		cfg.Scheduler.Backend = "cron"
	}
	cfg.Scheduler.Timezone = raw.Scheduler.Timezone
	if cfg.Scheduler.Timezone == "" {
		cfg.Scheduler.Timezone = "Asia/Kolkata"
	}
	if cfg.Scheduler.ScrapeInterval, err = parseDuration(raw.Scheduler.ScrapeInterval, 3*time.Hour, "scheduler.scrape_interval"); err != nil {
		return nil, err
	}
	cfg.Scheduler.DigestHour = 9
	if raw.Scheduler.DigestHour != nil {
		cfg.Scheduler.DigestHour = *raw.Scheduler.DigestHour
	}
	if cfg.Scheduler.StartupGrace, err = parseDuration(raw.Scheduler.StartupGrace, 30*time.Second, "scheduler.startup_grace"); err != nil {
		return nil, err
	}

	cfg.Messaging.BatchSize = raw.Messaging.BatchSize
	if cfg.Messaging.BatchSize == 0 {
		cfg.Messaging.BatchSize = 25
	}
	if cfg.Messaging.BatchSleep, err = parseDuration(raw.Messaging.BatchSleep, 600*time.Millisecond, "messaging.batch_sleep"); err != nil {
		return nil, err
	}

	if cfg.Scrapers.Timeout, err = parseDuration(raw.Scrapers.Timeout, 30*time.Second, "scrapers.timeout"); err != nil {
		return nil, err
	}
	cfg.Scrapers.UserAgent = raw.Scrapers.UserAgent
	if cfg.Scrapers.UserAgent == "" {
		cfg.Scrapers.UserAgent = defaultUserAgent
	}
	cfg.Scrapers.MaxConcurrent = raw.Scrapers.MaxConcurrent
	if cfg.Scrapers.MaxConcurrent == 0 {
		cfg.Scrapers.MaxConcurrent = 3
	}
	cfg.Scrapers.Sources = raw.Scrapers.Sources

	cfg.Retry.MaxAttempts = raw.Retry.MaxAttempts
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = 3
	}
	if cfg.Retry.BaseDelay, err = parseDuration(raw.Retry.BaseDelay, time.Second, "retry.base_delay"); err != nil {
		return nil, err
	}
	if cfg.Retry.MaxDelay, err = parseDuration(raw.Retry.MaxDelay, time.Minute, "retry.max_delay"); err != nil {
		return nil, err
	}
	cfg.Retry.ExponentialBase = raw.Retry.ExponentialBase
	if cfg.Retry.ExponentialBase == 0 {
		cfg.Retry.ExponentialBase = 2.0
	}
	cfg.Retry.Jitter = true
	if raw.Retry.Jitter != nil {
		cfg.Retry.Jitter = *raw.Retry.Jitter
	}

	cfg.Breaker.FailureThreshold = raw.Breaker.FailureThreshold
	if cfg.Breaker.FailureThreshold == 0 {
		cfg.Breaker.FailureThreshold = 5
	}
	if cfg.Breaker.RecoveryTimeout, err = parseDuration(raw.Breaker.RecoveryTimeout, time.Minute, "breaker.recovery_timeout"); err != nil {
		return nil, err
	}
	cfg.Breaker.SuccessThreshold = raw.Breaker.SuccessThreshold
	if cfg.Breaker.SuccessThreshold == 0 {
		cfg.Breaker.SuccessThreshold = 2
	}
	cfg.Breaker.HalfOpenMaxCalls = raw.Breaker.HalfOpenMaxCalls
	if cfg.Breaker.HalfOpenMaxCalls == 0 {
		cfg.Breaker.HalfOpenMaxCalls = 3
	}

	if cfg.RetentionDays == 0 {
		cfg.RetentionDays = 30
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseDuration(raw string, def time.Duration, field string) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, raw, err)
	}
	return d, nil
}

// SourceEnabled reports whether the named source should run. Sources absent
// from the config default to enabled.
func (c ScraperConfig) SourceEnabled(name string) bool {
	for _, s := range c.Sources {
		if s.Name == name {
			return s.Enabled
		}
	}
	return true
}

func validate(cfg *Config) error {
	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required")
	}
	if cfg.Telegram.AdminID <= 0 {
		return fmt.Errorf("telegram.admin_id must be a positive integer")
	}
	if cfg.Telegram.WebhookToken == "" {
		return fmt.Errorf("telegram.webhook_token is required")
	}
	if cfg.Scheduler.Backend != "cron" && cfg.Scheduler.Backend != "loop" {
		return fmt.Errorf("scheduler.backend must be \"cron\" or \"loop\", got %q", cfg.Scheduler.Backend)
	}
	if cfg.Scheduler.ScrapeInterval < time.Minute {
		return fmt.Errorf("scheduler.scrape_interval must be at least 1m, got %v", cfg.Scheduler.ScrapeInterval)
	}
	if cfg.Scheduler.DigestHour < 0 || cfg.Scheduler.DigestHour > 23 {
		return fmt.Errorf("scheduler.digest_hour must be between 0 and 23, got %d", cfg.Scheduler.DigestHour)
	}
	if _, err := time.LoadLocation(cfg.Scheduler.Timezone); err != nil {
		return fmt.Errorf("scheduler.timezone %q: %w", cfg.Scheduler.Timezone, err)
	}
	if cfg.Messaging.BatchSize <= 0 {
		return fmt.Errorf("messaging.batch_size must be positive, got %d", cfg.Messaging.BatchSize)
	}
	if cfg.Scrapers.Timeout > 30*time.Second {
		return fmt.Errorf("scrapers.timeout must not exceed 30s, got %v", cfg.Scrapers.Timeout)
	}
	if cfg.Scrapers.MaxConcurrent <= 0 {
		return fmt.Errorf("scrapers.max_concurrent must be positive, got %d", cfg.Scrapers.MaxConcurrent)
	}
	if cfg.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("retry.max_attempts must be positive, got %d", cfg.Retry.MaxAttempts)
	}
	if cfg.RetentionDays <= 0 {
		return fmt.Errorf("retention_days must be positive, got %d", cfg.RetentionDays)
	}
	return nil
}
