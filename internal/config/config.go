// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) to build a Config with defaults.
// - Load(ctx) layers defaults, optional YAML file, and env vars.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
)

// SourceConfig describes one configured job-posting source.
type SourceConfig struct {
	// Name identifies the company/board in logs and reports.
	Name string `koanf:"name"`

	// Kind selects the fetcher implementation: greenhouse, lever, workday.
	Kind string `koanf:"kind"`

	// URL is the source endpoint. For greenhouse/lever it may be left empty
	// when Board is set; for workday it is the CXS jobs URL.
	URL string `koanf:"url"`

	// Board is the board/company slug used by greenhouse and lever.
	Board string `koanf:"board"`
}

// KeywordsConfig holds the operator's interest criteria.
type KeywordsConfig struct {
	Include          []string `koanf:"include"`
	Exclude          []string `koanf:"exclude"`
	Locations        []string `koanf:"locations"`
	ExperienceLevels []string `koanf:"experience_levels"`
}

// MatchingConfig selects the matching algorithm.
type MatchingConfig struct {
	// Mode is one of: exact, tokenized, fuzzy.
	Mode string `koanf:"mode"`

	// FuzzyThreshold is the similarity ratio in [0,1] for fuzzy mode.
	FuzzyThreshold float64 `koanf:"fuzzy_threshold"`

	CaseSensitive bool `koanf:"case_sensitive"`
}

// TelegramConfig configures the telegram channel.
type TelegramConfig struct {
	Enabled  bool   `koanf:"enabled"`
	BotToken string `koanf:"bot_token"`
	ChatID   int64  `koanf:"chat_id"`
}

// EmailConfig configures the SMTP email channel.
type EmailConfig struct {
	Enabled        bool   `koanf:"enabled"`
	SMTPHost       string `koanf:"smtp_host"`
	SMTPPort       int    `koanf:"smtp_port"`
	SenderEmail    string `koanf:"sender_email"`
	SenderPassword string `koanf:"sender_password"`
	RecipientEmail string `koanf:"recipient_email"`
}

// NotificationsConfig groups all channel configurations.
type NotificationsConfig struct {
	Telegram TelegramConfig `koanf:"telegram"`
	Email    EmailConfig    `koanf:"email"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the admin HTTP listen address, e.g. ":8090".
	Addr string `koanf:"addr"`

	// IntervalMinutes sets the minutes between pipeline cycles.
	IntervalMinutes int `koanf:"interval_minutes"`

	// DatabasePath is the SQLite file backing the posting store.
	DatabasePath string `koanf:"database_path"`

	Sources       []SourceConfig      `koanf:"sources"`
	Keywords      KeywordsConfig      `koanf:"keywords"`
	Matching      MatchingConfig      `koanf:"matching"`
	Notifications NotificationsConfig `koanf:"notifications"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:        "info",
		Addr:            ":8090",
		IntervalMinutes: 10,
		DatabasePath:    "data/jobs.db",
		Matching: MatchingConfig{
			Mode:           "tokenized",
			FuzzyThreshold: 0.85,
			CaseSensitive:  false,
		},
		Notifications: NotificationsConfig{
			Email: EmailConfig{
				SMTPHost: "smtp.gmail.com",
				SMTPPort: 587,
			},
		},
	}
}
