package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if path or JOBWATCH_CONFIG is set
//  3. env (prefix JOBWATCH_, "__" as the nesting delimiter)
func Load(ctx context.Context, path string) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path == "" {
		path = os.Getenv("JOBWATCH_CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: JOBWATCH_LOG_LEVEL -> log_level,
	// JOBWATCH_NOTIFICATIONS__TELEGRAM__BOT_TOKEN -> notifications.telegram.bot_token.
	envProvider := env.Provider("JOBWATCH_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "jobwatch_")
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate rejects configurations the process cannot run with. An unknown
// matching mode is deliberately not rejected here; the matching engine
// degrades to tokenized behavior with a warning.
func validate(cfg *Config) error {
	if cfg.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if cfg.DatabasePath == "" {
		return fmt.Errorf("%w: database_path must not be empty", ErrInvalidConfig)
	}
	if cfg.IntervalMinutes < 1 {
		return fmt.Errorf("%w: interval_minutes must be at least 1, got %d", ErrInvalidConfig, cfg.IntervalMinutes)
	}
	if cfg.Matching.FuzzyThreshold < 0 || cfg.Matching.FuzzyThreshold > 1 {
		return fmt.Errorf("%w: fuzzy_threshold must be in [0,1], got %g", ErrInvalidConfig, cfg.Matching.FuzzyThreshold)
	}
	for i, src := range cfg.Sources {
		if src.Name == "" {
			return fmt.Errorf("%w: sources[%d] is missing a name", ErrInvalidConfig, i)
		}
	}
	return nil
}
