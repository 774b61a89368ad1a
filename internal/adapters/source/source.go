// Package source fetches job postings from third-party job boards.
package source

import (
	"context"
	"net/http"
	"time"

	"jobwatch/internal/config"
	"jobwatch/internal/domain/model"
	"jobwatch/pkg/logger"
)

const httpTimeout = 15 * time.Second

// Source fetches the current postings of a single job board.
type Source interface {
	// Name returns the configured human-readable source name.
	Name() string
	// Fetch retrieves all currently listed postings.
	Fetch(ctx context.Context) ([]model.Posting, error)
}

// builders maps a config kind to its constructor. Resolved once at startup
// so a bad kind surfaces before the first cycle, not during one.
var builders = map[string]func(cfg config.SourceConfig, client *http.Client) (Source, error){
	"greenhouse": newGreenhouse,
	"lever":      newLever,
	"workday":    newWorkday,
}

// Build constructs sources for every configured board. Entries with an
// unknown kind or incomplete settings are logged and skipped so one bad
// entry cannot take down the rest.
func Build(ctx context.Context, cfgs []config.SourceConfig, log logger.Logger) []Source {
	client := &http.Client{Timeout: httpTimeout}
	sources := make([]Source, 0, len(cfgs))
	for _, cfg := range cfgs {
		builder, ok := builders[cfg.Kind]
		if !ok {
			log.Warn(ctx, "skipping source with unknown kind",
				logger.String("source", cfg.Name),
				logger.String("kind", cfg.Kind))
			continue
		}
		src, err := builder(cfg, client)
		if err != nil {
			log.Warn(ctx, "skipping misconfigured source",
				logger.String("source", cfg.Name),
				logger.String("kind", cfg.Kind),
				logger.Error(err))
			continue
		}
		sources = append(sources, src)
	}
	return sources
}
