// Package notify delivers matched postings to the configured channels.
package notify

import (
	"context"

	"jobwatch/internal/config"
	"jobwatch/internal/domain/model"
	"jobwatch/pkg/logger"
)

// Channel delivers postings to one destination.
type Channel interface {
	// Name returns the channel identifier used in logs and metrics.
	Name() string
	// Send delivers a single posting.
	Send(ctx context.Context, p model.Posting) error
	// SendBatch delivers a batch and returns the postings that actually
	// went out. A partial delivery returns the delivered subset together
	// with the error that stopped the rest.
	SendBatch(ctx context.Context, postings []model.Posting) ([]model.Posting, error)
}

// Build constructs every enabled channel. A channel that fails to
// initialize is logged and skipped so the others still deliver.
func Build(ctx context.Context, cfg config.NotificationsConfig, log logger.Logger) []Channel {
	var channels []Channel
	if cfg.Telegram.Enabled {
		ch, err := NewTelegram(cfg.Telegram)
		if err != nil {
			log.Warn(ctx, "skipping telegram channel", logger.Error(err))
		} else {
			channels = append(channels, ch)
		}
	}
	if cfg.Email.Enabled {
		ch, err := NewEmail(cfg.Email)
		if err != nil {
			log.Warn(ctx, "skipping email channel", logger.Error(err))
		} else {
			channels = append(channels, ch)
		}
	}
	return channels
}
