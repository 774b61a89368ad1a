// Package service runs the watch cycle that ties sources, matching,
// storage and notification together.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"jobwatch/internal/adapters/notify"
	"jobwatch/internal/adapters/repository"
	"jobwatch/internal/adapters/source"
	"jobwatch/internal/domain/match"
	"jobwatch/internal/domain/model"
	"jobwatch/internal/domain/types"
	"jobwatch/pkg/logger"
	"jobwatch/pkg/metrics"
)

// Service owns one end-to-end watch pipeline.
type Service struct {
	store    repository.Store
	engine   *match.Engine
	sources  []source.Source
	channels []notify.Channel
	logger   logger.Logger

	// cycleMu serializes cycles. A tick that arrives while a cycle is
	// still running is skipped, not queued.
	cycleMu sync.Mutex

	stateMu   sync.RWMutex
	cyclesRun int
	lastCycle *types.CycleReport
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the posting store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithEngine sets the matching engine.
func WithEngine(engine *match.Engine) Option {
	return func(s *Service) {
		s.engine = engine
	}
}

// WithSources sets the job board sources to poll.
func WithSources(sources []source.Source) Option {
	return func(s *Service) {
		s.sources = sources
	}
}

// WithChannels sets the notification channels.
func WithChannels(channels []notify.Channel) Option {
	return func(s *Service) {
		s.channels = channels
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// New constructs a Service.
func New(opts ...Option) *Service {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	return s
}

// RunCycle executes one watch cycle: poll every source, keep the postings
// that match, persist the new ones and notify the unnotified backlog. A
// failing source or channel never aborts the cycle; only the store can.
func (s *Service) RunCycle(ctx context.Context) (types.CycleReport, error) {
	if !s.cycleMu.TryLock() {
		return types.CycleReport{}, ErrCycleInProgress
	}
	defer s.cycleMu.Unlock()

	if len(s.sources) == 0 {
		return types.CycleReport{}, ErrNoSources
	}

	report := types.CycleReport{
		CycleID: uuid.NewString(),
		Started: time.Now(),
	}
	s.logger.Info(ctx, "watch cycle started",
		logger.String("cycle", report.CycleID),
		logger.Int("sources", len(s.sources)),
	)

	var postings []model.Posting
	report.Sources, postings = s.Scrape(ctx)
	report.Scraped = len(postings)

	matched := s.filter(ctx, postings)
	report.Matched = len(matched)

	newCount, err := s.persist(ctx, matched)
	if err != nil {
		metrics.RecordCycleFailure()
		return report, err
	}
	report.New = newCount

	pending, err := s.store.Unnotified(ctx)
	if err != nil {
		metrics.RecordCycleFailure()
		return report, fmt.Errorf("listing unnotified postings: %w", err)
	}

	report.Channels, report.Notified = s.notifyAll(ctx, pending)

	report.Duration = time.Since(report.Started)
	s.finishCycle(ctx, report, len(pending))
	return report, nil
}

// Scrape polls every source concurrently and returns one summary per
// source, in configuration order, together with everything fetched.
func (s *Service) Scrape(ctx context.Context) ([]types.SourceResult, []model.Posting) {
	results := make([]types.SourceResult, len(s.sources))
	fetched := make([][]model.Posting, len(s.sources))
	var wg sync.WaitGroup
	for i, src := range s.sources {
		wg.Add(1)
		go func(i int, src source.Source) {
			defer wg.Done()
			scraped, err := src.Fetch(ctx)
			fetched[i] = scraped
			results[i] = types.SourceResult{
				Source:  src.Name(),
				Scraped: len(scraped),
				Err:     errString(err),
			}
			if err != nil {
				metrics.RecordSourceError(src.Name())
				s.logger.Warn(ctx, "source fetch failed",
					logger.String("source", src.Name()),
					logger.Error(err),
				)
			}
			metrics.RecordPostingsScraped(src.Name(), len(scraped))
		}(i, src)
	}
	wg.Wait()

	var postings []model.Posting
	for _, batch := range fetched {
		postings = append(postings, batch...)
	}
	return results, postings
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// filter drops invalid postings and keeps the ones the engine accepts.
func (s *Service) filter(ctx context.Context, postings []model.Posting) []model.Posting {
	matched := make([]model.Posting, 0, len(postings))
	for _, p := range postings {
		if !p.Valid() {
			s.logger.Debug(ctx, "skipping invalid posting",
				logger.String("company", p.Company),
				logger.String("title", p.Title),
			)
			continue
		}
		if !s.engine.Matches(p) {
			continue
		}
		metrics.RecordPostingMatched()
		matched = append(matched, p)
	}
	return matched
}

// persist stores matched postings and returns how many were new. The URL
// uniqueness of the store is the single dedup authority, across cycles and
// across sources within one cycle.
func (s *Service) persist(ctx context.Context, matched []model.Posting) (int, error) {
	newCount := 0
	for _, p := range matched {
		added, err := s.store.Add(ctx, p)
		if err != nil {
			return newCount, fmt.Errorf("storing posting %s: %w", p.URL, err)
		}
		if added {
			newCount++
			metrics.RecordPostingNew()
			s.logger.Info(ctx, "new matching posting",
				logger.String("company", p.Company),
				logger.String("title", p.Title),
				logger.String("url", p.URL),
			)
		} else {
			metrics.RecordPostingDuplicate()
		}
	}
	return newCount, nil
}

// notifyAll fans the pending batch out to every channel concurrently and
// marks a posting notified once any channel delivered it. A posting no
// channel delivered stays unnotified and is retried next cycle.
func (s *Service) notifyAll(ctx context.Context, pending []model.Posting) ([]types.ChannelResult, int) {
	if len(pending) == 0 || len(s.channels) == 0 {
		return nil, 0
	}

	results := make([]types.ChannelResult, len(s.channels))
	deliveries := make([][]model.Posting, len(s.channels))
	var wg sync.WaitGroup
	for i, ch := range s.channels {
		wg.Add(1)
		go func(i int, ch notify.Channel) {
			defer wg.Done()
			delivered, err := ch.SendBatch(ctx, pending)
			deliveries[i] = delivered
			results[i] = types.ChannelResult{
				Channel:   ch.Name(),
				Attempted: len(pending),
				Delivered: len(delivered),
				Err:       errString(err),
			}
			metrics.RecordNotificationsSent(ch.Name(), len(delivered))
			if err != nil {
				metrics.RecordNotificationError(ch.Name())
				s.logger.Warn(ctx, "channel delivery failed",
					logger.String("channel", ch.Name()),
					logger.Int("delivered", len(delivered)),
					logger.Int("attempted", len(pending)),
					logger.Error(err),
				)
			}
		}(i, ch)
	}
	wg.Wait()

	// A posting counts as notified once ANY channel delivered it.
	delivered := make(map[string]struct{})
	for _, batch := range deliveries {
		for _, p := range batch {
			delivered[p.URL] = struct{}{}
		}
	}
	for url := range delivered {
		if err := s.store.MarkNotified(ctx, url); err != nil {
			s.logger.Error(ctx, "marking posting notified failed",
				logger.String("url", url),
				logger.Error(err),
			)
		}
	}
	return results, len(delivered)
}

func (s *Service) finishCycle(ctx context.Context, report types.CycleReport, pendingBefore int) {
	metrics.RecordCycle(report.Duration.Seconds())
	if total, err := s.store.Count(ctx); err == nil {
		metrics.UpdateStorePostings(total)
	}
	if remaining, err := s.store.Unnotified(ctx); err == nil {
		metrics.UpdateStoreUnnotified(len(remaining))
	}

	s.stateMu.Lock()
	s.cyclesRun++
	reportCopy := report
	s.lastCycle = &reportCopy
	s.stateMu.Unlock()

	s.logger.Info(ctx, "watch cycle finished",
		logger.String("cycle", report.CycleID),
		logger.Int("scraped", report.Scraped),
		logger.Int("matched", report.Matched),
		logger.Int("new", report.New),
		logger.Int("notified", report.Notified),
		logger.Int("pending_before", pendingBefore),
		logger.Duration("duration", report.Duration),
	)
}

// SendTest delivers a synthetic posting to every channel so operators can
// verify credentials without waiting for a real match.
func (s *Service) SendTest(ctx context.Context) error {
	probe := model.Posting{
		Company:  "jobwatch",
		Title:    "Test Notification",
		URL:      "https://example.com/jobwatch-test",
		Location: "Everywhere",
	}
	var firstErr error
	for _, ch := range s.channels {
		if err := ch.Send(ctx, probe); err != nil {
			s.logger.Warn(ctx, "test notification failed",
				logger.String("channel", ch.Name()),
				logger.Error(err),
			)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		s.logger.Info(ctx, "test notification delivered", logger.String("channel", ch.Name()))
	}
	return firstErr
}

// Healthy reports whether the posting store is reachable.
func (s *Service) Healthy(ctx context.Context) error {
	_, err := s.store.Count(ctx)
	return err
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	stats := map[string]interface{}{
		"sources":   len(s.sources),
		"channels":  len(s.channels),
		"cyclesRun": s.cyclesRun,
	}
	if s.lastCycle != nil {
		stats["lastCycle"] = *s.lastCycle
	}
	ctx := context.Background()
	if total, err := s.store.Count(ctx); err == nil {
		stats["totalPostings"] = total
	}
	if pending, err := s.store.Unnotified(ctx); err == nil {
		stats["unnotifiedPostings"] = len(pending)
	}
	return stats
}
