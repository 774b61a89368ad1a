// Package scheduler wires up the cron job that periodically triggers
// watch cycles.
package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"

	service "jobwatch/internal/app"
	"jobwatch/internal/domain/types"
	"jobwatch/pkg/logger"
)

// CycleRunner is the slice of the service the scheduler drives.
type CycleRunner interface {
	RunCycle(ctx context.Context) (types.CycleReport, error)
}

// Scheduler wraps robfig/cron and manages the watch loop.
type Scheduler struct {
	cron   *cron.Cron
	runner CycleRunner
	spec   string
	logger logger.Logger
}

// New creates a Scheduler that fires every intervalMinutes minutes.
func New(runner CycleRunner, intervalMinutes int, log logger.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		runner: runner,
		spec:   fmt.Sprintf("@every %dm", intervalMinutes),
		logger: log,
	}
}

// Start registers the job and starts the scheduler. Also runs one cycle
// immediately so fresh postings show up without waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	// A shutdown stops the ticker but lets an in-flight cycle finish;
	// interrupting between persist and mark-notified would double-send
	// on the next start.
	cycleCtx := context.WithoutCancel(ctx)
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runCycle(cycleCtx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.logger.Info(ctx, "scheduler started", logger.String("spec", s.spec))

	go s.runCycle(cycleCtx)

	return nil
}

// Stop shuts the scheduler down and waits for a running cycle to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info(context.Background(), "scheduler stopped")
}

func (s *Scheduler) runCycle(ctx context.Context) {
	report, err := s.runner.RunCycle(ctx)
	if err != nil {
		if errors.Is(err, service.ErrCycleInProgress) {
			s.logger.Warn(ctx, "previous cycle still running, tick skipped")
			return
		}
		s.logger.Error(ctx, "watch cycle failed", logger.Error(err))
		return
	}
	s.logger.Debug(ctx, "scheduled cycle finished",
		logger.String("cycle", report.CycleID),
		logger.Int("new", report.New),
	)
}
