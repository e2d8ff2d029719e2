package smoke

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/compresr/flightdesk/internal/monitoring"
)

// Scheduler re-runs the suite on a cron schedule.
//
// Common schedules:
//   - "@every 5m"    - Every five minutes
//   - "*/15 * * * *" - Every quarter hour
//   - "0 * * * *"    - Hourly
type Scheduler struct {
	runner   *Runner
	schedule string
	onReport func(Report)
	cron     *cron.Cron
	logger   *monitoring.Logger

	mu      sync.Mutex
	running bool
}

// NewScheduler creates a scheduler. onReport receives every finished run and
// may be nil.
func NewScheduler(runner *Runner, schedule string, onReport func(Report), logger *monitoring.Logger) *Scheduler {
	if logger == nil {
		logger = monitoring.Nop()
	}
	return &Scheduler{
		runner:   runner,
		schedule: schedule,
		onReport: onReport,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:   logger,
	}
}

// Start validates the schedule and starts running. It stops on its own when
// ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("smoke scheduler already running")
	}
	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	_, err := s.cron.AddFunc(s.schedule, func() {
		report := s.runner.Run(ctx)
		if s.onReport != nil {
			s.onReport(report)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule smoke run: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info().Str("schedule", s.schedule).Msg("smoke scheduler started")

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop stops the scheduler and waits for a running suite to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		<-s.cron.Stop().Done()
		s.running = false
		s.logger.Info().Msg("smoke scheduler stopped")
	}
}

// NextRun returns the next scheduled run, or the zero time when stopped.
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if !s.running || len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
