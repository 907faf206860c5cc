package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/neomorfeo/kidvo/internal/app"
)

// DigestRunner sends one round of the new-listings digest.
type DigestRunner interface {
	Run(ctx context.Context) (app.DigestResult, error)
}

// Scheduler runs the daily digest on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	digest   DigestRunner
	schedule string
	timeout  time.Duration
	logger   *slog.Logger
}

// NewScheduler creates a scheduler. schedule is a standard five-field cron
// expression; timeout bounds each digest run.
func NewScheduler(digest DigestRunner, schedule string, timeout time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	return &Scheduler{
		cron:     cron.New(cron.WithChain(cron.Recover(cronLogger))),
		digest:   digest,
		schedule: schedule,
		timeout:  timeout,
		logger:   logger,
	}
}

// Start registers the digest job and starts the scheduler.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runDigest); err != nil {
		return fmt.Errorf("scheduling digest %q: %w", s.schedule, err)
	}
	s.logger.Info("scheduled digest job", "schedule", s.schedule)
	s.cron.Start()
	return nil
}

// Stop stops the scheduler. The returned context is done once a running
// job has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) runDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	result, err := s.digest.Run(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "digest run failed", "error", err)
		return
	}
	s.logger.InfoContext(ctx, "digest run finished",
		"listings", result.Listings,
		"sent", result.Sent,
	)
}
