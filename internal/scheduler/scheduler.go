// Package scheduler owns the service's two timed triggers: the recurring
// observation poll and the once-daily rain threshold check. Jobs only call
// into the tracker, which serializes store access behind its own mutex.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/couchcryptid/precip-history-service/internal/config"
	"github.com/couchcryptid/precip-history-service/internal/domain"
)

// cycleTimeout bounds one scheduled run end to end, fetch and publish
// included. Generous relative to the upstream timeout so a slow station
// degrades to a skipped cycle instead of a stuck scheduler.
const cycleTimeout = 2 * time.Minute

// CycleRunner is the tracker surface the scheduled jobs drive.
type CycleRunner interface {
	RunCycle(ctx context.Context) domain.Summary
	CheckThreshold(ctx context.Context, thresholdIn float64) (domain.WaterState, float64)
}

// Scheduler triggers observation cycles on an interval and the threshold
// check once a day.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    CycleRunner
	logger    *slog.Logger

	pollInterval time.Duration
	checkTime    string
	thresholdIn  float64
}

// New creates a Scheduler in the station's timezone, so the daily threshold
// check fires at station-local time.
func New(cfg *config.Config, runner CycleRunner, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		scheduler:    gocron.NewScheduler(cfg.Location),
		runner:       runner,
		logger:       logger,
		pollInterval: cfg.PollInterval,
		checkTime:    cfg.ThresholdCheckTime,
		thresholdIn:  cfg.RainThresholdIn,
	}
}

// Start registers both jobs and starts the scheduler. The poll job runs
// immediately so a fresh process has attributes before the first interval
// elapses.
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(s.pollInterval).StartImmediately().Do(s.runPoll); err != nil {
		return fmt.Errorf("schedule poll job: %w", err)
	}
	if _, err := s.scheduler.Every(1).Day().At(s.checkTime).Do(s.runThresholdCheck); err != nil {
		return fmt.Errorf("schedule threshold check: %w", err)
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler started",
		"poll_interval", s.pollInterval,
		"threshold_check_time", s.checkTime,
		"threshold_in", s.thresholdIn,
	)
	return nil
}

// Stop halts job scheduling. A job already running finishes; the tracker's
// mutex keeps a finishing job and shutdown work from interleaving.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runPoll() {
	ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
	defer cancel()

	s.runner.RunCycle(ctx)
}

func (s *Scheduler) runThresholdCheck() {
	ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
	defer cancel()

	s.runner.CheckThreshold(ctx, s.thresholdIn)
}
