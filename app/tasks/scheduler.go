package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/akarpov/redscout/app/scan"
)

// A full pass over all subreddits with pacing and retries stays well inside
// this budget; the deadline only matters when the upstream misbehaves
const runTimeout = 5 * time.Minute

type ScanRunner interface {
	Run(ctx context.Context) *scan.RunSummary
}

// Scheduler drives automatic scans on a cron schedule. An empty schedule
// disables it and leaves the HTTP trigger as the only way to start a run.
type Scheduler struct {
	runner   ScanRunner
	schedule string
	cron     *cron.Cron
	running  atomic.Bool
}

func NewScheduler(runner ScanRunner, schedule string) *Scheduler {
	return &Scheduler{
		runner:   runner,
		schedule: schedule,
	}
}

func (s *Scheduler) Start() error {
	if s.schedule == "" {
		slog.Info("Scheduled scans disabled, runs are trigger-only")
		return nil
	}

	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.schedule, s.runOnce); err != nil {
		return fmt.Errorf("invalid scan schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()

	slog.Info("Scheduled scans enabled", "schedule", s.schedule)
	return nil
}

func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// runOnce skips the tick when the previous run is still executing; the
// dedup gate would keep an overlap correct, but overlapping runs double the
// upstream request rate for nothing.
func (s *Scheduler) runOnce() {
	if !s.running.CompareAndSwap(false, true) {
		slog.Warn("Previous scan still running, skipping scheduled run")
		return
	}
	defer s.running.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	s.runner.Run(ctx)
}
