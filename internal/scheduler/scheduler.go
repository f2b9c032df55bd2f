// Package scheduler runs periodic incremental ingests on a cron spec.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// RunFunc executes one incremental ingestion run.
type RunFunc func(ctx context.Context)

// Scheduler triggers incremental runs on a fixed schedule. Overlapping
// triggers are skipped: if a run is still in flight when the next tick
// fires, the tick is dropped rather than queued.
type Scheduler struct {
	cron    *cron.Cron
	run     RunFunc
	ctx     context.Context
	running sync.Mutex
	log     *slog.Logger
}

// New creates a Scheduler whose jobs observe ctx for cancellation.
func New(ctx context.Context, run RunFunc) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		run:  run,
		ctx:  ctx,
		log:  slog.Default().With("component", "scheduler"),
	}
}

// Register adds the incremental job at the given cron spec (with seconds
// field, e.g. "0 0 18 * * 1-5").
func (s *Scheduler) Register(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return fmt.Errorf("register ingest job: %w", err)
	}
	return nil
}

func (s *Scheduler) tick() {
	if s.ctx.Err() != nil {
		return
	}
	if !s.running.TryLock() {
		s.log.Warn("previous run still in flight, skipping tick")
		return
	}
	defer s.running.Unlock()

	s.log.Info("scheduled run starting")
	s.run(s.ctx)
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running job to return.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.running.Lock() // wait for an in-flight run
	s.running.Unlock()
	s.log.Info("scheduler stopped")
}
