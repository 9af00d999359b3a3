package tasks

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job is one full pipeline run.
type Job func(ctx context.Context) error

// Scheduler runs the job immediately on start and then at a fixed interval.
// Runs never overlap: the job executes on the ticker goroutine itself, and
// ticks that fire while a run is still in progress are dropped by the ticker
// rather than queued.
type Scheduler struct {
	job      Job
	onError  func(error)
	interval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(job Job, onError func(error), interval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		job:      job,
		onError:  onError,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.runJob()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.runJob()
			}
		}
	}()

	slog.Info("Scheduler started", "interval", s.interval)
}

// Stop cancels the run context and waits for an in-flight run to return.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	slog.Info("Scheduler stopped")
}

func (s *Scheduler) runJob() {
	if s.ctx.Err() != nil {
		return
	}

	slog.Info("Pipeline run started")
	start := time.Now()

	if err := s.job(s.ctx); err != nil {
		slog.Error("Pipeline run failed", "duration", time.Since(start), "error", err)
		if s.onError != nil && s.ctx.Err() == nil {
			s.onError(err)
		}
		return
	}

	slog.Info("Pipeline run completed", "duration", time.Since(start))
}
