package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Scheduler reprocesses a fixed URL set on an interval. The first run
// starts immediately; later runs fire on the ticker. Runs never overlap
// because the loop is single-threaded.
type Scheduler struct {
	orch     *Orchestrator
	urls     []string
	interval time.Duration
	log      *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler for the given URL set.
func NewScheduler(orch *Orchestrator, urls []string, interval time.Duration, log *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		orch:     orch,
		urls:     urls,
		interval: interval,
		log:      log,
	}
}

// Start launches the schedule loop.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runOnce(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.log.Info("scheduled run starting", "urls", len(s.urls), "interval", s.interval)
	results := s.orch.ProcessBatch(ctx, s.urls)

	var failed int
	for _, r := range results {
		if !r.Succeeded() {
			failed++
		}
	}
	s.log.Info("scheduled run finished", "total", len(results), "failed", failed)
}
