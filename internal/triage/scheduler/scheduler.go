package scheduler

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// RunFunc is one triage pass. Errors are logged and the loop keeps going;
// a transient API failure should not kill a long-running watch.
type RunFunc func(ctx context.Context) error

// Runner executes a triage pass on a fixed interval. The first pass runs
// immediately on Start.
type Runner struct {
	run      RunFunc
	interval time.Duration
	logger   *log.Logger
	stopChan chan struct{}
}

func NewRunner(run RunFunc, interval time.Duration, logger *log.Logger) *Runner {
	return &Runner{
		run:      run,
		interval: interval,
		logger:   logger.WithPrefix("scheduler"),
		stopChan: make(chan struct{}),
	}
}

// Start blocks until the context is cancelled or Stop is called.
func (r *Runner) Start(ctx context.Context) {
	r.logger.Info("watch mode", "interval", r.interval)

	r.pass(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.pass(ctx)
		case <-ctx.Done():
			r.logger.Info("watch stopped", "reason", ctx.Err())
			return
		case <-r.stopChan:
			r.logger.Info("watch stopped")
			return
		}
	}
}

// Stop ends the loop after the current pass finishes.
func (r *Runner) Stop() {
	close(r.stopChan)
}

func (r *Runner) pass(ctx context.Context) {
	started := time.Now()
	if err := r.run(ctx); err != nil {
		r.logger.Error("triage pass failed", "err", err)
		return
	}
	r.logger.Info("triage pass finished", "took", time.Since(started).Round(time.Second))
}
