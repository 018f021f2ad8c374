// Package worker implements the retry-queue engine: five periodic
// single-step workers, each draining its own FIFO queue. A step pops at
// most one item, performs one external call, and resolves it as
// success, deferred retry, or terminal give-up. Failures never escape a
// step; they are logged and either retried with randomized backoff or
// routed to the kind-specific give-up path.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/zoff-tech/line-relay/pkg/queue"
)

// Step is one worker policy. RunOnce performs a single drain step and
// must absorb every failure internally.
type Step interface {
	Name() string
	RunOnce(ctx context.Context)
}

// Config carries the retry policy shared by all workers.
type Config struct {
	// MaxAttempts is the attempt cap: once an item's counter exceeds it
	// the item takes the give-up path instead of re-enqueueing.
	MaxAttempts int
	// Retry is the re-push delay window after a failed call.
	Retry queue.Window
	// TranscodeWait is the re-push delay window while media is still
	// being transcoded. Waiting out the transcoder is not a failure.
	TranscodeWait queue.Window
}

// Runner triggers a step on a fixed period. The step runs on the
// ticker goroutine, so two runs of the same worker never overlap; ticks
// that fire while a run is still in flight are dropped.
type Runner struct {
	step     Step
	interval time.Duration
	logger   *slog.Logger
}

// NewRunner wraps a step with a periodic trigger.
func NewRunner(step Step, interval time.Duration, logger *slog.Logger) *Runner {
	return &Runner{step: step, interval: interval, logger: logger}
}

// Run blocks until ctx is canceled, invoking the step each period.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("worker started", "worker", r.step.Name(), "interval", r.interval)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("worker stopped", "worker", r.step.Name())
			return ctx.Err()
		case <-ticker.C:
			r.step.RunOnce(ctx)
		}
	}
}
