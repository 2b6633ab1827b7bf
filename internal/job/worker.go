package job

import (
	"context"
	"log/slog"
	"time"
)

// DefaultPollInterval is the idle delay between claim attempts.
const DefaultPollInterval = 2 * time.Second

// Worker polls the store for queued jobs and executes them one at a
// time to completion. Claims are serialized through the store, so
// multiple workers on one store never share a job.
type Worker struct {
	store    Store
	runner   *Runner
	interval time.Duration
}

// NewWorker creates a polling worker. A zero interval selects
// DefaultPollInterval.
func NewWorker(store Store, runner *Runner, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Worker{store: store, runner: runner, interval: interval}
}

// Run polls until ctx is cancelled. Job failures are terminal for the
// job but never for the worker.
func (w *Worker) Run(ctx context.Context) error {
	slog.Info("Worker started", "poll_interval", w.interval)

	for {
		if err := ctx.Err(); err != nil {
			slog.Info("Worker stopping")
			return err
		}

		j, err := w.store.Claim(ctx)
		if err != nil {
			slog.Error("Failed to claim job", "error", err)
			if !w.sleep(ctx) {
				return ctx.Err()
			}
			continue
		}
		if j == nil {
			if !w.sleep(ctx) {
				return ctx.Err()
			}
			continue
		}

		// Terminal failures are recorded on the job by the runner.
		_ = w.runner.Execute(ctx, j)
	}
}

func (w *Worker) sleep(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(w.interval):
		return true
	}
}
