// Package worker implements the common skeleton every worker stage
// follows: claim, guard, work, commit, fail-handling, poll cadence
// (spec.md §4.5). Conversion, Optimization, and AI workers each
// supply a Stage and run it through Loop.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/camcoord/coordinator/internal/models"
	"github.com/camcoord/coordinator/internal/observability"
	"github.com/camcoord/coordinator/internal/store"
)

// ClaimantID is this process's identity stamped on every claim it
// takes, "{host}:{pid}" per spec.md §4.5 step 1.
func ClaimantID() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return host + ":" + strconv.Itoa(os.Getpid())
}

// Stage is what one worker type supplies: how to claim a batch and
// how to process one claimed event. Loop handles polling, backoff,
// and the shared metrics/logging around it.
type Stage interface {
	// Name identifies the stage for metrics and log lines ("conversion", "optimization", "ai").
	Name() string
	// Claim atomically takes up to batchSize candidate events.
	Claim(ctx context.Context, batchSize int) ([]models.Event, error)
	// Process runs the guard+work+commit sequence for one claimed event.
	Process(ctx context.Context, event models.Event) error
}

// Config bounds a Loop's polling cadence and per-job timeout.
type Config struct {
	BatchSize       int
	PollIdle        time.Duration
	PerEventTimeout time.Duration
}

// Loop runs stage forever until ctx is cancelled: claim a batch,
// process each claimed event with a bounded timeout, then either
// sleep (batch was empty) or loop immediately (batch was non-empty),
// per spec.md §4.5 step 6.
func Loop(ctx context.Context, stage Stage, cfg Config) {
	stageName := stage.Name()
	slog.Info("worker loop starting", "stage", stageName, "claimant", ClaimantID())

	for {
		if ctx.Err() != nil {
			slog.Info("worker loop stopping", "stage", stageName)
			return
		}

		events, err := stage.Claim(ctx, cfg.BatchSize)
		if err != nil {
			slog.Error("claim failed", "stage", stageName, "error", err)
			if !sleepOrDone(ctx, cfg.PollIdle) {
				return
			}
			continue
		}

		observability.QueueDepth.WithLabelValues(stageName).Set(float64(len(events)))

		if len(events) == 0 {
			if !sleepOrDone(ctx, cfg.PollIdle) {
				return
			}
			continue
		}

		observability.ClaimsAcquired.WithLabelValues(stageName).Add(float64(len(events)))

		for _, event := range events {
			processOne(ctx, stage, event, cfg.PerEventTimeout)
		}
		// Non-empty batch: loop immediately, no sleep.
	}
}

func processOne(ctx context.Context, stage Stage, event models.Event, timeout time.Duration) {
	stageName := stage.Name()
	// jobCtx is deliberately NOT derived from the loop's ctx: that ctx
	// is cancelled on SIGINT/SIGTERM to stop claiming new batches, and
	// an in-flight event (possibly mid-ffmpeg, via exec.CommandContext)
	// should be left to finish its commit within the grace period the
	// process is given to shut down rather than being killed outright.
	jobCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	err := stage.Process(jobCtx, event)
	observability.WorkerJobDuration.WithLabelValues(stageName).Observe(time.Since(start).Seconds())

	if err != nil {
		observability.WorkerJobFailures.WithLabelValues(stageName).Inc()
		if errors.Is(err, store.ErrStaleClaim) {
			observability.ClaimsStale.WithLabelValues(stageName).Inc()
		}
		slog.Error("job failed", "stage", stageName, "event_id", event.ID, "error", err)
	}
}

// sleepOrDone waits for d, returning false if ctx was cancelled first.
func sleepOrDone(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
