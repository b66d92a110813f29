// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package retry

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/Glaadiss/humidity-tracker-broker/internal/log"
	"github.com/Glaadiss/humidity-tracker-broker/internal/wallclock"
)

type (
	// Task is a function to retry. It reports whether the returned error is
	// worth another attempt.
	Task = func(context.Context) (retry bool, err error)

	// Backoff retries a task with exponentially growing delays and jitter.
	Backoff struct {
		// Attempts caps the number of attempts; 0 means unlimited.
		Attempts uint64

		// First is the delay after the first failure. Defaults to 250ms.
		First time.Duration

		// Ceiling caps the delay between attempts. Defaults to 30s.
		Ceiling time.Duration

		// NoJitter disables the +/-5% jitter.
		NoJitter bool

		Logger *slog.Logger
	}
)

// Do runs the task until it succeeds, reports a non-retryable error, runs
// out of attempts, or the context ends.
func (b *Backoff) Do(ctx context.Context, name string, task Task) error {
	l := log.Wrap(b.Logger)

	for attempt := uint64(1); ; attempt++ {
		retry, err := task(ctx)
		if err == nil {
			if attempt > 1 {
				l.Info(ctx, "retry succeeded",
					slog.String("task", name),
					slog.Uint64("attempt", attempt),
				)
			}
			return nil
		}

		delay := b.delay(ctx, attempt, retry)
		if delay == 0 {
			l.Warn(ctx, "retry abandoned",
				slog.String("task", name),
				slog.Uint64("attempt", attempt),
				slog.String("error", err.Error()),
			)
			return err
		}

		l.Info(ctx, "retrying",
			slog.String("task", name),
			slog.Uint64("attempt", attempt),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()),
		)

		select {
		case <-wallclock.Instance.After(delay):
		case <-ctx.Done():
			return context.Cause(ctx)
		}
	}
}

// A zero delay means stop.
func (b *Backoff) delay(
	ctx context.Context,
	attempt uint64,
	retry bool,
) time.Duration {
	if !retry || attempt == b.Attempts || ctx.Err() != nil {
		return 0
	}

	first := b.First
	if first == 0 {
		first = 250 * time.Millisecond
	}
	ceiling := b.Ceiling
	if ceiling == 0 {
		ceiling = 30 * time.Second
	}

	exp := min(float64(attempt-1), math.Log2(float64(ceiling)/float64(first)))
	factor := math.Pow(2, exp)
	if !b.NoJitter {
		// #nosec G404
		j := rand.New(rand.NewSource(wallclock.Instance.Now().UnixNano()))
		factor *= .95 + .1*j.Float64()
	}
	return time.Duration(factor * float64(first))
}
