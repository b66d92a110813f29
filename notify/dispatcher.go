// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Glaadiss/humidity-tracker-broker/internal/log"
	"github.com/Glaadiss/humidity-tracker-broker/internal/options"
	"github.com/Glaadiss/humidity-tracker-broker/internal/wallclock"
	"github.com/Glaadiss/humidity-tracker-broker/relay"
	"github.com/google/uuid"
)

type (
	// Dispatcher implements relay.Notifier by delivering each notification on
	// its own goroutine. Delivery outcomes never reach the relay.
	Dispatcher struct {
		sender  Sender
		name    string
		timeout time.Duration
		metrics *relay.Metrics
		log     log.Logger
		wg      sync.WaitGroup
	}

	// Option represents a single dispatcher option.
	Option interface{ dispatcher(*Options) }

	// Options are the resolved dispatcher options.
	Options struct {
		Timeout time.Duration
		Metrics *relay.Metrics
		Logger  *slog.Logger
	}

	// WithTimeout bounds each delivery attempt.
	WithTimeout time.Duration

	// This option is not used directly; see WithMetrics below.
	withMetrics struct{ *relay.Metrics }

	// This option is not used directly; see WithLogger below.
	withLogger struct{ *slog.Logger }
)

// DefaultTimeout bounds a delivery when no timeout is configured.
const DefaultTimeout = 5 * time.Minute

// NewDispatcher creates a dispatcher for the sender.
func NewDispatcher(sender Sender, opt ...Option) *Dispatcher {
	opts := Options{Timeout: DefaultTimeout}
	opts.Apply(opt)
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	return &Dispatcher{
		sender:  sender,
		name:    name(sender),
		timeout: opts.Timeout,
		metrics: opts.Metrics,
		log:     log.Wrap(opts.Logger),
	}
}

// Notify starts delivery and returns immediately. Delivery outlives the
// caller's context but not the configured timeout.
func (d *Dispatcher) Notify(ctx context.Context, n *relay.Notification) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := wallclock.Instance.WithTimeoutCause(
			context.WithoutCancel(ctx),
			d.timeout,
			&TimeoutError{Sink: d.name},
		)
		defer cancel()

		id := uuid.NewString()
		err := d.sender.Send(ctx, n)
		if err == nil && ctx.Err() != nil {
			err = context.Cause(ctx)
		}
		d.metrics.ObserveNotification(d.name, err)

		if err != nil {
			d.log.Err(ctx, err,
				slog.String("delivery_id", id),
				slog.String("user", n.User),
				slog.String("metric", n.Metric.String()),
			)
			return
		}
		d.log.Debug(ctx, "notification delivered",
			slog.String("delivery_id", id),
			slog.String("sink", d.name),
			slog.String("user", n.User),
			slog.String("metric", n.Metric.String()),
		)
	}()
}

// Wait blocks until every started delivery has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Apply resolves the provided list of options.
func (o *Options) Apply(opts []Option, rest ...Option) {
	for opt := range options.Apply[Option](opts, rest) {
		opt.dispatcher(o)
	}
}

func (o *Options) dispatcher(opt *Options) {
	if o != nil {
		*opt = *o
	}
}

func (o WithTimeout) dispatcher(opt *Options) {
	opt.Timeout = time.Duration(o)
}

// WithMetrics counts delivery outcomes in the relay instruments.
func WithMetrics(m *relay.Metrics) Option {
	return withMetrics{m}
}

func (o withMetrics) dispatcher(opt *Options) {
	opt.Metrics = o.Metrics
}

// WithLogger enables logging with the provided slog logger.
func WithLogger(logger *slog.Logger) Option {
	return withLogger{logger}
}

func (o withLogger) dispatcher(opt *Options) {
	opt.Logger = o.Logger
}
