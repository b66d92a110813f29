// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package weather

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
	// Refresher periodically writes the outdoor conditions at the sensor's IP
	// into the shared reading.
	Refresher struct {
		fetcher  Fetcher
		state    *relay.ReadingState
		interval time.Duration
		timeout  time.Duration
		metrics  *relay.Metrics
		log      log.Logger
		wg       sync.WaitGroup
	}

	// Option represents a single refresher option.
	Option interface{ refresher(*Options) }

	// Options are the resolved refresher options.
	Options struct {
		Interval time.Duration
		Timeout  time.Duration
		Metrics  *relay.Metrics
		Logger   *slog.Logger
	}

	// WithInterval sets the time between refreshes.
	WithInterval time.Duration

	// WithTimeout bounds a single refresh.
	WithTimeout time.Duration

	// This option is not used directly; see WithMetrics below.
	withMetrics struct{ *relay.Metrics }

	// This option is not used directly; see WithLogger below.
	withLogger struct{ *slog.Logger }
)

const (
	DefaultInterval = 10 * time.Minute
	DefaultTimeout  = 5 * time.Minute
)

// NewRefresher creates a refresher that writes to state.
func NewRefresher(fetcher Fetcher, state *relay.ReadingState, opt ...Option) *Refresher {
	opts := Options{Interval: DefaultInterval, Timeout: DefaultTimeout}
	opts.Apply(opt)
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	return &Refresher{
		fetcher:  fetcher,
		state:    state,
		interval: opts.Interval,
		timeout:  opts.Timeout,
		metrics:  opts.Metrics,
		log:      log.Wrap(opts.Logger),
	}
}

// Run refreshes once immediately and then on every interval until the context
// ends. Refreshes are not serialized; whichever finishes last wins. Run waits
// for in-flight refreshes before returning.
func (r *Refresher) Run(ctx context.Context) error {
	ticker := wallclock.Instance.NewTicker(r.interval)
	defer ticker.Stop()
	defer r.wg.Wait()

	r.spawn(ctx)
	for {
		select {
		case <-ticker.C():
			r.spawn(ctx)
		case <-ctx.Done():
			return context.Cause(ctx)
		}
	}
}

// A started refresh runs to completion even if Run is stopped meanwhile; only
// the refresh timeout bounds it.
func (r *Refresher) spawn(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		_ = r.Refresh(context.WithoutCancel(ctx))
	}()
}

// Refresh fetches the conditions at the current IP and stores them. It does
// nothing when no IP is known. Failures are logged and returned, and leave
// the previous values in place.
func (r *Refresher) Refresh(ctx context.Context) error {
	ip := r.state.IP()
	if ip == "" {
		return nil
	}

	ctx, cancel := wallclock.Instance.WithTimeoutCause(ctx, r.timeout, &FetchError{
		Stage:   "refresh",
		wrapped: context.DeadlineExceeded,
	})
	defer cancel()

	id := uuid.NewString()
	cond, err := r.fetcher.Fetch(ctx, ip)
	r.metrics.ObserveWeatherFetch(err)
	if err != nil {
		r.log.Err(ctx, err,
			slog.String("fetch_id", id),
			slog.String("ip", ip),
		)
		return err
	}

	r.state.SetOutdoor(cond.Temperature, cond.Humidity)
	r.log.Info(ctx, "outdoor conditions updated",
		slog.String("fetch_id", id),
		slog.String("ip", ip),
		slog.Float64("temperature_out", cond.Temperature),
		slog.Float64("humidity_out", cond.Humidity),
	)
	return nil
}

// Apply resolves the provided list of options.
func (o *Options) Apply(opts []Option, rest ...Option) {
	for opt := range options.Apply[Option](opts, rest) {
		opt.refresher(o)
	}
}

func (o *Options) refresher(opt *Options) {
	if o != nil {
		*opt = *o
	}
}

func (o WithInterval) refresher(opt *Options) {
	opt.Interval = time.Duration(o)
}

func (o WithTimeout) refresher(opt *Options) {
	opt.Timeout = time.Duration(o)
}

// WithMetrics counts refresh outcomes in the relay instruments.
func WithMetrics(m *relay.Metrics) Option {
	return withMetrics{m}
}

func (o withMetrics) refresher(opt *Options) {
	opt.Metrics = o.Metrics
}

// WithLogger enables logging with the provided slog logger.
func WithLogger(logger *slog.Logger) Option {
	return withLogger{logger}
}

func (o withLogger) refresher(opt *Options) {
	opt.Logger = o.Logger
}
