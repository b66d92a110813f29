// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package relay

import (
	"log/slog"
	"time"

	"github.com/Glaadiss/humidity-tracker-broker/internal/options"
)

type (
	// Option represents a single relay option.
	Option interface{ relay(*Options) }

	// Options are the resolved relay options.
	Options struct {
		Identity  Identity
		Cooldown  time.Duration
		QueueSize int
		InitialIP string
		Metrics   *Metrics
		Logger    *slog.Logger
	}

	// WithIdentity sets how client identifiers are classified.
	WithIdentity Identity

	// WithCooldown sets the minimum time between alerts for one user and
	// metric.
	WithCooldown time.Duration

	// WithQueueSize sets how many transport events may wait for the event
	// loop before Submit blocks.
	WithQueueSize int

	// WithInitialIP seeds the sensor's last known IP address.
	WithInitialIP string

	// This option is not used directly; see WithMetrics below.
	withMetrics struct{ *Metrics }

	// This option is not used directly; see WithLogger below.
	withLogger struct{ *slog.Logger }
)

const defaultQueueSize = 256

// Apply resolves the provided list of options.
func (o *Options) Apply(opts []Option, rest ...Option) {
	for opt := range options.Apply[Option](opts, rest) {
		opt.relay(o)
	}
}

func (o *Options) relay(opt *Options) {
	if o != nil {
		*opt = *o
	}
}

func (o WithIdentity) relay(opt *Options) {
	opt.Identity = Identity(o)
}

func (o WithCooldown) relay(opt *Options) {
	opt.Cooldown = time.Duration(o)
}

func (o WithQueueSize) relay(opt *Options) {
	opt.QueueSize = int(o)
}

func (o WithInitialIP) relay(opt *Options) {
	opt.InitialIP = string(o)
}

// WithMetrics records relay activity in the given instruments.
func WithMetrics(m *Metrics) Option {
	return withMetrics{m}
}

func (o withMetrics) relay(opt *Options) {
	opt.Metrics = o.Metrics
}

// WithLogger enables logging with the provided slog logger.
func WithLogger(logger *slog.Logger) Option {
	return withLogger{logger}
}

func (o withLogger) relay(opt *Options) {
	opt.Logger = o.Logger
}
