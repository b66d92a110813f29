// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package broker

import (
	"log/slog"

	"github.com/Glaadiss/humidity-tracker-broker/internal/options"
)

type (
	// Option represents a single broker option.
	Option interface{ broker(*Options) }

	// Options are the resolved broker options.
	Options struct {
		Address          string
		WebsocketAddress string
		Username         string
		Password         string
		Logger           *slog.Logger
	}

	// WithAddress sets the TCP listen address.
	WithAddress string

	// WithWebsocketAddress additionally serves MQTT over websockets.
	WithWebsocketAddress string

	// This option is not used directly; see WithCredentials below.
	withCredentials struct{ username, password string }

	// This option is not used directly; see WithLogger below.
	withLogger struct{ *slog.Logger }
)

const defaultAddress = ":1883"

// Apply resolves the provided list of options.
func (o *Options) Apply(opts []Option, rest ...Option) {
	for opt := range options.Apply[Option](opts, rest) {
		opt.broker(o)
	}
}

func (o *Options) broker(opt *Options) {
	if o != nil {
		*opt = *o
	}
}

func (o WithAddress) broker(opt *Options) {
	opt.Address = string(o)
}

func (o WithWebsocketAddress) broker(opt *Options) {
	opt.WebsocketAddress = string(o)
}

// WithCredentials requires every client to authenticate with the given
// username and password. Without it, all clients are allowed.
func WithCredentials(username, password string) Option {
	return withCredentials{username, password}
}

func (o withCredentials) broker(opt *Options) {
	opt.Username = o.username
	opt.Password = o.password
}

// WithLogger enables logging with the provided slog logger.
func WithLogger(logger *slog.Logger) Option {
	return withLogger{logger}
}

func (o withLogger) broker(opt *Options) {
	opt.Logger = o.Logger
}
