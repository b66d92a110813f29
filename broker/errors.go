// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package broker

import "log/slog"

// ConfigError indicates that the broker could not be set up as requested.
type ConfigError struct {
	Name    string
	wrapped error
	message string
}

func (e *ConfigError) Error() string {
	switch {
	case e.message != "":
		return "invalid broker " + e.Name + ": " + e.message
	case e.wrapped != nil:
		return "invalid broker " + e.Name + ": " + e.wrapped.Error()
	default:
		return "invalid broker " + e.Name
	}
}

func (e *ConfigError) Unwrap() error {
	return e.wrapped
}

func (e *ConfigError) Attrs() []slog.Attr {
	return []slog.Attr{slog.String("option", e.Name)}
}
