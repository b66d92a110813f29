// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package notify

import (
	"fmt"
	"log/slog"
)

type (
	// DeliveryError indicates that a sink refused or failed to accept a
	// notification.
	DeliveryError struct {
		Sink       string
		User       string
		StatusCode int
		wrapped    error
	}

	// TimeoutError is the cancellation cause of a delivery that ran out of
	// time.
	TimeoutError struct {
		Sink string
	}
)

func (e *DeliveryError) Error() string {
	switch {
	case e.wrapped != nil:
		return fmt.Sprintf("%s delivery to %q failed: %v", e.Sink, e.User, e.wrapped)
	default:
		return fmt.Sprintf("%s delivery to %q failed with status %d", e.Sink, e.User, e.StatusCode)
	}
}

func (e *DeliveryError) Unwrap() error {
	return e.wrapped
}

func (e *DeliveryError) Attrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("sink", e.Sink),
		slog.String("user", e.User),
	}
	if e.StatusCode != 0 {
		attrs = append(attrs, slog.Int("status_code", e.StatusCode))
	}
	return attrs
}

func (e *TimeoutError) Error() string {
	return e.Sink + " delivery timed out"
}
