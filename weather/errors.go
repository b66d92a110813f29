// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package weather

import (
	"errors"
	"fmt"
	"log/slog"
)

type (
	// FetchError indicates that a weather refresh failed. The previous
	// outdoor values are kept.
	FetchError struct {
		Stage   string
		wrapped error
	}

	// StatusError is a non-2xx response from an upstream API.
	StatusError struct {
		StatusCode int
	}
)

var errNoConditions = errors.New("response has no current conditions")

func (e *FetchError) Error() string {
	return fmt.Sprintf("weather %s failed: %v", e.Stage, e.wrapped)
}

func (e *FetchError) Unwrap() error {
	return e.wrapped
}

func (e *FetchError) Attrs() []slog.Attr {
	return []slog.Attr{slog.String("stage", e.Stage)}
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}
