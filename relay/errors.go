// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package relay

import (
	"errors"
	"fmt"
	"log/slog"
)

type (
	// PayloadError indicates that an inbound message could not be parsed. The
	// message is dropped without mutating any state.
	PayloadError struct {
		ClientID string
		Topic    string
		wrapped  error
	}

	// IdentityError indicates that an event arrived without a usable client
	// identifier. Such events are dropped.
	IdentityError struct {
		Kind EventKind

		// The raw identifier, which may be empty or only a role marker.
		ClientID string
	}

	// ClosedError is returned by Submit once the event loop has stopped.
	ClosedError struct{}
)

var errIncompleteBounds = errors.New("preferences must carry all four bounds")

func (e *PayloadError) Error() string {
	return fmt.Sprintf("cannot parse payload from %q: %v", e.ClientID, e.wrapped)
}

func (e *PayloadError) Unwrap() error {
	return e.wrapped
}

// Attrs exposes the sender and topic to structured logging.
func (e *PayloadError) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.String("client_id", e.ClientID),
		slog.String("topic", e.Topic),
	}
}

func (e *IdentityError) Error() string {
	return fmt.Sprintf("%s event without client identifier", e.Kind)
}

func (e *IdentityError) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.String("kind", e.Kind.String()),
		slog.String("client_id", e.ClientID),
	}
}

func (*ClosedError) Error() string {
	return "relay event loop has stopped"
}
