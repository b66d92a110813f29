// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package notify delivers fired alerts to the outside world.
package notify

import (
	"context"
	"errors"

	"github.com/Glaadiss/humidity-tracker-broker/relay"
)

type (
	// Sender delivers one notification. Send may block until delivery
	// completes or the context ends.
	Sender interface {
		Send(ctx context.Context, n *relay.Notification) error
	}

	// Named is implemented by senders that label their metrics and logs.
	Named interface {
		Name() string
	}

	// Multi sends to every sender in order and joins their errors.
	Multi []Sender
)

// Send delivers the notification to each sender, even after a failure.
func (m Multi) Send(ctx context.Context, n *relay.Notification) error {
	var errs []error
	for _, s := range m {
		if err := s.Send(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (Multi) Name() string {
	return "multi"
}

func name(s Sender) string {
	if n, ok := s.(Named); ok {
		return n.Name()
	}
	return "sender"
}
