// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package notify

import (
	"context"
	"log/slog"

	"github.com/Glaadiss/humidity-tracker-broker/internal/log"
	"github.com/Glaadiss/humidity-tracker-broker/relay"
)

// Discard only logs notifications. It stands in for push delivery when no
// Firebase key is configured.
type Discard struct {
	Logger *slog.Logger
}

func (Discard) Name() string {
	return "log"
}

func (d Discard) Send(ctx context.Context, n *relay.Notification) error {
	l := log.Wrap(d.Logger)
	l.Info(ctx, "notification not pushed",
		slog.String("user", n.User),
		slog.String("title", n.Title),
		slog.String("text", n.Text),
	)
	return nil
}
