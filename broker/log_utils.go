// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package broker

import (
	"context"
	"log/slog"

	"github.com/Glaadiss/humidity-tracker-broker/internal/log"
	"github.com/Glaadiss/humidity-tracker-broker/relay"
)

type logger struct{ log.Logger }

func (l logger) listening(ctx context.Context, kind, addr string) {
	l.Info(ctx, "listening",
		slog.String("listener", kind),
		slog.String("address", addr),
	)
}

func (l logger) submitFailed(ctx context.Context, evt *relay.Event, err error) {
	l.Warn(ctx, "event not delivered to relay",
		slog.String("kind", evt.Kind.String()),
		slog.String("client_id", evt.ClientID),
		slog.String("error", err.Error()),
	)
}
