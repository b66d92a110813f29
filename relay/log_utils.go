// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package relay

import (
	"context"
	"log/slog"
	"reflect"
	"time"

	"github.com/Glaadiss/humidity-tracker-broker/internal/log"
	"github.com/iancoleman/strcase"
)

type logger struct{ log.Logger }

var timeType = reflect.TypeFor[time.Time]()

func (l logger) event(ctx context.Context, evt *Event, key Key) {
	l.Debug(ctx, "event",
		slog.String("kind", evt.Kind.String()),
		slog.String("client_id", evt.ClientID),
		slog.String("key", string(key)),
		slog.String("topic", evt.Topic),
	)
}

// Expected drops are a debug matter, not an error.
func (l logger) dropped(ctx context.Context, err error) {
	var attrs []slog.Attr
	if a, ok := err.(log.Attrs); ok {
		attrs = a.Attrs()
	}
	l.Debug(ctx, err.Error(), attrs...)
}

func (l logger) disconnected(ctx context.Context, key Key) {
	l.Info(ctx, "client disconnected", slog.String("key", string(key)))
}

func (l logger) ipUpdated(ctx context.Context, ip string) {
	l.Info(ctx, "sensor ip updated", slog.String("ip", ip))
}

func (l logger) ignoredPreferences(ctx context.Context, key Key, echo *Marker) {
	attrs := []slog.Attr{slog.String("key", string(key))}
	if echo.Echoed() {
		attrs = append(attrs, slog.Time("echoed_alert", echo.At))
	}
	l.Debug(ctx, "ignoring non-preference message", attrs...)
}

func (l logger) alertFired(ctx context.Context, n *Notification) {
	l.Info(ctx, "notify user",
		slog.String("user", n.User),
		slog.String("metric", n.Metric.String()),
		slog.String("text", n.Text),
	)
}

func (l logger) publishFailed(ctx context.Context, key Key, err error) {
	l.Warn(ctx, "snapshot publish failed",
		slog.String("key", string(key)),
		slog.String("error", err.Error()),
	)
}

// State dumps the reading and every profile. This is expensive; it bails out
// if info logging is disabled.
func (l logger) state(ctx context.Context, r Reading, s *Store) {
	if !l.Enabled(ctx, slog.LevelInfo) {
		return
	}

	profiles := make([]any, 0, s.Len())
	for key, p := range s.All() {
		profiles = append(profiles,
			slog.Group(string(key), toAny(reflectAttrs(reflect.ValueOf(*p)))...))
	}

	l.Info(ctx, "state",
		slog.Group("reading", toAny(reflectAttrs(reflect.ValueOf(r)))...),
		slog.Group("profiles", profiles...),
	)
}

func reflectAttrs(val reflect.Value) []slog.Attr {
	typ := val.Type()
	var attrs []slog.Attr
	for i := range typ.NumField() {
		f := typ.Field(i)
		if !f.IsExported() {
			continue
		}

		// Flatten embedded structs such as Bounds.
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			attrs = append(attrs, reflectAttrs(val.Field(i))...)
			continue
		}

		attrs = append(attrs, reflectAttr(strcase.ToSnake(f.Name), val.Field(i)))
	}
	return attrs
}

func reflectAttr(name string, val reflect.Value) slog.Attr {
	if val.Type() == timeType {
		t := val.Interface().(time.Time)
		if t.IsZero() {
			return slog.String(name, "never")
		}
		return slog.Time(name, t)
	}

	switch val.Kind() {
	case reflect.Float32, reflect.Float64:
		return slog.Float64(name, val.Float())
	case reflect.String:
		return slog.String(name, val.String())
	case reflect.Bool:
		return slog.Bool(name, val.Bool())
	default:
		return slog.Any(name, val.Interface())
	}
}

func toAny(attrs []slog.Attr) []any {
	cpy := make([]any, len(attrs))
	for i, a := range attrs {
		cpy[i] = a
	}
	return cpy
}
