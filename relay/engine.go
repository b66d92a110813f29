// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package relay

import (
	"context"
	"time"

	"github.com/Glaadiss/humidity-tracker-broker/internal/wallclock"
)

type (
	// Notification is one fired alert.
	Notification struct {
		// User is the push recipient derived from the profile key.
		User  string
		Key   Key
		Title string
		Text  string

		Metric  Metric
		Reading Reading
		FiredAt time.Time
	}

	// Notifier delivers notifications. Notify must not block on delivery;
	// the engine never learns whether a notification arrived.
	Notifier interface {
		Notify(context.Context, *Notification)
	}

	// Engine decides, per profile and metric, when a reading fires an alert.
	Engine struct {
		identity Identity
		store    *Store
		state    *ReadingState
		notifier Notifier
		cooldown time.Duration
		metrics  *Metrics
		log      logger
	}
)

// DefaultCooldown is the minimum time between two alerts for the same user
// and metric.
const DefaultCooldown = 10 * time.Minute

// OnNewReading records the indoor values and evaluates every profile against
// the updated reading. It returns the notifications that fired, which have
// already been handed to the notifier.
func (e *Engine) OnNewReading(
	ctx context.Context,
	temperature, humidity *float64,
) []*Notification {
	reading := e.state.SetIndoor(temperature, humidity)
	now := wallclock.Instance.Now()

	var fired []*Notification
	for key, p := range e.store.All() {
		for _, m := range AllMetrics {
			if !e.due(p, m, reading.Value(m), now) {
				continue
			}

			p.setLastAlert(m, now)
			n := &Notification{
				User:    e.identity.Target(key),
				Key:     key,
				Title:   m.String() + " is beyond boundaries!",
				Text:    reading.Text(),
				Metric:  m,
				Reading: reading,
				FiredAt: now,
			}
			e.log.alertFired(ctx, n)
			e.metrics.fired(m)
			if e.notifier != nil {
				e.notifier.Notify(ctx, n)
			}
			fired = append(fired, n)
		}
	}
	return fired
}

// An alert is due when the value breaches and the metric has never fired or
// last fired more than a cooldown ago.
func (e *Engine) due(p *Profile, m Metric, value float64, now time.Time) bool {
	if !p.Breached(m, value) {
		return false
	}
	last := p.LastAlert(m)
	return last.IsZero() || now.Sub(last) > e.cooldown
}
