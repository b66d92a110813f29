// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package relay

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the relay's Prometheus instruments. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Events        *prometheus.CounterVec
	Dropped       *prometheus.CounterVec
	AlertsFired   *prometheus.CounterVec
	Notifications *prometheus.CounterVec
	WeatherFetch  *prometheus.CounterVec
	Profiles      prometheus.Gauge
}

// NewMetrics creates the relay instruments and registers them, unless reg is
// nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "humidity_broker",
				Subsystem: "relay",
				Name:      "events_total",
				Help:      "Transport events handled by the relay",
			},
			[]string{"kind"},
		),
		Dropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "humidity_broker",
				Subsystem: "relay",
				Name:      "dropped_total",
				Help:      "Inbound messages dropped without changing state",
			},
			[]string{"reason"},
		),
		AlertsFired: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "humidity_broker",
				Subsystem: "alerts",
				Name:      "fired_total",
				Help:      "Threshold alerts fired",
			},
			[]string{"metric"},
		),
		Notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "humidity_broker",
				Subsystem: "alerts",
				Name:      "notifications_total",
				Help:      "Outbound notification attempts by outcome",
			},
			[]string{"sink", "outcome"},
		),
		WeatherFetch: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "humidity_broker",
				Subsystem: "weather",
				Name:      "fetches_total",
				Help:      "Outdoor weather refreshes by outcome",
			},
			[]string{"outcome"},
		),
		Profiles: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "humidity_broker",
				Subsystem: "relay",
				Name:      "profiles",
				Help:      "Alert profiles held in memory",
			},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.Events,
			m.Dropped,
			m.AlertsFired,
			m.Notifications,
			m.WeatherFetch,
			m.Profiles,
		)
	}
	return m
}

func (m *Metrics) event(kind EventKind) {
	if m != nil {
		m.Events.WithLabelValues(kind.String()).Inc()
	}
}

func (m *Metrics) dropped(reason string) {
	if m != nil {
		m.Dropped.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) fired(metric Metric) {
	if m != nil {
		m.AlertsFired.WithLabelValues(metric.String()).Inc()
	}
}

func (m *Metrics) profiles(n int) {
	if m != nil {
		m.Profiles.Set(float64(n))
	}
}

// ObserveNotification counts one delivery attempt to the named sink.
func (m *Metrics) ObserveNotification(sink string, err error) {
	if m != nil {
		m.Notifications.WithLabelValues(sink, outcome(err)).Inc()
	}
}

// ObserveWeatherFetch counts one completed weather refresh.
func (m *Metrics) ObserveWeatherFetch(err error) {
	if m != nil {
		m.WeatherFetch.WithLabelValues(outcome(err)).Inc()
	}
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
