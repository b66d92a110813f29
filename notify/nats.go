// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Glaadiss/humidity-tracker-broker/internal/log"
	"github.com/Glaadiss/humidity-tracker-broker/relay"
	"github.com/nats-io/nats.go"
)

type (
	// Conn is the subset of *nats.Conn used to mirror alerts.
	Conn interface {
		Publish(subject string, data []byte) error
	}

	// NATS mirrors every notification as a JSON event on a subject.
	NATS struct {
		conn    Conn
		nc      *nats.Conn
		subject string
	}

	alertEvent struct {
		User        string    `json:"user"`
		Metric      string    `json:"metric"`
		Title       string    `json:"title"`
		Text        string    `json:"text"`
		Temperature float64   `json:"temperature"`
		Humidity    float64   `json:"humidity"`
		FiredAt     time.Time `json:"firedAt"`
	}
)

// DefaultNATSSubject is the subject alerts are mirrored to.
const DefaultNATSSubject = "relay.alerts"

// NewNATS mirrors alerts through an existing connection.
func NewNATS(conn Conn, subject string) *NATS {
	if subject == "" {
		subject = DefaultNATSSubject
	}
	return &NATS{conn: conn, subject: subject}
}

// ConnectNATS dials the server at url and mirrors alerts to subject. The
// connection reconnects indefinitely.
func ConnectNATS(url, subject string, logger *slog.Logger) (*NATS, error) {
	l := log.Wrap(logger)
	nc, err := nats.Connect(url,
		nats.Name("humidity-broker"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				l.Warn(context.Background(), "nats disconnected",
					slog.String("error", err.Error()))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			l.Info(context.Background(), "nats reconnected",
				slog.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, err
	}

	n := NewNATS(nc, subject)
	n.nc = nc
	return n, nil
}

func (*NATS) Name() string {
	return "nats"
}

// Send publishes the alert event. The context is not consulted since NATS
// publishes are buffered.
func (n *NATS) Send(_ context.Context, note *relay.Notification) error {
	data, err := json.Marshal(&alertEvent{
		User:        note.User,
		Metric:      note.Metric.String(),
		Title:       note.Title,
		Text:        note.Text,
		Temperature: note.Reading.Temperature,
		Humidity:    note.Reading.Humidity,
		FiredAt:     note.FiredAt,
	})
	if err != nil {
		return err
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		return &DeliveryError{Sink: n.Name(), User: note.User, wrapped: err}
	}
	return nil
}

// Close drains the connection if ConnectNATS opened it.
func (n *NATS) Close() error {
	if n.nc == nil {
		return nil
	}
	return n.nc.Drain()
}
