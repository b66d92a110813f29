// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package relay_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Glaadiss/humidity-tracker-broker/internal/wallclock"
	"github.com/Glaadiss/humidity-tracker-broker/relay"
	"github.com/stretchr/testify/require"
)

type (
	published struct {
		Topic   string
		Payload []byte
	}

	publisherStub struct {
		mu   sync.Mutex
		msgs []published
		err  error
	}

	notifierStub struct {
		mu   sync.Mutex
		sent []*relay.Notification
	}
)

var epoch = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

func (p *publisherStub) Publish(_ context.Context, topic string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, published{topic, payload})
	return p.err
}

func (p *publisherStub) all() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]published(nil), p.msgs...)
}

func (p *publisherStub) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = nil
}

// Decode the last snapshot published on the topic.
func (p *publisherStub) last(t *testing.T, topic string) map[string]any {
	t.Helper()
	msgs := p.all()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Topic == topic {
			var m map[string]any
			require.NoError(t, json.Unmarshal(msgs[i].Payload, &m))
			return m
		}
	}
	require.FailNow(t, "no snapshot published", "topic %q", topic)
	return nil
}

func (n *notifierStub) Notify(_ context.Context, note *relay.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, note)
}

func (n *notifierStub) all() []*relay.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*relay.Notification(nil), n.sent...)
}

// Install a manual clock at epoch for the duration of the test.
func manualClock(t *testing.T) *wallclock.Manual {
	clock := wallclock.NewManual(epoch)
	t.Cleanup(clock.Install())
	return clock
}

func newRelay(t *testing.T, opt ...relay.Option) (*relay.Relay, *publisherStub, *notifierStub) {
	t.Helper()
	pub := &publisherStub{}
	ntf := &notifierStub{}
	return relay.New(pub, ntf, opt...), pub, ntf
}

func connect(r *relay.Relay, id string) {
	r.Handle(context.Background(), &relay.Event{Kind: relay.Connected, ClientID: id})
}

func publish(r *relay.Relay, id, payload string) {
	r.Handle(context.Background(), &relay.Event{
		Kind:     relay.Published,
		ClientID: id,
		Topic:    "any",
		Payload:  []byte(payload),
	})
}

var errBroker = errors.New("broker closed")
