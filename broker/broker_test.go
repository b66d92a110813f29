// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package broker_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/Glaadiss/humidity-tracker-broker/broker"
	"github.com/Glaadiss/humidity-tracker-broker/relay"
	"github.com/eclipse/paho.golang/paho"
	"github.com/stretchr/testify/require"
)

type (
	notifierStub struct {
		mu   sync.Mutex
		sent []*relay.Notification
	}

	sinkStub struct {
		events chan *relay.Event
	}
)

func (n *notifierStub) Notify(_ context.Context, note *relay.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, note)
}

func (n *notifierStub) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func (s *sinkStub) Submit(_ context.Context, evt *relay.Event) error {
	s.events <- evt
	return nil
}

// Start an embedded broker on the given port, wired to a running relay.
func setupRelay(
	t *testing.T,
	port int,
	opt ...broker.Option,
) (*relay.Relay, *notifierStub, string) {
	addr := fmt.Sprintf("localhost:%d", port)
	ntf := &notifierStub{}

	srv, err := broker.New(append(opt, broker.WithAddress(addr))...)
	require.NoError(t, err)

	r := relay.New(srv, ntf)
	require.NoError(t, srv.Serve(r))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = r.Run(ctx)
	}()

	t.Cleanup(func() {
		require.NoError(t, srv.Close())
		cancel()
		<-done
	})
	return r, ntf, addr
}

func dial(
	ctx context.Context,
	t *testing.T,
	addr, id string,
	connect *paho.Connect,
	onPublish func(*paho.Publish),
) (*paho.Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	require.NoError(t, err)

	client := paho.NewClient(paho.ClientConfig{
		ClientID: id,
		Conn:     conn,
		OnPublishReceived: []func(paho.PublishReceived) (bool, error){
			func(pub paho.PublishReceived) (bool, error) {
				if onPublish != nil {
					onPublish(pub.Packet)
				}
				return true, nil
			},
		},
	})

	if connect == nil {
		connect = &paho.Connect{}
	}
	connect.ClientID = id
	connect.KeepAlive = 5
	connect.CleanStart = true
	if _, err := client.Connect(ctx, connect); err != nil {
		return nil, err
	}
	t.Cleanup(func() { _ = client.Disconnect(&paho.Disconnect{}) })
	return client, nil
}

func TestSnapshotsReachSubscribers(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, ntf, addr := setupRelay(t, 18831)

	snapshots := make(chan map[string]any, 16)
	mobile, err := dial(ctx, t, addr, "mobilepublisherA", nil, func(p *paho.Publish) {
		var m map[string]any
		if json.Unmarshal(p.Payload, &m) == nil {
			snapshots <- m
		}
	})
	require.NoError(t, err)

	_, err = mobile.Subscribe(ctx, &paho.Subscribe{
		Subscriptions: []paho.SubscribeOptions{{Topic: "mobileA"}},
	})
	require.NoError(t, err)

	// Subscribing alone yields the default profile.
	snap := waitFor(ctx, t, snapshots, func(map[string]any) bool { return true })
	require.Equal(t, -30.0, snap["temperatureMin"])

	_, err = mobile.Publish(ctx, &paho.Publish{
		Topic: "preferences",
		Payload: []byte(`{"temperatureMin":0,"temperatureMax":30,` +
			`"humidityMin":0,"humidityMax":100,"updatedAt":0}`),
	})
	require.NoError(t, err)
	waitFor(ctx, t, snapshots, func(m map[string]any) bool {
		return m["temperatureMax"] == 30.0
	})

	sensor, err := dial(ctx, t, addr, "esp32", nil, nil)
	require.NoError(t, err)
	_, err = sensor.Publish(ctx, &paho.Publish{
		Topic:   "sensor",
		Payload: []byte(`{"temperature":40,"humidity":55}`),
	})
	require.NoError(t, err)

	snap = waitFor(ctx, t, snapshots, func(m map[string]any) bool {
		return m["temperature"] == 40.0
	})
	require.Equal(t, 30.0, snap["temperatureMax"])
	require.Equal(t, 55.0, snap["humidity"])
	require.Equal(t, 1, ntf.count())
}

func TestEventsAreTranslated(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sink := &sinkStub{events: make(chan *relay.Event, 16)}
	srv, err := broker.New(broker.WithAddress("localhost:18832"))
	require.NoError(t, err)
	require.NoError(t, srv.Serve(sink))
	t.Cleanup(func() { _ = srv.Close() })

	client, err := dial(ctx, t, "localhost:18832", "esp32", nil, nil)
	require.NoError(t, err)

	evt := nextEvent(ctx, t, sink.events)
	require.Equal(t, relay.Connected, evt.Kind)
	require.Equal(t, "esp32", evt.ClientID)

	_, err = client.Publish(ctx, &paho.Publish{Topic: "sensor", Payload: []byte(`{}`)})
	require.NoError(t, err)

	evt = nextEvent(ctx, t, sink.events)
	require.Equal(t, relay.Published, evt.Kind)
	require.Equal(t, "sensor", evt.Topic)
	require.Equal(t, []byte(`{}`), evt.Payload)

	// Our own publishes are not reported back.
	require.NoError(t, srv.Publish(ctx, "mobileA", []byte(`{}`)))

	require.NoError(t, client.Disconnect(&paho.Disconnect{}))
	evt = nextEvent(ctx, t, sink.events)
	require.Equal(t, relay.Disconnected, evt.Kind)
}

func TestCredentialsAreEnforced(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, _, addr := setupRelay(t, 18833, broker.WithCredentials("gary", "pineapple"))

	_, err := dial(ctx, t, addr, "mobileA", nil, nil)
	require.Error(t, err)

	_, err = dial(ctx, t, addr, "mobileA", &paho.Connect{
		Username:     "gary",
		UsernameFlag: true,
		Password:     []byte("pineapple"),
		PasswordFlag: true,
	}, nil)
	require.NoError(t, err)
}

func TestPartialCredentialsAreRejected(t *testing.T) {
	_, err := broker.New(broker.WithCredentials("gary", ""))
	var cfg *broker.ConfigError
	require.ErrorAs(t, err, &cfg)
	require.Equal(t, "credentials", cfg.Name)
}

// Snapshots may repeat, since both connect and subscribe trigger one.
func waitFor(
	ctx context.Context,
	t *testing.T,
	ch <-chan map[string]any,
	match func(map[string]any) bool,
) map[string]any {
	t.Helper()
	for {
		select {
		case m := <-ch:
			if match(m) {
				return m
			}
		case <-ctx.Done():
			require.FailNow(t, "no matching snapshot received")
			return nil
		}
	}
}

func nextEvent(ctx context.Context, t *testing.T, ch <-chan *relay.Event) *relay.Event {
	t.Helper()
	select {
	case evt := <-ch:
		return evt
	case <-ctx.Done():
		require.FailNow(t, "no event received")
		return nil
	}
}
