// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package relay_test

import (
	"testing"
	"time"

	"github.com/Glaadiss/humidity-tracker-broker/relay"
	"github.com/stretchr/testify/require"
)

const prefs = `{"temperatureMin":0,"temperatureMax":30,"humidityMin":20,"humidityMax":80,"updatedAt":0}`

func TestCooldownWindow(t *testing.T) {
	clock := manualClock(t)
	r, _, ntf := newRelay(t)

	connect(r, "mobileA")
	publish(r, "mobilepublisherA", prefs)

	publish(r, "esp32", `{"temperature":35,"humidity":50}`)
	sent := ntf.all()
	require.Len(t, sent, 1)
	require.Equal(t, relay.Temperature, sent[0].Metric)

	p, _ := r.Store().Get("mobileA")
	require.Equal(t, epoch, p.LastTemperatureAlertAt)
	require.True(t, p.LastHumidityAlertAt.IsZero())

	clock.Advance(time.Second)
	publish(r, "esp32", `{"temperature":36,"humidity":50}`)
	require.Len(t, ntf.all(), 1)
	require.Equal(t, epoch, p.LastTemperatureAlertAt)

	clock.Advance(11 * time.Minute)
	publish(r, "esp32", `{"temperature":36,"humidity":50}`)
	sent = ntf.all()
	require.Len(t, sent, 2)
	require.Equal(t, epoch.Add(11*time.Minute+time.Second), p.LastTemperatureAlertAt)
}

func TestCooldownBoundaryIsExclusive(t *testing.T) {
	clock := manualClock(t)
	r, _, ntf := newRelay(t)

	publish(r, "mobileA", prefs)
	publish(r, "esp32", `{"temperature":35,"humidity":50}`)
	require.Len(t, ntf.all(), 1)

	clock.Advance(relay.DefaultCooldown)
	publish(r, "esp32", `{"temperature":35,"humidity":50}`)
	require.Len(t, ntf.all(), 1)

	clock.Advance(time.Nanosecond)
	publish(r, "esp32", `{"temperature":35,"humidity":50}`)
	require.Len(t, ntf.all(), 2)
}

func TestInBoundsNeverFires(t *testing.T) {
	clock := manualClock(t)
	r, _, ntf := newRelay(t)

	publish(r, "mobileA", prefs)
	p, _ := r.Store().Get("mobileA")

	for range 3 {
		publish(r, "esp32", `{"temperature":30,"humidity":80}`)
		publish(r, "esp32", `{"temperature":0,"humidity":20}`)
		clock.Advance(time.Hour)
	}

	require.Empty(t, ntf.all())
	require.True(t, p.LastTemperatureAlertAt.IsZero())
	require.True(t, p.LastHumidityAlertAt.IsZero())
}

func TestInBoundsKeepsCooldownClock(t *testing.T) {
	clock := manualClock(t)
	r, _, ntf := newRelay(t)

	publish(r, "mobileA", prefs)
	publish(r, "esp32", `{"temperature":-5,"humidity":50}`)
	require.Len(t, ntf.all(), 1)

	clock.Advance(time.Hour)
	publish(r, "esp32", `{"temperature":20,"humidity":50}`)

	p, _ := r.Store().Get("mobileA")
	require.Equal(t, epoch, p.LastTemperatureAlertAt)
	require.Len(t, ntf.all(), 1)
}

func TestMetricsAreIndependent(t *testing.T) {
	manualClock(t)
	r, _, ntf := newRelay(t)

	publish(r, "mobileA", prefs)

	publish(r, "esp32", `{"temperature":40,"humidity":90}`)
	sent := ntf.all()
	require.Len(t, sent, 2)
	require.Equal(t, relay.Temperature, sent[0].Metric)
	require.Equal(t, "Temperature is beyond boundaries!", sent[0].Title)
	require.Equal(t, relay.Humidity, sent[1].Metric)
	require.Equal(t, "Humidity is beyond boundaries!", sent[1].Title)
	for _, n := range sent {
		require.Equal(t, "40 *C --- 90 %", n.Text)
		require.Equal(t, "A", n.User)
		require.Equal(t, relay.Key("mobileA"), n.Key)
		require.Equal(t, epoch, n.FiredAt)
	}
}

func TestCooldownsAreTrackedPerMetric(t *testing.T) {
	clock := manualClock(t)
	r, _, ntf := newRelay(t)

	publish(r, "mobileA", prefs)

	publish(r, "esp32", `{"temperature":40,"humidity":50}`)
	clock.Advance(5 * time.Minute)
	publish(r, "esp32", `{"temperature":40,"humidity":90}`)
	clock.Advance(6 * time.Minute)
	publish(r, "esp32", `{"temperature":40,"humidity":90}`)

	sent := ntf.all()
	require.Len(t, sent, 3)
	require.Equal(t, relay.Temperature, sent[0].Metric)
	require.Equal(t, relay.Humidity, sent[1].Metric)
	require.Equal(t, "40 *C --- 90 %", sent[1].Text)
	require.Equal(t, relay.Temperature, sent[2].Metric)

	p, _ := r.Store().Get("mobileA")
	require.Equal(t, epoch.Add(11*time.Minute), p.LastTemperatureAlertAt)
	require.Equal(t, epoch.Add(5*time.Minute), p.LastHumidityAlertAt)
}

func TestDefaultBoundsDoNotAlert(t *testing.T) {
	manualClock(t)
	r, _, ntf := newRelay(t)

	connect(r, "mobileA")
	publish(r, "esp32", `{"temperature":99,"humidity":100}`)
	require.Empty(t, ntf.all())

	publish(r, "esp32", `{"temperature":101,"humidity":50}`)
	require.Len(t, ntf.all(), 1)
}

func TestEveryProfileIsEvaluated(t *testing.T) {
	manualClock(t)
	r, _, ntf := newRelay(t)

	publish(r, "mobileA", prefs)
	publish(r, "mobileB", `{"temperatureMin":0,"temperatureMax":50,"humidityMin":0,"humidityMax":100,"updatedAt":0}`)
	publish(r, "mobileC", prefs)

	publish(r, "esp32", `{"temperature":35,"humidity":50}`)

	var users []string
	for _, n := range ntf.all() {
		users = append(users, n.User)
	}
	require.Equal(t, []string{"A", "C"}, users)
}

func TestConfiguredCooldown(t *testing.T) {
	clock := manualClock(t)
	r, _, ntf := newRelay(t, relay.WithCooldown(time.Minute))

	publish(r, "mobileA", prefs)
	publish(r, "esp32", `{"temperature":35,"humidity":50}`)
	clock.Advance(time.Minute)
	publish(r, "esp32", `{"temperature":35,"humidity":50}`)
	require.Len(t, ntf.all(), 1)

	clock.Advance(time.Second)
	publish(r, "esp32", `{"temperature":35,"humidity":50}`)
	sent := ntf.all()
	require.Len(t, sent, 2)
	for _, n := range sent {
		require.Equal(t, relay.Temperature, n.Metric)
	}
	require.Equal(t, epoch.Add(time.Minute+time.Second), sent[1].FiredAt)
}

func TestMissingHumidityCountsAsZero(t *testing.T) {
	manualClock(t)
	r, _, ntf := newRelay(t)

	// Humidity starts at 0, below the chosen minimum of 20.
	publish(r, "mobileA", prefs)
	publish(r, "esp32", `{"temperature":35}`)

	sent := ntf.all()
	require.Len(t, sent, 2)
	require.Equal(t, relay.Temperature, sent[0].Metric)
	require.Equal(t, relay.Humidity, sent[1].Metric)
	require.Equal(t, "35 *C --- 0 %", sent[1].Text)
}

func TestPartialReadingKeepsPreviousValue(t *testing.T) {
	manualClock(t)
	r, _, ntf := newRelay(t)

	publish(r, "esp32", `{"temperature":21.5,"humidity":40}`)
	publish(r, "esp32", `{"humidity":45}`)

	got := r.State().Snapshot()
	require.Equal(t, 21.5, got.Temperature)
	require.Equal(t, 45.0, got.Humidity)
	require.Empty(t, ntf.all())
}
