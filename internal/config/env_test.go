// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package config

import (
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := FromEnviron([]string{"FIREBASE_API_KEY=secret"})
	require.NoError(t, err)

	require.Equal(t, ":1883", cfg.MQTTAddress)
	require.Equal(t, "esp32", cfg.SensorID)
	require.Equal(t, "mobile", cfg.MobilePrefix)
	require.Equal(t, "publisher", cfg.PublisherMark)
	require.Equal(t, 10*time.Minute, cfg.AlertCooldown)
	require.Equal(t, 5*time.Minute, cfg.NotifyTimeout)
	require.Equal(t, 10*time.Minute, cfg.WeatherInterval)
	require.Equal(t, "157.158.160.207", cfg.InitialIP)
	require.Equal(t, "relay.alerts", cfg.NATSSubject)
	require.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestOverrides(t *testing.T) {
	cfg, err := FromEnviron([]string{
		"RELAY_MQTT_ADDRESS=:2883",
		"RELAY_MQTT_WS_ADDRESS=:2882",
		"RELAY_MQTT_USERNAME=gary",
		"RELAY_MQTT_PASSWORD=pineapple",
		"RELAY_SENSOR_ID=sensor-1",
		"RELAY_ALERT_COOLDOWN=PT15M",
		"RELAY_NOTIFY_TIMEOUT=30s",
		"RELAY_WEATHER_INTERVAL=PT1H",
		"RELAY_FCM_REQUIRED=false",
		"RELAY_NATS_URL=nats://localhost:4222",
		"RELAY_LOG_LEVEL=debug",
		"UNRELATED=ignored",
	})
	require.NoError(t, err)

	require.Equal(t, ":2883", cfg.MQTTAddress)
	require.Equal(t, ":2882", cfg.WSAddress)
	require.Equal(t, "gary", cfg.MQTTUsername)
	require.Equal(t, "sensor-1", cfg.SensorID)
	require.Equal(t, 15*time.Minute, cfg.AlertCooldown)
	require.Equal(t, 30*time.Second, cfg.NotifyTimeout)
	require.Equal(t, time.Hour, cfg.WeatherInterval)
	require.False(t, cfg.FCMRequired)
	require.Equal(t, "nats://localhost:4222", cfg.NATSURL)
	require.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestInvalidValues(t *testing.T) {
	for _, env := range []string{
		"RELAY_ALERT_COOLDOWN=soon",
		"RELAY_FCM_REQUIRED=maybe",
		"RELAY_LOG_LEVEL=chatty",
	} {
		t.Run(env, func(t *testing.T) {
			_, err := FromEnviron([]string{"FIREBASE_API_KEY=k", env})
			var e *InvalidArgumentError
			require.ErrorAs(t, err, &e)
			require.NotNil(t, e.Unwrap())
		})
	}
}

func TestMissingCredential(t *testing.T) {
	_, err := FromEnviron(nil)
	var e *InvalidArgumentError
	require.ErrorAs(t, err, &e)
	require.Equal(t, "FIREBASE_API_KEY", e.Name)

	_, err = FromEnviron([]string{"RELAY_FCM_REQUIRED=false"})
	require.NoError(t, err)
}

func TestValidateCrossField(t *testing.T) {
	_, err := FromEnviron([]string{
		"FIREBASE_API_KEY=k",
		"RELAY_MQTT_USERNAME=gary",
	})
	require.Error(t, err)

	_, err = FromEnviron([]string{
		"FIREBASE_API_KEY=k",
		"RELAY_WEATHER_INTERVAL=PT0S",
	})
	require.Error(t, err)

	_, err = FromEnviron([]string{
		"FIREBASE_API_KEY=k",
		"RELAY_SENSOR_ID=",
	})
	require.Error(t, err)
}

func TestErrorMessage(t *testing.T) {
	_, err := strconv.ParseBool("maybe")
	e := &InvalidArgumentError{Name: "X", message: "bad", wrapped: err}
	require.Equal(t, "X: bad: "+err.Error(), e.Error())
	require.Equal(t, "variable", e.Attrs()[0].Key)
}
