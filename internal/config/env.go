// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sosodev/duration"
)

// FromEnv parses the configuration from well-known environment variables,
// starting from Default. It returns an error if a variable does not parse or
// the result fails Validate.
func FromEnv() (*Config, error) {
	return FromEnviron(os.Environ())
}

// FromEnviron is FromEnv over an explicit KEY=VALUE list.
func FromEnviron(environ []string) (*Config, error) {
	cfg := Default()

	for _, env := range environ {
		idx := strings.IndexByte(env, '=')
		if idx < 0 {
			continue
		}
		key := env[:idx]
		val := env[idx+1:]

		var err error
		switch key {
		case "RELAY_MQTT_ADDRESS":
			cfg.MQTTAddress = val

		case "RELAY_MQTT_WS_ADDRESS":
			cfg.WSAddress = val

		case "RELAY_MQTT_USERNAME":
			cfg.MQTTUsername = val

		case "RELAY_MQTT_PASSWORD":
			cfg.MQTTPassword = val

		case "RELAY_SENSOR_ID":
			cfg.SensorID = val

		case "RELAY_MOBILE_PREFIX":
			cfg.MobilePrefix = val

		case "RELAY_PUBLISHER_MARKER":
			cfg.PublisherMark = val

		case "RELAY_ALERT_COOLDOWN":
			cfg.AlertCooldown, err = parseDuration(key, val)

		case "RELAY_NOTIFY_TIMEOUT":
			cfg.NotifyTimeout, err = parseDuration(key, val)

		case "RELAY_WEATHER_INTERVAL":
			cfg.WeatherInterval, err = parseDuration(key, val)

		case "RELAY_INITIAL_IP":
			cfg.InitialIP = val

		case "FIREBASE_API_KEY":
			cfg.FirebaseAPIKey = val

		case "RELAY_FCM_ENDPOINT":
			cfg.FCMEndpoint = val

		case "RELAY_FCM_REQUIRED":
			cfg.FCMRequired, err = parseBool(key, val)

		case "WEATHER_API_KEY":
			cfg.WeatherAPIKey = val

		case "RELAY_NATS_URL":
			cfg.NATSURL = val

		case "RELAY_NATS_SUBJECT":
			cfg.NATSSubject = val

		case "RELAY_METRICS_ADDRESS":
			cfg.MetricsAddress = val

		case "RELAY_LOG_LEVEL":
			err = cfg.LogLevel.UnmarshalText([]byte(val))
			if err != nil {
				err = &InvalidArgumentError{
					Name:    key,
					message: "could not parse log level",
					wrapped: err,
				}
			}
		}
		if err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Durations are ISO 8601 (e.g. PT10M); plain Go durations are accepted too.
func parseDuration(name, val string) (time.Duration, error) {
	if d, err := duration.Parse(val); err == nil {
		return d.ToTimeDuration(), nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, &InvalidArgumentError{
			Name:    name,
			message: "could not parse duration",
			wrapped: err,
		}
	}
	return d, nil
}

func parseBool(name, val string) (bool, error) {
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, &InvalidArgumentError{
			Name:    name,
			message: "could not parse boolean",
			wrapped: err,
		}
	}
	return b, nil
}
