// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package config

import (
	"fmt"
	"log/slog"
	"time"
)

type (
	// Config is the resolved process configuration.
	Config struct {
		MQTTAddress   string
		WSAddress     string
		MQTTUsername  string
		MQTTPassword  string
		SensorID      string
		MobilePrefix  string
		PublisherMark string

		AlertCooldown   time.Duration
		NotifyTimeout   time.Duration
		WeatherInterval time.Duration
		InitialIP       string

		FirebaseAPIKey string
		FCMEndpoint    string
		FCMRequired    bool
		WeatherAPIKey  string

		NATSURL     string
		NATSSubject string

		MetricsAddress string
		LogLevel       slog.Level
	}

	// InvalidArgumentError indicates that a configuration value could not be
	// used. It may wrap an underlying error using Go standard error wrapping.
	InvalidArgumentError struct {
		Name    string
		wrapped error
		message string
	}
)

// Default returns the configuration used when no variables are set.
func Default() *Config {
	return &Config{
		MQTTAddress:   ":1883",
		SensorID:      "esp32",
		MobilePrefix:  "mobile",
		PublisherMark: "publisher",

		AlertCooldown:   10 * time.Minute,
		NotifyTimeout:   5 * time.Minute,
		WeatherInterval: 10 * time.Minute,
		InitialIP:       "157.158.160.207",

		FCMEndpoint: "https://gcm-http.googleapis.com/gcm/send",
		FCMRequired: true,

		NATSSubject: "relay.alerts",

		MetricsAddress: ":9090",
		LogLevel:       slog.LevelInfo,
	}
}

// Validate checks cross-field requirements that cannot be decided while
// parsing individual variables.
func (c *Config) Validate() error {
	if c.SensorID == "" {
		return &InvalidArgumentError{
			Name:    "RELAY_SENSOR_ID",
			message: "sensor id must not be empty",
		}
	}
	if c.MobilePrefix == "" {
		return &InvalidArgumentError{
			Name:    "RELAY_MOBILE_PREFIX",
			message: "mobile prefix must not be empty",
		}
	}
	if (c.MQTTUsername == "") != (c.MQTTPassword == "") {
		return &InvalidArgumentError{
			Name:    "RELAY_MQTT_USERNAME",
			message: "MQTT username and password must be provided together",
		}
	}
	if c.FCMRequired && c.FirebaseAPIKey == "" {
		return &InvalidArgumentError{
			Name:    "FIREBASE_API_KEY",
			message: "push notification credential is not configured",
		}
	}
	for name, d := range map[string]time.Duration{
		"RELAY_ALERT_COOLDOWN":   c.AlertCooldown,
		"RELAY_NOTIFY_TIMEOUT":   c.NotifyTimeout,
		"RELAY_WEATHER_INTERVAL": c.WeatherInterval,
	} {
		if d <= 0 {
			return &InvalidArgumentError{
				Name:    name,
				message: "duration must be positive",
			}
		}
	}
	return nil
}

func (e *InvalidArgumentError) Error() string {
	msg := e.message
	if e.Name != "" {
		msg = fmt.Sprintf("%s: %s", e.Name, msg)
	}
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", msg, e.wrapped)
	}
	return msg
}

func (e *InvalidArgumentError) Unwrap() error {
	return e.wrapped
}

// Attrs exposes the variable name to structured logging.
func (e *InvalidArgumentError) Attrs() []slog.Attr {
	return []slog.Attr{slog.String("variable", e.Name)}
}
