// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package relay

import "strings"

type (
	// Key is a logical user identity: a raw connection identifier with the
	// publisher role marker removed. The empty key means "no identity".
	Key string

	// Identity describes how raw MQTT client identifiers are classified and
	// normalized.
	Identity struct {
		// SensorID is the (normalized) client identifier of the sensor device.
		SensorID string

		// MobilePrefix marks a raw identifier as belonging to a mobile client.
		MobilePrefix string

		// PublisherMarker is removed from identifiers wherever it occurs, so
		// that a client's publishing and subscribing connections resolve to
		// the same key.
		PublisherMarker string
	}
)

// DefaultIdentity returns the identifiers used by the stock sensor firmware
// and mobile application.
func DefaultIdentity() Identity {
	return Identity{
		SensorID:        "esp32",
		MobilePrefix:    "mobile",
		PublisherMarker: "publisher",
	}
}

// Normalize maps a raw identifier to its logical key. The marker is removed
// until none remains, so Normalize(Normalize(x)) == Normalize(x) even when
// removal splices a new occurrence together.
func (id Identity) Normalize(raw string) Key {
	if id.PublisherMarker == "" {
		return Key(raw)
	}
	for strings.Contains(raw, id.PublisherMarker) {
		raw = strings.ReplaceAll(raw, id.PublisherMarker, "")
	}
	return Key(raw)
}

// IsMobile reports whether the raw, unnormalized identifier belongs to a
// mobile client.
func (id Identity) IsMobile(raw string) bool {
	return raw != "" && strings.HasPrefix(raw, id.MobilePrefix)
}

// IsSensor reports whether the identifier belongs to the sensor device. The
// comparison is made on the normalized key.
func (id Identity) IsSensor(raw string) bool {
	return raw != "" && string(id.Normalize(raw)) == id.SensorID
}

// Target returns the push-notification recipient for a mobile key, which is
// the key without the mobile marker.
func (id Identity) Target(key Key) string {
	return strings.TrimPrefix(string(key), id.MobilePrefix)
}
