// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package relay

import (
	"encoding/json"
	"math"
	"time"

	"github.com/relvacode/iso8601"
)

type (
	// Metric identifies one of the two alerted measurements.
	Metric int

	// Bounds are the alert thresholds of one client. A reading strictly
	// outside [Min, Max] is a breach.
	Bounds struct {
		TemperatureMin float64 `json:"temperatureMin"`
		TemperatureMax float64 `json:"temperatureMax"`
		HumidityMin    float64 `json:"humidityMin"`
		HumidityMax    float64 `json:"humidityMax"`
	}

	// Profile is the alert state of one logical user.
	Profile struct {
		Bounds

		// Zero means the metric has never alerted.
		LastTemperatureAlertAt time.Time
		LastHumidityAlertAt    time.Time

		// Set once the client has sent valid preferences.
		Configured bool
	}

	// Marker is the wire form of updatedAt. Clients send the number 0 with a
	// genuine preference change; a snapshot echoed back carries the time of
	// the last alert instead.
	Marker struct {
		// Zero is set only when the value was the JSON number 0.
		Zero bool

		// At is the decoded timestamp, if the value carried one.
		At time.Time
	}

	preferences struct {
		TemperatureMin *float64 `json:"temperatureMin"`
		TemperatureMax *float64 `json:"temperatureMax"`
		HumidityMin    *float64 `json:"humidityMin"`
		HumidityMax    *float64 `json:"humidityMax"`
		UpdatedAt      *Marker  `json:"updatedAt"`
	}
)

const (
	Temperature Metric = iota
	Humidity
)

// AllMetrics lists every alerted metric in evaluation order.
var AllMetrics = [...]Metric{Temperature, Humidity}

// DefaultBounds are assigned to a profile when it is first created. They are
// wide enough that a new client does not alert until it sends preferences.
var DefaultBounds = Bounds{
	TemperatureMin: -30,
	TemperatureMax: 100,
	HumidityMin:    0,
	HumidityMax:    100,
}

func (m Metric) String() string {
	switch m {
	case Temperature:
		return "Temperature"
	case Humidity:
		return "Humidity"
	default:
		return "Unknown"
	}
}

// Breached reports whether value lies outside the bounds for the metric. NaN
// never breaches.
func (b Bounds) Breached(m Metric, value float64) bool {
	if math.IsNaN(value) {
		return false
	}
	switch m {
	case Temperature:
		return value > b.TemperatureMax || value < b.TemperatureMin
	case Humidity:
		return value > b.HumidityMax || value < b.HumidityMin
	default:
		return false
	}
}

// LastAlert returns when the metric last fired, or the zero time.
func (p *Profile) LastAlert(m Metric) time.Time {
	if m == Humidity {
		return p.LastHumidityAlertAt
	}
	return p.LastTemperatureAlertAt
}

func (p *Profile) setLastAlert(m Metric, t time.Time) {
	if m == Humidity {
		p.LastHumidityAlertAt = t
	} else {
		p.LastTemperatureAlertAt = t
	}
}

// marker is the updatedAt published in this profile's snapshot; nil omits it.
func (p *Profile) marker() *Marker {
	last := p.LastTemperatureAlertAt
	if p.LastHumidityAlertAt.After(last) {
		last = p.LastHumidityAlertAt
	}
	switch {
	case !last.IsZero():
		return &Marker{At: last}
	case p.Configured:
		return &Marker{Zero: true}
	default:
		return nil
	}
}

// Echoed reports whether the marker carries the alert time of a snapshot the
// relay published, i.e. a client sent its snapshot back.
func (m *Marker) Echoed() bool {
	return m != nil && !m.At.IsZero()
}

// MarshalJSON writes 0 when no time is set, otherwise an RFC 3339 string.
func (m Marker) MarshalJSON() ([]byte, error) {
	if m.At.IsZero() {
		return []byte("0"), nil
	}
	return json.Marshal(m.At.UTC().Format(time.RFC3339Nano))
}

// UnmarshalJSON accepts a number (milliseconds since the epoch, or 0) or an
// ISO 8601 string. Anything else decodes as a non-zero marker without a time.
func (m *Marker) UnmarshalJSON(b []byte) error {
	*m = Marker{}

	var n float64
	if b[0] != 'n' && json.Unmarshal(b, &n) == nil {
		if n == 0 {
			m.Zero = true
		} else {
			m.At = time.UnixMilli(int64(n)).UTC()
		}
		return nil
	}

	var s string
	if json.Unmarshal(b, &s) == nil {
		if t, err := iso8601.ParseString(s); err == nil {
			m.At = t
		}
	}
	return nil
}

// Decode a preference payload. ok is false when the payload is well formed
// but is not a preference update (updatedAt absent or non-zero).
func decodePreferences(payload []byte) (b Bounds, echo *Marker, ok bool, err error) {
	var p preferences
	if err := json.Unmarshal(payload, &p); err != nil {
		return Bounds{}, nil, false, err
	}
	if p.UpdatedAt == nil || !p.UpdatedAt.Zero {
		return Bounds{}, p.UpdatedAt, false, nil
	}
	if p.TemperatureMin == nil || p.TemperatureMax == nil ||
		p.HumidityMin == nil || p.HumidityMax == nil {
		return Bounds{}, nil, false, errIncompleteBounds
	}
	return Bounds{
		TemperatureMin: *p.TemperatureMin,
		TemperatureMax: *p.TemperatureMax,
		HumidityMin:    *p.HumidityMin,
		HumidityMax:    *p.HumidityMax,
	}, nil, true, nil
}
