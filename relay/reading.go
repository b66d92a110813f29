// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package relay

import (
	"encoding/json"
	"strconv"
	"sync"
)

type (
	// Reading is a point-in-time copy of the process-wide sensor state.
	Reading struct {
		Temperature    float64
		Humidity       float64
		TemperatureOut float64
		HumidityOut    float64
		IP             string
	}

	// ReadingState is the single process-wide current reading. Indoor values
	// and the IP are written by the event loop; outdoor values are written by
	// the weather refresher. Each write and every Snapshot is atomic.
	ReadingState struct {
		mu sync.RWMutex
		r  Reading
	}

	sensorPayload struct {
		IP          *string  `json:"ip"`
		Temperature *float64 `json:"temperature"`
		Humidity    *float64 `json:"humidity"`
	}
)

// NewReadingState creates the state with all values zero and the given IP.
func NewReadingState(ip string) *ReadingState {
	return &ReadingState{r: Reading{IP: ip}}
}

// Snapshot returns a consistent copy of the current reading.
func (s *ReadingState) Snapshot() Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.r
}

// SetIndoor records a sensor reading. A nil value keeps the previous one.
func (s *ReadingState) SetIndoor(temperature, humidity *float64) Reading {
	s.mu.Lock()
	defer s.mu.Unlock()
	if temperature != nil {
		s.r.Temperature = *temperature
	}
	if humidity != nil {
		s.r.Humidity = *humidity
	}
	return s.r
}

// SetOutdoor records the latest outdoor conditions.
func (s *ReadingState) SetOutdoor(temperature, humidity float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.r.TemperatureOut = temperature
	s.r.HumidityOut = humidity
}

// SetIP records the sensor's last known public address.
func (s *ReadingState) SetIP(ip string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.r.IP = ip
}

// IP returns the sensor's last known public address.
func (s *ReadingState) IP() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.r.IP
}

// Text renders the reading as it appears in an alert body.
func (r Reading) Text() string {
	return formatNumber(r.Temperature) + " *C --- " + formatNumber(r.Humidity) + " %"
}

// Value returns the indoor value of the metric.
func (r Reading) Value(m Metric) float64 {
	if m == Humidity {
		return r.Humidity
	}
	return r.Temperature
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func decodeSensor(payload []byte) (sensorPayload, error) {
	var p sensorPayload
	err := json.Unmarshal(payload, &p)
	return p, err
}
