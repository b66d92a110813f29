// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package relay

import (
	"context"
	"encoding/json"
)

type (
	// Publisher sends a payload to every subscriber of a topic.
	Publisher interface {
		Publish(ctx context.Context, topic string, payload []byte) error
	}

	// Snapshot is the composite payload published to a mobile client.
	Snapshot struct {
		Temperature    float64 `json:"temperature"`
		Humidity       float64 `json:"humidity"`
		TemperatureOut float64 `json:"temperatureOut"`
		HumidityOut    float64 `json:"humidityOut"`
		Bounds
		UpdatedAt *Marker `json:"updatedAt,omitempty"`
	}

	// Router republishes snapshots to mobile clients.
	Router struct {
		identity  Identity
		store     *Store
		state     *ReadingState
		publisher Publisher
		log       logger
	}
)

// NewSnapshot combines a reading with a profile.
func NewSnapshot(r Reading, p *Profile) Snapshot {
	return Snapshot{
		Temperature:    r.Temperature,
		Humidity:       r.Humidity,
		TemperatureOut: r.TemperatureOut,
		HumidityOut:    r.HumidityOut,
		Bounds:         p.Bounds,
		UpdatedAt:      p.marker(),
	}
}

// PublishSnapshotFor publishes the current snapshot of the id's profile on the
// topic named by its logical key. It does nothing if there is no profile.
func (r *Router) PublishSnapshotFor(ctx context.Context, id string) error {
	key := r.identity.Normalize(id)
	p, ok := r.store.Get(string(key))
	if !ok {
		return nil
	}

	payload, err := json.Marshal(NewSnapshot(r.state.Snapshot(), p))
	if err != nil {
		return err
	}
	return r.publisher.Publish(ctx, string(key), payload)
}

// PublishToAll publishes a snapshot to every profile. Failures are logged and
// do not stop the fan-out.
func (r *Router) PublishToAll(ctx context.Context) {
	for key := range r.store.All() {
		if err := r.PublishSnapshotFor(ctx, string(key)); err != nil {
			r.log.publishFailed(ctx, key, err)
		}
	}
}

// OnClientActivity ensures a mobile client has a profile and sends it a
// snapshot. Non-mobile clients are ignored.
func (r *Router) OnClientActivity(ctx context.Context, raw string) {
	if !r.identity.IsMobile(raw) {
		return
	}

	r.store.Ensure(raw)
	if err := r.PublishSnapshotFor(ctx, raw); err != nil {
		r.log.publishFailed(ctx, r.identity.Normalize(raw), err)
	}
}
