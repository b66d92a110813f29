// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package broker

import (
	"bytes"
	"context"

	"github.com/Glaadiss/humidity-tracker-broker/relay"
	mochi "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/packets"
)

type (
	// Sink receives the transport events of the broker.
	Sink interface {
		Submit(ctx context.Context, evt *relay.Event) error
	}

	// Translates mochi lifecycle callbacks into relay events.
	hook struct {
		mochi.HookBase
		ctx  context.Context
		sink Sink
		log  logger
	}
)

var provided = []byte{
	mochi.OnSessionEstablished,
	mochi.OnDisconnect,
	mochi.OnSubscribed,
	mochi.OnPublished,
}

func (*hook) ID() string {
	return "relay-events"
}

func (*hook) Provides(b byte) bool {
	return bytes.Contains(provided, []byte{b})
}

// Connections rejected by auth never establish a session.
func (h *hook) OnSessionEstablished(cl *mochi.Client, _ packets.Packet) {
	h.submit(cl, &relay.Event{Kind: relay.Connected})
}

func (h *hook) OnDisconnect(cl *mochi.Client, _ error, _ bool) {
	h.submit(cl, &relay.Event{Kind: relay.Disconnected})
}

func (h *hook) OnSubscribed(cl *mochi.Client, _ packets.Packet, _ []byte) {
	h.submit(cl, &relay.Event{Kind: relay.Subscribed})
}

func (h *hook) OnPublished(cl *mochi.Client, pk packets.Packet) {
	h.submit(cl, &relay.Event{
		Kind:    relay.Published,
		Topic:   pk.TopicName,
		Payload: bytes.Clone(pk.Payload),
	})
}

// The relay's own snapshots come through the inline client and are not
// events.
func (h *hook) submit(cl *mochi.Client, evt *relay.Event) {
	if cl == nil || cl.Net.Inline {
		return
	}
	evt.ClientID = cl.ID
	if err := h.sink.Submit(h.ctx, evt); err != nil {
		h.log.submitFailed(h.ctx, evt, err)
	}
}
