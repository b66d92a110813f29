// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package relay

import (
	"context"
	"sync"

	"github.com/Glaadiss/humidity-tracker-broker/internal/log"
)

type (
	// EventKind classifies a transport event.
	EventKind byte

	// Event is one notification from the transport.
	Event struct {
		Kind     EventKind
		ClientID string

		// Set for Published events only.
		Topic   string
		Payload []byte
	}

	// Relay is the threshold-alerting engine. Transport callbacks Submit
	// events from any goroutine; Run handles them one at a time, which is
	// the only concurrency discipline the store and engine rely on.
	Relay struct {
		identity Identity
		store    *Store
		state    *ReadingState
		engine   *Engine
		router   *Router

		events chan *Event
		done   chan struct{}
		stop   func()

		metrics *Metrics
		log     logger
	}
)

const (
	Connected EventKind = iota
	Disconnected
	Subscribed
	Published
)

func (k EventKind) String() string {
	switch k {
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	case Subscribed:
		return "subscribed"
	case Published:
		return "published"
	default:
		return "unknown"
	}
}

// New creates a relay that publishes snapshots through the publisher and
// hands fired alerts to the notifier.
func New(publisher Publisher, notifier Notifier, opt ...Option) *Relay {
	opts := Options{
		Identity:  DefaultIdentity(),
		Cooldown:  DefaultCooldown,
		QueueSize: defaultQueueSize,
	}
	opts.Apply(opt)
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}

	l := logger{log.Wrap(opts.Logger)}
	store := NewStore(opts.Identity)
	state := NewReadingState(opts.InitialIP)
	done := make(chan struct{})

	return &Relay{
		identity: opts.Identity,
		store:    store,
		state:    state,
		engine: &Engine{
			identity: opts.Identity,
			store:    store,
			state:    state,
			notifier: notifier,
			cooldown: opts.Cooldown,
			metrics:  opts.Metrics,
			log:      l,
		},
		router: &Router{
			identity:  opts.Identity,
			store:     store,
			state:     state,
			publisher: publisher,
			log:       l,
		},

		events: make(chan *Event, opts.QueueSize),
		done:   done,
		stop:   sync.OnceFunc(func() { close(done) }),

		metrics: opts.Metrics,
		log:     l,
	}
}

// State returns the process-wide reading. The weather refresher writes its
// outdoor values through it.
func (r *Relay) State() *ReadingState {
	return r.state
}

// Store returns the profile store. It must only be touched from the event
// loop, or after Run has returned.
func (r *Relay) Store() *Store {
	return r.store
}

// Submit queues an event for the event loop. It blocks while the queue is
// full and fails once the loop has stopped.
func (r *Relay) Submit(ctx context.Context, evt *Event) error {
	select {
	case <-r.done:
		return &ClosedError{}
	default:
	}

	select {
	case r.events <- evt:
		return nil
	case <-r.done:
		return &ClosedError{}
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}

// Run handles queued events until the context ends. Events still queued at
// that point are discarded.
func (r *Relay) Run(ctx context.Context) error {
	defer r.stop()
	for {
		select {
		case evt := <-r.events:
			r.Handle(ctx, evt)
		case <-ctx.Done():
			return context.Cause(ctx)
		}
	}
}

// Handle processes a single event synchronously. It must not be called
// concurrently with itself or with Run.
func (r *Relay) Handle(ctx context.Context, evt *Event) {
	r.metrics.event(evt.Kind)
	defer func() { r.metrics.profiles(r.store.Len()) }()

	key := r.identity.Normalize(evt.ClientID)
	if key == "" {
		r.log.dropped(ctx, &IdentityError{Kind: evt.Kind, ClientID: evt.ClientID})
		r.metrics.dropped("no_identity")
		return
	}
	r.log.event(ctx, evt, key)

	switch evt.Kind {
	case Connected, Subscribed:
		r.router.OnClientActivity(ctx, evt.ClientID)

	case Disconnected:
		r.log.disconnected(ctx, key)

	case Published:
		switch {
		case r.identity.IsSensor(evt.ClientID):
			r.sensorMessage(ctx, evt)
		case r.identity.IsMobile(evt.ClientID):
			r.mobileMessage(ctx, evt, key)
		default:
			r.metrics.dropped("unknown_client")
		}
	}
}

func (r *Relay) sensorMessage(ctx context.Context, evt *Event) {
	p, err := decodeSensor(evt.Payload)
	if err != nil {
		r.log.Err(ctx, &PayloadError{
			ClientID: evt.ClientID,
			Topic:    evt.Topic,
			wrapped:  err,
		})
		r.metrics.dropped("malformed")
		return
	}

	if p.IP != nil && *p.IP != "" {
		r.state.SetIP(*p.IP)
		r.log.ipUpdated(ctx, *p.IP)
		return
	}

	r.engine.OnNewReading(ctx, p.Temperature, p.Humidity)
	r.log.state(ctx, r.state.Snapshot(), r.store)
	r.router.PublishToAll(ctx)
}

func (r *Relay) mobileMessage(ctx context.Context, evt *Event, key Key) {
	applied, echo, err := r.store.ApplyPreferences(evt.ClientID, evt.Payload)
	switch {
	case err != nil:
		r.log.Err(ctx, &PayloadError{
			ClientID: evt.ClientID,
			Topic:    evt.Topic,
			wrapped:  err,
		})
		r.metrics.dropped("malformed")
	case !applied:
		r.log.ignoredPreferences(ctx, key, echo)
		if echo.Echoed() {
			r.metrics.dropped("echoed_snapshot")
		} else {
			r.metrics.dropped("not_preferences")
		}
	}

	r.log.state(ctx, r.state.Snapshot(), r.store)
	r.router.OnClientActivity(ctx, evt.ClientID)
}
