// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package broker

import (
	"context"
	"fmt"

	"github.com/Glaadiss/humidity-tracker-broker/internal/log"
	mochi "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
)

// Server is an embedded MQTT broker that reports client lifecycle and
// publish events to a sink and publishes on the sink's behalf.
type Server struct {
	server *mochi.Server
	hook   *hook
	cancel context.CancelFunc
	log    logger
}

// New configures a broker and binds its listeners. Clients are not accepted
// until Serve is called.
func New(opt ...Option) (*Server, error) {
	opts := Options{Address: defaultAddress}
	opts.Apply(opt)

	if (opts.Username == "") != (opts.Password == "") {
		return nil, &ConfigError{
			Name:    "credentials",
			message: "username and password must be set together",
		}
	}

	l := logger{log.Wrap(opts.Logger)}
	server := mochi.New(&mochi.Options{
		InlineClient: true,
		Logger:       opts.Logger,
	})

	if err := addAuth(server, &opts); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &hook{ctx: ctx, log: l}
	if err := server.AddHook(h, nil); err != nil {
		cancel()
		return nil, err
	}

	err := server.AddListener(listeners.NewTCP(listeners.Config{
		Type:    "tcp",
		ID:      "tcp",
		Address: opts.Address,
	}))
	if err != nil {
		cancel()
		return nil, &ConfigError{Name: "address", wrapped: err}
	}
	l.listening(ctx, "tcp", opts.Address)

	if opts.WebsocketAddress != "" {
		err := server.AddListener(listeners.NewWebsocket(listeners.Config{
			Type:    "ws",
			ID:      "ws",
			Address: opts.WebsocketAddress,
		}))
		if err != nil {
			cancel()
			_ = server.Close()
			return nil, &ConfigError{Name: "websocket_address", wrapped: err}
		}
		l.listening(ctx, "ws", opts.WebsocketAddress)
	}

	return &Server{server: server, hook: h, cancel: cancel, log: l}, nil
}

func addAuth(server *mochi.Server, opts *Options) error {
	if opts.Username == "" {
		return server.AddHook(new(auth.AllowHook), nil)
	}
	return server.AddHook(new(auth.Hook), &auth.Options{
		Ledger: &auth.Ledger{
			// Auth disallows all by default
			Auth: auth.AuthRules{{
				Username: auth.RString(opts.Username),
				Password: auth.RString(opts.Password),
				Allow:    true,
			}},
		},
	})
}

// Serve starts accepting connections and reports their events to the sink,
// with a context that ends when the server is closed. It does not block.
func (s *Server) Serve(sink Sink) error {
	s.hook.sink = sink
	return s.server.Serve()
}

// Publish sends a payload to every subscriber of the topic at QoS 0, without
// retaining it.
func (s *Server) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.server.Publish(topic, payload, false, 0); err != nil {
		return fmt.Errorf("publish to %q: %w", topic, err)
	}
	return nil
}

// Close stops the listeners and disconnects every client.
func (s *Server) Close() error {
	defer s.cancel()
	return s.server.Close()
}
