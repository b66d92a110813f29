// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Glaadiss/humidity-tracker-broker/broker"
	"github.com/Glaadiss/humidity-tracker-broker/internal/config"
	"github.com/Glaadiss/humidity-tracker-broker/notify"
	"github.com/Glaadiss/humidity-tracker-broker/relay"
	"github.com/Glaadiss/humidity-tracker-broker/weather"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := must(config.FromEnv())
	log := slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: cfg.LogLevel}))
	slog.SetDefault(log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := relay.NewMetrics(reg)

	sender, closeSender := notifier(cfg, log)
	defer closeSender()
	dispatcher := notify.NewDispatcher(sender,
		notify.WithTimeout(cfg.NotifyTimeout),
		notify.WithMetrics(metrics),
		notify.WithLogger(log),
	)

	srv := must(broker.New(
		broker.WithAddress(cfg.MQTTAddress),
		broker.WithWebsocketAddress(cfg.WSAddress),
		broker.WithCredentials(cfg.MQTTUsername, cfg.MQTTPassword),
		broker.WithLogger(log),
	))

	r := relay.New(srv, dispatcher,
		relay.WithIdentity(relay.Identity{
			SensorID:        cfg.SensorID,
			MobilePrefix:    cfg.MobilePrefix,
			PublisherMarker: cfg.PublisherMark,
		}),
		relay.WithCooldown(cfg.AlertCooldown),
		relay.WithInitialIP(cfg.InitialIP),
		relay.WithMetrics(metrics),
		relay.WithLogger(log),
	)

	var metricsSrv *http.Server
	if cfg.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		metricsSrv = &http.Server{
			Addr:              cfg.MetricsAddress,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server stopped", slog.String("error", err.Error()))
			}
		}()
	}

	// The relay outlives the broker so that disconnects at shutdown are seen.
	relayCtx, stopRelay := context.WithCancel(context.Background())
	defer stopRelay()
	relayDone := make(chan error, 1)
	go func() { relayDone <- r.Run(relayCtx) }()

	weatherDone := make(chan error, 1)
	if cfg.WeatherAPIKey != "" {
		refresher := weather.NewRefresher(
			&weather.Client{APIKey: cfg.WeatherAPIKey},
			r.State(),
			weather.WithInterval(cfg.WeatherInterval),
			weather.WithTimeout(cfg.NotifyTimeout),
			weather.WithMetrics(metrics),
			weather.WithLogger(log),
		)
		go func() { weatherDone <- refresher.Run(ctx) }()
	} else {
		log.Warn("WEATHER_API_KEY is not set; outdoor conditions stay at zero")
		weatherDone <- nil
	}

	check(srv.Serve(r))
	log.Info("relay started",
		slog.String("mqtt_address", cfg.MQTTAddress),
		slog.String("metrics_address", cfg.MetricsAddress),
	)

	<-ctx.Done()
	log.Info("shutting down")

	if err := srv.Close(); err != nil {
		log.Warn("broker close failed", slog.String("error", err.Error()))
	}
	stopRelay()
	<-relayDone
	<-weatherDone
	dispatcher.Wait()

	if metricsSrv != nil {
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdown)
	}
}

// Push through FCM when a key is configured, mirror to NATS when a URL is.
func notifier(cfg *config.Config, log *slog.Logger) (notify.Sender, func()) {
	var senders notify.Multi
	closers := []func(){}

	if cfg.FirebaseAPIKey != "" {
		senders = append(senders, &notify.FCM{
			Endpoint: cfg.FCMEndpoint,
			APIKey:   cfg.FirebaseAPIKey,
			Client:   &http.Client{Timeout: cfg.NotifyTimeout},
		})
	} else {
		log.Warn("FIREBASE_API_KEY is not set; alerts are only logged")
		senders = append(senders, notify.Discard{Logger: log})
	}

	if cfg.NATSURL != "" {
		n, err := notify.ConnectNATS(cfg.NATSURL, cfg.NATSSubject, log)
		if err != nil {
			log.Error("alert mirror disabled", slog.String("error", err.Error()))
		} else {
			senders = append(senders, n)
			closers = append(closers, func() { _ = n.Close() })
		}
	}

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	if len(senders) == 1 {
		return senders[0], closeAll
	}
	return senders, closeAll
}

func check(e error) {
	if e != nil {
		panic(e)
	}
}

func must[T any](t T, e error) T {
	check(e)
	return t
}
