// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Command sensorsim publishes synthetic readings as the sensor client, for
// exercising a relay without hardware.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"math"
	"math/rand"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Glaadiss/humidity-tracker-broker/internal/retry"
	"github.com/eclipse/paho.golang/paho"
	"github.com/lmittmann/tint"
)

type reading struct {
	IP          string  `json:"ip,omitempty"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
}

func main() {
	addr := flag.String("addr", "localhost:1883", "broker address")
	id := flag.String("id", "esp32", "client identifier")
	topic := flag.String("topic", "sensor", "publish topic")
	ip := flag.String("ip", "", "announce this IP before publishing readings")
	every := flag.Duration("every", 5*time.Second, "publish interval")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	log := slog.New(tint.NewHandler(os.Stdout, nil))

	var client *paho.Client
	b := &retry.Backoff{Logger: log}
	err := b.Do(ctx, "connect", func(ctx context.Context) (bool, error) {
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", *addr)
		if err != nil {
			return true, err
		}

		c := paho.NewClient(paho.ClientConfig{ClientID: *id, Conn: conn})
		if _, err := c.Connect(ctx, &paho.Connect{
			ClientID:   *id,
			KeepAlive:  30,
			CleanStart: true,
		}); err != nil {
			_ = conn.Close()
			return true, err
		}
		client = c
		return false, nil
	})
	if err != nil {
		log.Error("cannot connect", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = client.Disconnect(&paho.Disconnect{}) }()

	if *ip != "" {
		send(ctx, log, client, *topic, reading{IP: *ip})
	}

	ticker := time.NewTicker(*every)
	defer ticker.Stop()
	start := time.Now()
	for {
		// A slow daily cycle with some noise.
		phase := time.Since(start).Hours() / 24 * 2 * math.Pi
		send(ctx, log, client, *topic, reading{
			Temperature: math.Round((22+6*math.Sin(phase)+rand.NormFloat64())*10) / 10,
			Humidity:    math.Round((55+20*math.Cos(phase)+2*rand.NormFloat64())*10) / 10,
		})

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

func send(ctx context.Context, log *slog.Logger, client *paho.Client, topic string, r reading) {
	payload, err := json.Marshal(&r)
	if err != nil {
		log.Error("cannot encode reading", slog.String("error", err.Error()))
		return
	}
	if _, err := client.Publish(ctx, &paho.Publish{Topic: topic, Payload: payload}); err != nil {
		log.Warn("publish failed", slog.String("error", err.Error()))
		return
	}
	log.Info("published", slog.String("topic", topic), slog.String("payload", string(payload)))
}
