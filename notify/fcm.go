// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/Glaadiss/humidity-tracker-broker/relay"
)

type (
	// FCM sends push notifications through the legacy Firebase Cloud
	// Messaging HTTP API.
	FCM struct {
		Endpoint string
		APIKey   string
		Client   *http.Client
	}

	fcmMessage struct {
		To           string          `json:"to"`
		Notification fcmNotification `json:"notification"`
	}

	fcmNotification struct {
		Title string `json:"title"`
		Text  string `json:"text"`
	}
)

// DefaultFCMEndpoint is the legacy FCM send endpoint.
const DefaultFCMEndpoint = "https://gcm-http.googleapis.com/gcm/send"

func (*FCM) Name() string {
	return "fcm"
}

// Send posts the notification to its user. Any non-2xx response is a
// DeliveryError.
func (f *FCM) Send(ctx context.Context, n *relay.Notification) error {
	body, err := json.Marshal(&fcmMessage{
		To:           n.User,
		Notification: fcmNotification{Title: n.Title, Text: n.Text},
	})
	if err != nil {
		return err
	}

	endpoint := f.Endpoint
	if endpoint == "" {
		endpoint = DefaultFCMEndpoint
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+f.APIKey)

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(req)
	if err != nil {
		return &DeliveryError{Sink: f.Name(), User: n.User, wrapped: err}
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &DeliveryError{Sink: f.Name(), User: n.User, StatusCode: res.StatusCode}
	}
	return nil
}
