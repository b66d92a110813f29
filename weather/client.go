// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package weather keeps the outdoor half of the reading current by looking up
// the conditions at the sensor's location.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

type (
	// Conditions are the current outdoor values at a location.
	Conditions struct {
		Temperature float64
		Humidity    float64
	}

	// Fetcher looks up the conditions near an IP address.
	Fetcher interface {
		Fetch(ctx context.Context, ip string) (Conditions, error)
	}

	// Client geolocates the IP with ipapi.co and queries World Weather
	// Online for the current conditions there.
	Client struct {
		APIKey          string
		GeoEndpoint     string
		WeatherEndpoint string
		HTTP            *http.Client
	}

	forecast struct {
		Data struct {
			CurrentCondition []struct {
				TempC    string `json:"temp_C"`
				Humidity string `json:"humidity"`
			} `json:"current_condition"`
		} `json:"data"`
	}
)

const (
	DefaultGeoEndpoint     = "https://ipapi.co"
	DefaultWeatherEndpoint = "http://api.worldweatheronline.com/premium/v1/weather.ashx"
)

// Fetch returns the current conditions near ip.
func (c *Client) Fetch(ctx context.Context, ip string) (Conditions, error) {
	lat, lon, err := c.locate(ctx, ip)
	if err != nil {
		return Conditions{}, &FetchError{Stage: "geolocate", wrapped: err}
	}

	cond, err := c.current(ctx, lat, lon)
	if err != nil {
		return Conditions{}, &FetchError{Stage: "weather", wrapped: err}
	}
	return cond, nil
}

// The geolocation endpoint answers with plain "lat,lon".
func (c *Client) locate(ctx context.Context, ip string) (lat, lon string, err error) {
	base := c.GeoEndpoint
	if base == "" {
		base = DefaultGeoEndpoint
	}

	body, err := c.get(ctx, strings.TrimRight(base, "/")+"/"+url.PathEscape(ip)+"/latlong")
	if err != nil {
		return "", "", err
	}

	lat, lon, ok := strings.Cut(strings.TrimSpace(string(body)), ",")
	if !ok || lat == "" || lon == "" {
		return "", "", fmt.Errorf("unexpected location %q", body)
	}
	return strings.TrimSpace(lat), strings.TrimSpace(lon), nil
}

func (c *Client) current(ctx context.Context, lat, lon string) (Conditions, error) {
	endpoint := c.WeatherEndpoint
	if endpoint == "" {
		endpoint = DefaultWeatherEndpoint
	}

	q := url.Values{}
	q.Set("key", c.APIKey)
	q.Set("q", lat+","+lon)
	q.Set("num_of_days", "1")
	q.Set("tp", "3")
	q.Set("format", "json")

	body, err := c.get(ctx, endpoint+"?"+q.Encode())
	if err != nil {
		return Conditions{}, err
	}

	var f forecast
	if err := json.Unmarshal(body, &f); err != nil {
		return Conditions{}, err
	}
	if len(f.Data.CurrentCondition) == 0 {
		return Conditions{}, errNoConditions
	}

	now := f.Data.CurrentCondition[0]
	temp, err := strconv.ParseFloat(strings.TrimSpace(now.TempC), 64)
	if err != nil {
		return Conditions{}, fmt.Errorf("temp_C: %w", err)
	}
	hum, err := strconv.ParseFloat(strings.TrimSpace(now.Humidity), 64)
	if err != nil {
		return Conditions{}, fmt.Errorf("humidity: %w", err)
	}
	return Conditions{Temperature: temp, Humidity: hum}, nil
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &StatusError{StatusCode: res.StatusCode}
	}
	return body, nil
}
