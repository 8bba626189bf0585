// Package location resolves the device's approximate position.
package location

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"booksy/internal/model"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Provider returns the current location.
type Provider interface {
	Current(ctx context.Context) (model.Location, error)
}

// Static always reports the same coordinates.
type Static struct {
	Location model.Location
}

// Current returns the configured coordinates.
func (s Static) Current(ctx context.Context) (model.Location, error) {
	return s.Location, nil
}

// None never has a location.
type None struct{}

// Current always fails with model.ErrNoLocation.
func (None) Current(ctx context.Context) (model.Location, error) {
	return model.Location{}, model.ErrNoLocation
}

// IPLookup asks an IP geolocation service for the caller's position.
type IPLookup struct {
	url    string
	http   *http.Client
	logger zerolog.Logger
}

// NewIPLookup creates a provider querying lookupURL.
func NewIPLookup(lookupURL string, timeout time.Duration, logger zerolog.Logger) *IPLookup {
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	return &IPLookup{
		url: lookupURL,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger.With().Str("component", "location").Logger(),
	}
}

// Current fetches the lookup URL and reads latitude/longitude (or lat/lon).
func (p *IPLookup) Current(ctx context.Context) (model.Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return model.Location{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return model.Location{}, fmt.Errorf("failed to look up location: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.Location{}, fmt.Errorf("failed to look up location: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return model.Location{}, fmt.Errorf("failed to read location response: %w", err)
	}

	loc, err := parse(data)
	if err != nil {
		return model.Location{}, err
	}

	p.logger.Debug().Float64("latitude", loc.Latitude).Float64("longitude", loc.Longitude).Msg("location resolved")
	return loc, nil
}

func parse(data []byte) (model.Location, error) {
	if !gjson.ValidBytes(data) {
		return model.Location{}, fmt.Errorf("invalid location response")
	}

	lat := gjson.GetBytes(data, "latitude")
	if !lat.Exists() {
		lat = gjson.GetBytes(data, "lat")
	}
	lng := gjson.GetBytes(data, "longitude")
	if !lng.Exists() {
		lng = gjson.GetBytes(data, "lon")
	}

	if lat.Type != gjson.Number || lng.Type != gjson.Number {
		return model.Location{}, model.ErrNoLocation
	}

	return model.Location{Latitude: lat.Float(), Longitude: lng.Float()}, nil
}

// NewProvider builds the provider named by kind: "ip", "static" or "none".
func NewProvider(kind, lookupURL string, latitude, longitude float64, timeout time.Duration, logger zerolog.Logger) (Provider, error) {
	switch kind {
	case "ip", "":
		return NewIPLookup(lookupURL, timeout, logger), nil
	case "static":
		return Static{Location: model.Location{Latitude: latitude, Longitude: longitude}}, nil
	case "none":
		return None{}, nil
	default:
		return nil, fmt.Errorf("unknown location provider %q", kind)
	}
}
