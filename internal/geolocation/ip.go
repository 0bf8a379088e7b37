package geolocation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ladyxxa/Web4/internal/errors"
)

// DefaultIPEndpoint is the ip-api.com JSON endpoint.
const DefaultIPEndpoint = "http://ip-api.com/json/"

// ipAPIResponse is the subset of the ip-api.com response we use.
type ipAPIResponse struct {
	Status   string  `json:"status"`
	Message  string  `json:"message"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	City     string  `json:"city"`
	Timezone string  `json:"timezone"`
}

// IPLocator estimates the position from the public IP address.
type IPLocator struct {
	endpoint string
	client   *http.Client
}

// NewIPLocator creates a locator for endpoint
func NewIPLocator(endpoint string) *IPLocator {
	if endpoint == "" {
		endpoint = DefaultIPEndpoint
	}
	return &IPLocator{endpoint: endpoint, client: &http.Client{}}
}

// Locate queries the IP geolocation service. The request is bounded by ctx.
func (l *IPLocator) Locate(ctx context.Context) (Position, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.endpoint, http.NoBody)
	if err != nil {
		return Position{}, err
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return Position{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusForbidden {
		return Position{}, newGeolocationError(fmt.Errorf("%w: service refused the request", errors.ErrGeolocationDenied), errors.CategoryGeolocation)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Position{}, fmt.Errorf("received status %d", resp.StatusCode)
	}

	var data ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return Position{}, fmt.Errorf("decoding response: %w", err)
	}
	if data.Status != "success" {
		return Position{}, fmt.Errorf("lookup failed: %s", data.Message)
	}

	return Position{Lat: data.Lat, Lon: data.Lon, City: data.City, Timezone: data.Timezone}, nil
}
