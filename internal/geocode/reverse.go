package geocode

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/antonholmquist/jason"
	"github.com/ladyxxa/Web4/internal/observability/metrics"
)

// addressPreference is the order in which Nominatim address parts name a place.
var addressPreference = []string{"city", "town", "village", "municipality", "county", "state"}

// Reverse returns a human-readable place name for the position. It never
// fails: any error or an address without a usable part yields the
// placeholder label.
func (r *Resolver) Reverse(ctx context.Context, lat, lon float64) string {
	name, err := r.reverse(ctx, lat, lon)
	r.record(metrics.LabelReverse, err)
	if err != nil {
		getLogger().Warn("Reverse geocoding failed", "lat", lat, "lon", lon, "error", err)
		return r.placeholder
	}
	if name == "" {
		return r.placeholder
	}
	return name
}

func (r *Resolver) reverse(ctx context.Context, lat, lon float64) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for rate limiter: %w", err)
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', 6, 64))
	q.Set("zoom", "10")
	q.Set("accept-language", r.language)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.reverseEndpoint+"?"+q.Encode(), http.NoBody)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("received status %d", resp.StatusCode)
	}

	obj, err := jason.NewObjectFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	address, err := obj.GetObject("address")
	if err != nil {
		return "", nil
	}
	return placeName(address), nil
}

// placeName returns the first non-empty address part in preference order.
func placeName(address *jason.Object) string {
	for _, key := range addressPreference {
		if v, err := address.GetString(key); err == nil && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
