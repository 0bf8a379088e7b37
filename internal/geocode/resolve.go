package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ladyxxa/Web4/internal/errors"
	"github.com/ladyxxa/Web4/internal/observability/metrics"
)

// searchResponse is the subset of the Open-Meteo geocoding response we use.
type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
	Country   string  `json:"country"`
}

// Resolve returns the position of the city called name. A remembered
// location is returned without network access; otherwise the first
// geocoding result is authoritative and is remembered before returning.
//
// Errors wrap errors.ErrNotFound when the service knows no such place and
// errors.ErrLookup when the service could not be queried.
func (r *Resolver) Resolve(ctx context.Context, name string) (Location, error) {
	if r.locations != nil {
		if loc, ok := r.locations.Location(name); ok {
			if loc.Timezone == "" {
				loc.Timezone = r.defaultTimezone
			}
			return loc, nil
		}
	}

	results, err := r.search(ctx, name, 1)
	r.record(metrics.LabelForward, err)
	if err != nil {
		return Location{}, err
	}
	if len(results) == 0 {
		return Location{}, errors.New(fmt.Errorf("%w: %q", errors.ErrNotFound, name)).
			Component("geocode").
			Category(errors.CategoryNotFound).
			Context("operation", "resolve").
			Context("city", name).
			Build()
	}

	first := results[0]
	loc := Location{Name: first.Name, Lat: first.Latitude, Lon: first.Longitude, Timezone: first.Timezone}
	if loc.Timezone == "" {
		loc.Timezone = r.defaultTimezone
	}

	if r.locations != nil {
		if err := r.locations.StoreLocation(ctx, name, loc); err != nil {
			getLogger().Warn("Failed to remember resolved location", "city", name, "error", err)
		}
	}

	getLogger().Debug("Resolved city", "city", name, "lat", loc.Lat, "lon", loc.Lon, "timezone", loc.Timezone)
	return loc, nil
}

// search queries the geocoding endpoint for up to count results.
func (r *Resolver) search(ctx context.Context, name string, count int) ([]searchResult, error) {
	q := url.Values{}
	q.Set("name", name)
	q.Set("count", strconv.Itoa(count))
	q.Set("language", r.language)
	q.Set("format", "json")
	reqURL := r.endpoint + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, r.lookupError(fmt.Errorf("%w: creating request: %w", errors.ErrLookup, err), name)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, errors.New(fmt.Errorf("%w: %w", errors.ErrLookup, err)).
			Component("geocode").
			Category(errors.CategoryLookup).
			NetworkContext(reqURL, r.client.Timeout).
			Context("city", name).
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.New(fmt.Errorf("%w: received status %d", errors.ErrLookup, resp.StatusCode)).
			Component("geocode").
			Category(errors.CategoryLookup).
			Context("city", name).
			Context("status_code", resp.StatusCode).
			Build()
	}

	var data searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, r.lookupError(fmt.Errorf("%w: decoding response: %w", errors.ErrLookup, err), name)
	}
	return data.Results, nil
}

func (r *Resolver) lookupError(err error, name string) error {
	return errors.New(err).
		Component("geocode").
		Category(errors.CategoryLookup).
		Context("city", name).
		Build()
}
