package dashboard

import (
	"context"
	"fmt"

	"github.com/ladyxxa/Web4/internal/datastore"
	"github.com/ladyxxa/Web4/internal/errors"
	"github.com/ladyxxa/Web4/internal/geolocation"
	"github.com/ladyxxa/Web4/internal/weather"
)

// Bootstrap shows something on startup: the active city when cities are
// tracked, the device location otherwise.
func (m *Manager) Bootstrap(ctx context.Context) (*weather.Snapshot, error) {
	m.mu.Lock()
	n := len(m.state.Cities)
	m.mu.Unlock()

	if n > 0 {
		return m.RefreshActive(ctx)
	}
	return m.LocateCurrent(ctx)
}

// LocateCurrent acquires the device position, names it by reverse
// geocoding and tracks it at index 0 as the active city. On failure the
// active city is refreshed instead, or, with no cities tracked, the error
// also wraps errors.ErrNoCities and a manual entry prompt is published.
func (m *Manager) LocateCurrent(ctx context.Context) (*weather.Snapshot, error) {
	pos, err := geolocation.Acquire(ctx, m.locator, m.geoTimeout)
	if err != nil {
		return m.fallbackAfterLocateFailure(ctx, err)
	}

	// Reverse lookup never fails; it falls back to the placeholder label
	name := m.resolver.Reverse(ctx, pos.Lat, pos.Lon)

	snapshot, err := m.provider.FetchWeather(ctx, pos.Lat, pos.Lon)
	if err != nil {
		m.notifyFailed(name, err)
		return m.fallbackAfterLocateFailure(ctx, err)
	}
	snapshot = snapshot.WithCityName(name)
	tz := snapshot.Timezone
	if tz == "" {
		tz = m.defaultTZ
	}

	m.mu.Lock()
	if m.state.IndexOf(name) < 0 {
		m.state.Cities = append([]string{name}, m.state.Cities...)
		m.state.CurrentCityIndex = 0
		m.generations[name] = m.bumpGen()
	}
	m.state.CityCoords[name] = datastore.Coordinates{Lat: pos.Lat, Lon: pos.Lon}
	m.state.CityTimezones[name] = tz
	now := m.now()
	m.cache.Put(name, snapshot, now)
	if err := m.persistLocked(ctx); err != nil {
		getLogger().Warn("Failed to persist state after locating", "city", name, "error", err)
	}
	if err := m.store.SaveFetchStamp(ctx, datastore.FetchStamp{City: name, FetchedAtEpochMs: now.UnixMilli(), Snapshot: snapshot}); err != nil {
		getLogger().Warn("Failed to persist fetch stamp", "city", name, "error", err)
	}
	m.startClockLocked(name, tz)
	changed := m.citiesEventLocked()
	m.recordTrackedLocked()
	m.mu.Unlock()

	getLogger().Info("Tracking device location", "city", name, "lat", pos.Lat, "lon", pos.Lon, "timezone", tz)
	m.notifier.Notify(changed)
	m.notifyUpdated(name, snapshot)
	return snapshot, nil
}

func (m *Manager) fallbackAfterLocateFailure(ctx context.Context, cause error) (*weather.Snapshot, error) {
	m.mu.Lock()
	n := len(m.state.Cities)
	m.mu.Unlock()

	if n > 0 {
		getLogger().Info("Device location unavailable, showing the active city", "error", cause)
		return m.RefreshActive(ctx)
	}

	m.promptForCity(cause)
	return nil, errors.New(fmt.Errorf("%w: %w", errors.ErrNoCities, cause)).
		Component("dashboard").
		Category(errors.CategoryState).
		Build()
}
