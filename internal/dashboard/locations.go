package dashboard

import (
	"context"

	"github.com/ladyxxa/Web4/internal/datastore"
	"github.com/ladyxxa/Web4/internal/geocode"
)

// Location implements geocode.Locations from the persisted coordinates.
func (m *Manager) Location(name string) (geocode.Location, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.state.CityCoords[name]
	if !ok {
		return geocode.Location{}, false
	}
	return geocode.Location{Name: name, Lat: c.Lat, Lon: c.Lon, Timezone: m.state.CityTimezones[name]}, true
}

// StoreLocation implements geocode.Locations. Positions of tracked cities
// are persisted right away; AddCity records new ones when it commits.
func (m *Manager) StoreLocation(ctx context.Context, name string, loc geocode.Location) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.IndexOf(name) < 0 {
		return nil
	}
	m.state.CityCoords[name] = datastore.Coordinates{Lat: loc.Lat, Lon: loc.Lon}
	if loc.Timezone != "" {
		m.state.CityTimezones[name] = loc.Timezone
	}
	return m.persistLocked(ctx)
}
