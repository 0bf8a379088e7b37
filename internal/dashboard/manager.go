// Package dashboard owns the tracked-city list and drives every refresh.
//
// The Manager is the single owner of the application state. Mutations take
// the state lock; geocoding and weather requests run without it, and their
// results are committed only if the city is still tracked under the same
// generation it had when the request started.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/ladyxxa/Web4/internal/clock"
	"github.com/ladyxxa/Web4/internal/datastore"
	"github.com/ladyxxa/Web4/internal/errors"
	"github.com/ladyxxa/Web4/internal/events"
	"github.com/ladyxxa/Web4/internal/geocode"
	"github.com/ladyxxa/Web4/internal/geolocation"
	"github.com/ladyxxa/Web4/internal/logging"
	"github.com/ladyxxa/Web4/internal/observability/metrics"
	"github.com/ladyxxa/Web4/internal/weather"
	"github.com/ladyxxa/Web4/internal/weathercache"
)

// Resolver is the part of geocode.Resolver the manager uses.
type Resolver interface {
	Resolve(ctx context.Context, name string) (geocode.Location, error)
	Reverse(ctx context.Context, lat, lon float64) string
}

// Options wires the manager's collaborators. Store, Resolver and Provider
// are required.
type Options struct {
	Store    datastore.Interface
	Resolver Resolver
	Provider weather.Provider
	Locator  geolocation.Locator
	Cache    *weathercache.Cache
	Notifier events.Notifier
	Metrics  *metrics.WeatherMetrics

	Placeholder        string
	DefaultTimezone    string
	GeolocationTimeout time.Duration
	ClockPeriod        time.Duration
	ClockFormat        string
}

// Manager implements the city list operations.
type Manager struct {
	store       datastore.Interface
	resolver    Resolver
	provider    weather.Provider
	locator     geolocation.Locator
	cache       *weathercache.Cache
	clocks      *clock.Registry
	notifier    events.Notifier
	metrics     *metrics.WeatherMetrics
	placeholder string
	defaultTZ   string
	geoTimeout  time.Duration
	now         func() time.Time

	mu          sync.Mutex
	state       *datastore.AppState
	generations map[string]uint64
	nextGen     uint64
}

func getLogger() *slog.Logger {
	return logging.ForService("dashboard")
}

// New creates a manager with an empty state. Call Load to read the
// persisted state.
func New(opts Options) *Manager {
	m := &Manager{
		store:       opts.Store,
		resolver:    opts.Resolver,
		provider:    opts.Provider,
		locator:     opts.Locator,
		cache:       opts.Cache,
		notifier:    opts.Notifier,
		metrics:     opts.Metrics,
		placeholder: opts.Placeholder,
		defaultTZ:   opts.DefaultTimezone,
		geoTimeout:  opts.GeolocationTimeout,
		now:         time.Now,
		state:       datastore.NewAppState(),
		generations: make(map[string]uint64),
	}
	if m.cache == nil {
		m.cache = weathercache.New(0, opts.Metrics)
	}
	if m.notifier == nil {
		m.notifier = events.Nop
	}
	if m.locator == nil {
		m.locator = geolocation.DisabledLocator{}
	}
	if m.placeholder == "" {
		m.placeholder = geocode.DefaultPlaceholder
	}
	if m.defaultTZ == "" {
		m.defaultTZ = "Europe/Moscow"
	}
	if m.geoTimeout <= 0 {
		m.geoTimeout = geolocation.DefaultTimeout
	}
	m.clocks = clock.NewRegistry(opts.ClockPeriod, opts.ClockFormat, m.publishReading)
	return m
}

// Clocks returns the clock registry owned by the manager.
func (m *Manager) Clocks() *clock.Registry {
	return m.clocks
}

// Cache returns the weather cache used by the manager.
func (m *Manager) Cache() *weathercache.Cache {
	return m.cache
}

func (m *Manager) publishReading(r clock.Reading) {
	m.notifier.Notify(events.Event{Kind: events.ClockTick, City: r.City, Reading: &r, Timestamp: r.At})
}

// Load replaces the in-memory state with the persisted one, rebuilds the
// weather cache from fetch stamps and starts a clock for every tracked
// city with a known timezone.
func (m *Manager) Load(ctx context.Context) error {
	state, err := m.store.LoadState(ctx)
	if err != nil {
		return err
	}
	state.Normalize()

	stamps, err := m.store.LoadFetchStamps(ctx)
	if err != nil {
		getLogger().Warn("Failed to load fetch stamps, starting with an empty cache", "error", err)
		stamps = nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.clocks.StopAll()
	m.state = state
	m.generations = make(map[string]uint64, len(state.Cities))
	for _, name := range state.Cities {
		m.generations[name] = m.bumpGen()
	}
	m.cache.Hydrate(stamps, state.Cities)

	for _, name := range state.Cities {
		if tz := state.CityTimezones[name]; tz != "" {
			m.startClockLocked(name, tz)
		}
	}
	m.recordTrackedLocked()

	getLogger().Info("Loaded dashboard state",
		"cities", len(state.Cities),
		"active_index", state.CurrentCityIndex)
	return nil
}

// Close stops every clock task.
func (m *Manager) Close() {
	m.clocks.StopAll()
}

func (m *Manager) bumpGen() uint64 {
	m.nextGen++
	return m.nextGen
}

// AddCity validates name through geocoding and appends it as the active
// city. The returned error wraps errors.ErrDuplicate, errors.ErrNotFound or
// errors.ErrLookup when nothing was added. A refresh failure after the add
// is returned too, with the city left tracked.
func (m *Manager) AddCity(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New(errors.NewStd("enter a city name")).
			Component("dashboard").
			Category(errors.CategoryValidation).
			Build()
	}

	m.mu.Lock()
	exists := m.state.IndexOf(name) >= 0
	m.mu.Unlock()
	if exists {
		return duplicateError(name)
	}

	loc, err := m.resolver.Resolve(ctx, name)
	if err != nil {
		getLogger().Info("City rejected", "city", name, "error", err)
		return err
	}

	m.mu.Lock()
	if m.state.IndexOf(name) >= 0 {
		m.mu.Unlock()
		return duplicateError(name)
	}
	m.state.Cities = append(m.state.Cities, name)
	m.state.CurrentCityIndex = len(m.state.Cities) - 1
	m.state.CityCoords[name] = datastore.Coordinates{Lat: loc.Lat, Lon: loc.Lon}
	if loc.Timezone != "" {
		m.state.CityTimezones[name] = loc.Timezone
	}
	m.generations[name] = m.bumpGen()
	persistErr := m.persistLocked(ctx)
	changed := m.citiesEventLocked()
	m.recordTrackedLocked()
	m.mu.Unlock()

	getLogger().Info("City added", "city", name, "lat", loc.Lat, "lon", loc.Lon)
	m.notifier.Notify(changed)
	if persistErr != nil {
		return persistErr
	}

	_, err = m.Refresh(ctx, name)
	return err
}

// RemoveCity removes the city at index. Removing the protected placeholder
// at index 0 does nothing. When the list becomes empty the returned error
// wraps errors.ErrNoCities so the caller can prompt for a new city;
// otherwise the active city is refreshed.
func (m *Manager) RemoveCity(ctx context.Context, index int) error {
	m.mu.Lock()
	if index < 0 || index >= len(m.state.Cities) {
		m.mu.Unlock()
		return indexError(index)
	}
	if m.isProtectedLocked(index) {
		m.mu.Unlock()
		getLogger().Debug("Ignoring removal of the current location entry")
		return nil
	}

	name := m.state.Cities[index]
	m.state.Cities = slices.Delete(m.state.Cities, index, index+1)
	if m.state.CurrentCityIndex >= index && m.state.CurrentCityIndex > 0 {
		m.state.CurrentCityIndex--
	}
	delete(m.state.CityCoords, name)
	delete(m.state.CityTimezones, name)
	delete(m.generations, name)
	m.cache.Delete(name)
	m.clocks.Stop(name)
	if m.metrics != nil {
		m.metrics.DeleteCity(name)
	}

	persistErr := m.persistLocked(ctx)
	if err := m.store.DeleteFetchStamp(ctx, name); err != nil {
		getLogger().Warn("Failed to delete fetch stamp", "city", name, "error", err)
	}
	changed := m.citiesEventLocked()
	m.recordTrackedLocked()
	empty := len(m.state.Cities) == 0
	var active string
	if !empty {
		active = m.state.Cities[m.state.CurrentCityIndex]
	}
	m.mu.Unlock()

	getLogger().Info("City removed", "city", name, "index", index)
	m.notifier.Notify(changed)
	if persistErr != nil {
		return persistErr
	}

	if empty {
		m.promptForCity(errors.ErrNoCities)
		return errors.New(errors.ErrNoCities).
			Component("dashboard").
			Category(errors.CategoryState).
			Build()
	}
	_, err := m.Refresh(ctx, active)
	return err
}

// SelectCity makes the city at index active and refreshes it. Selecting the
// active city again does nothing unless no snapshot is cached for it yet.
func (m *Manager) SelectCity(ctx context.Context, index int) error {
	m.mu.Lock()
	if index < 0 || index >= len(m.state.Cities) {
		m.mu.Unlock()
		return indexError(index)
	}
	name := m.state.Cities[index]
	if index == m.state.CurrentCityIndex {
		_, cached := m.cache.Get(name)
		m.mu.Unlock()
		if cached {
			return nil
		}
		_, err := m.Refresh(ctx, name)
		return err
	}

	m.state.CurrentCityIndex = index
	persistErr := m.persistLocked(ctx)
	changed := m.citiesEventLocked()
	m.mu.Unlock()

	m.notifier.Notify(changed)
	if persistErr != nil {
		return persistErr
	}
	_, err := m.Refresh(ctx, name)
	return err
}

// RefreshActive refreshes the active city. It is the retry path after a
// failed refresh.
func (m *Manager) RefreshActive(ctx context.Context) (*weather.Snapshot, error) {
	m.mu.Lock()
	if len(m.state.Cities) == 0 {
		m.mu.Unlock()
		return nil, errors.New(errors.ErrNoCities).
			Component("dashboard").
			Category(errors.CategoryState).
			Build()
	}
	name := m.state.Cities[m.state.CurrentCityIndex]
	m.mu.Unlock()

	return m.Refresh(ctx, name)
}

// Refresh returns the snapshot of a tracked city, from the cache when it is
// fresh and from the network otherwise. A failed refresh leaves the cached
// entry untouched. A result for a city removed while the request was in
// flight is discarded with an error wrapping errors.ErrCityRemoved.
func (m *Manager) Refresh(ctx context.Context, name string) (*weather.Snapshot, error) {
	m.mu.Lock()
	gen, tracked := m.generations[name]
	tracked = tracked && m.state.IndexOf(name) >= 0
	m.mu.Unlock()
	if !tracked {
		return nil, removedError(name)
	}

	if entry, fresh := m.cache.Lookup(name, m.now()); fresh {
		m.notifyUpdated(name, entry.Snapshot)
		return entry.Snapshot, nil
	}

	loc, err := m.resolver.Resolve(ctx, name)
	if err != nil {
		m.notifyFailed(name, err)
		return nil, err
	}

	snapshot, err := m.provider.FetchWeather(ctx, loc.Lat, loc.Lon)
	if err != nil {
		m.notifyFailed(name, err)
		return nil, err
	}
	snapshot = snapshot.WithCityName(name)

	tz := snapshot.Timezone
	if tz == "" {
		tz = loc.Timezone
	}
	if tz == "" {
		tz = m.defaultTZ
	}

	m.mu.Lock()
	if current, ok := m.generations[name]; !ok || current != gen || m.state.IndexOf(name) < 0 {
		m.mu.Unlock()
		getLogger().Debug("Discarding weather for removed city", "city", name)
		return nil, removedError(name)
	}
	now := m.now()
	m.cache.Put(name, snapshot, now)
	m.state.CityTimezones[name] = tz
	if _, ok := m.state.CityCoords[name]; !ok {
		m.state.CityCoords[name] = datastore.Coordinates{Lat: loc.Lat, Lon: loc.Lon}
	}
	if err := m.persistLocked(ctx); err != nil {
		getLogger().Warn("Failed to persist state after refresh", "city", name, "error", err)
	}
	stamp := datastore.FetchStamp{City: name, FetchedAtEpochMs: now.UnixMilli(), Snapshot: snapshot}
	if err := m.store.SaveFetchStamp(ctx, stamp); err != nil {
		getLogger().Warn("Failed to persist fetch stamp", "city", name, "error", err)
	}
	m.startClockLocked(name, tz)
	m.mu.Unlock()

	if m.metrics != nil {
		c := snapshot.Current
		m.metrics.UpdateCityGauges(name, float64(c.TempC), float64(c.HumidityPct), float64(c.PressureHpa), c.WindKph)
	}
	m.notifyUpdated(name, snapshot)
	return snapshot, nil
}

// startClockLocked restarts the clock of name. m.mu must be held.
func (m *Manager) startClockLocked(name, tz string) {
	var opts []clock.Option
	if c, ok := m.state.CityCoords[name]; ok {
		opts = append(opts, clock.WithCoordinates(c.Lat, c.Lon))
	}
	m.clocks.Start(name, tz, opts...)
}

// persistLocked saves a copy of the state. m.mu must be held.
func (m *Manager) persistLocked(ctx context.Context) error {
	if err := m.store.SaveState(ctx, m.state.Clone()); err != nil {
		getLogger().Error("Failed to persist dashboard state", "error", err)
		return err
	}
	return nil
}

func (m *Manager) isProtectedLocked(index int) bool {
	return index == 0 && len(m.state.Cities) > 0 && m.state.Cities[0] == m.placeholder
}

func (m *Manager) citiesEventLocked() events.Event {
	return events.Event{
		Kind:        events.CitiesChanged,
		Cities:      slices.Clone(m.state.Cities),
		ActiveIndex: m.state.CurrentCityIndex,
		Timestamp:   m.now(),
	}
}

func (m *Manager) recordTrackedLocked() {
	if m.metrics != nil {
		m.metrics.SetTrackedCities(len(m.state.Cities))
	}
}

func (m *Manager) notifyUpdated(name string, snapshot *weather.Snapshot) {
	m.notifier.Notify(events.Event{Kind: events.WeatherUpdated, City: name, Snapshot: snapshot, Timestamp: m.now()})
}

func (m *Manager) notifyFailed(name string, err error) {
	getLogger().Warn("Weather refresh failed", "city", name, "error", err)
	m.notifier.Notify(events.Event{
		Kind:      events.WeatherFailed,
		City:      name,
		Message:   errors.UserMessage(err),
		Err:       err,
		Timestamp: m.now(),
	})
}

func (m *Manager) promptForCity(cause error) {
	m.notifier.Notify(events.Event{Kind: events.LocationPrompt, Message: errors.UserMessage(cause), Err: cause, Timestamp: m.now()})
}

// IsRefreshError reports whether err came from the weather refresh that
// follows a list mutation rather than from the mutation itself. A failed
// store write is never a refresh error.
func IsRefreshError(err error) bool {
	return errors.Is(err, errors.ErrFetch) ||
		errors.Is(err, errors.ErrLookup) ||
		errors.Is(err, errors.ErrNotFound) ||
		errors.Is(err, errors.ErrCityRemoved) ||
		errors.Is(err, errors.ErrNoCities) ||
		errors.Is(err, context.DeadlineExceeded)
}

func duplicateError(name string) error {
	return errors.New(fmt.Errorf("%w: %q", errors.ErrDuplicate, name)).
		Component("dashboard").
		Category(errors.CategoryConflict).
		Context("city", name).
		Build()
}

func removedError(name string) error {
	return errors.New(fmt.Errorf("%w: %q", errors.ErrCityRemoved, name)).
		Component("dashboard").
		Category(errors.CategoryState).
		Context("city", name).
		Build()
}

func indexError(index int) error {
	return errors.Newf("no city at index %d", index).
		Component("dashboard").
		Category(errors.CategoryValidation).
		Context("index", index).
		Build()
}
