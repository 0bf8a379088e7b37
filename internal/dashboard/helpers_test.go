package dashboard

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ladyxxa/Web4/internal/datastore"
	"github.com/ladyxxa/Web4/internal/errors"
	"github.com/ladyxxa/Web4/internal/events"
	"github.com/ladyxxa/Web4/internal/geocode"
	"github.com/ladyxxa/Web4/internal/geolocation"
	"github.com/ladyxxa/Web4/internal/weather"
)

// memStore is an in-memory datastore.Interface.
type memStore struct {
	mu      sync.Mutex
	state   *datastore.AppState
	stamps  map[string]datastore.FetchStamp
	saves   int
	saveErr error
}

func newMemStore() *memStore {
	return &memStore{stamps: map[string]datastore.FetchStamp{}}
}

func (s *memStore) Open() error  { return nil }
func (s *memStore) Close() error { return nil }

func (s *memStore) LoadState(context.Context) (*datastore.AppState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return datastore.NewAppState(), nil
	}
	return s.state.Clone(), nil
}

func (s *memStore) SaveState(_ context.Context, state *datastore.AppState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.state = state.Clone()
	s.saves++
	return nil
}

func (s *memStore) SaveFetchStamp(_ context.Context, stamp datastore.FetchStamp) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamps[stamp.City] = stamp
	return nil
}

func (s *memStore) LoadFetchStamps(context.Context) ([]datastore.FetchStamp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]datastore.FetchStamp, 0, len(s.stamps))
	for _, stamp := range s.stamps {
		out = append(out, stamp)
	}
	return out, nil
}

func (s *memStore) DeleteFetchStamp(_ context.Context, city string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.stamps, city)
	return nil
}

func (s *memStore) saved() *datastore.AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return nil
	}
	return s.state.Clone()
}

func (s *memStore) stamp(city string) (datastore.FetchStamp, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stamp, ok := s.stamps[city]
	return stamp, ok
}

// fakeResolver resolves names from a fixed table and remembers results in
// an optional geocode.Locations book, the way geocode.Resolver does.
type fakeResolver struct {
	mu        sync.Mutex
	known     map[string]geocode.Location
	fail      map[string]error
	reverse   string
	calls     map[string]int
	locations geocode.Locations
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		known: map[string]geocode.Location{
			"Paris":  {Lat: 48.8534, Lon: 2.3488, Timezone: "Europe/Paris"},
			"Tokyo":  {Lat: 35.6895, Lon: 139.6917, Timezone: "Asia/Tokyo"},
			"Berlin": {Lat: 52.5244, Lon: 13.4105, Timezone: "Europe/Berlin"},
			"Москва": {Lat: 55.7522, Lon: 37.6156, Timezone: "Europe/Moscow"},
		},
		fail:  map[string]error{},
		calls: map[string]int{},
	}
}

func (r *fakeResolver) Resolve(ctx context.Context, name string) (geocode.Location, error) {
	if r.locations != nil {
		if loc, ok := r.locations.Location(name); ok {
			return loc, nil
		}
	}

	r.mu.Lock()
	r.calls[name]++
	err := r.fail[name]
	loc, ok := r.known[name]
	r.mu.Unlock()

	if err != nil {
		return geocode.Location{}, err
	}
	if !ok {
		return geocode.Location{}, errors.New(fmt.Errorf("%w: %q", errors.ErrNotFound, name)).
			Category(errors.CategoryNotFound).
			Build()
	}
	if r.locations != nil {
		_ = r.locations.StoreLocation(ctx, name, loc)
	}
	return loc, nil
}

func (r *fakeResolver) Reverse(context.Context, float64, float64) string {
	if r.reverse == "" {
		return geocode.DefaultPlaceholder
	}
	return r.reverse
}

func (r *fakeResolver) callCount(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[name]
}

// fakeProvider returns a snapshot per request and can hold a request open.
type fakeProvider struct {
	mu      sync.Mutex
	calls   int
	temp    int
	err     error
	tz      string
	gate    chan struct{}
	started chan struct{}
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{temp: 18, tz: "Europe/Paris"}
}

func (p *fakeProvider) FetchWeather(ctx context.Context, lat, lon float64) (*weather.Snapshot, error) {
	p.mu.Lock()
	p.calls++
	gate, started := p.gate, p.started
	err, temp, tz := p.err, p.temp, p.tz
	p.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	text, icon := weather.Describe(0, true, weather.MatchLanguage("en"))
	return &weather.Snapshot{
		Current: weather.Current{
			TempC:         temp,
			ConditionCode: 0,
			ConditionText: text,
			IconKind:      icon,
			WindKph:       18.0,
			IsDay:         true,
		},
		Timezone: tz,
	}, nil
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *fakeProvider) set(fn func(p *fakeProvider)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p)
}

// eventRecorder collects notifier events.
type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) Notify(e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) kinds(kind events.Kind) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	manager  *Manager
	store    *memStore
	resolver *fakeResolver
	provider *fakeProvider
	events   *eventRecorder
	now      time.Time
}

// newFixture builds a manager over fakes with the given persisted state.
func newFixture(t *testing.T, cities []string, active int) *fixture {
	t.Helper()

	f := &fixture{
		store:    newMemStore(),
		resolver: newFakeResolver(),
		provider: newFakeProvider(),
		events:   &eventRecorder{},
		now:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	if cities != nil {
		state := datastore.NewAppState()
		state.Cities = cities
		state.CurrentCityIndex = active
		f.store.state = state
	}
	f.manager = newTestManager(t, f, geolocation.StaticLocator{Position: geolocation.Position{Lat: 48.8534, Lon: 2.3488}})
	return f
}

func newTestManager(t *testing.T, f *fixture, locator geolocation.Locator) *Manager {
	t.Helper()

	m := New(Options{
		Store:              f.store,
		Resolver:           f.resolver,
		Provider:           f.provider,
		Locator:            locator,
		Notifier:           f.events,
		GeolocationTimeout: time.Second,
	})
	m.now = func() time.Time { return f.now }
	f.resolver.locations = m
	t.Cleanup(m.Close)

	if err := m.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return m
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}
