package dashboard

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ladyxxa/Web4/internal/errors"
	"github.com/ladyxxa/Web4/internal/events"
	"github.com/ladyxxa/Web4/internal/geocode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestAddCity(t *testing.T) {
	f := newFixture(t, []string{"Paris"}, 0)
	ctx := context.Background()

	require.NoError(t, f.manager.AddCity(ctx, "  Tokyo "))

	assert.Equal(t, []string{"Paris", "Tokyo"}, f.manager.Cities())
	assert.Equal(t, 1, f.manager.ActiveIndex())

	saved := f.store.saved()
	require.NotNil(t, saved)
	assert.Equal(t, []string{"Paris", "Tokyo"}, saved.Cities)
	assert.Equal(t, 1, saved.CurrentCityIndex)
	assert.InDelta(t, 35.6895, saved.CityCoords["Tokyo"].Lat, 1e-9)

	// The new city is refreshed right away
	assert.Equal(t, 1, f.provider.callCount())
	entry, ok := f.manager.Cache().Get("Tokyo")
	require.True(t, ok)
	assert.Equal(t, "Tokyo", entry.Snapshot.CityName)
	_, ok = f.store.stamp("Tokyo")
	assert.True(t, ok)
	assert.True(t, f.manager.Clocks().Running("Tokyo"))
	assert.NotEmpty(t, f.events.kinds(events.CitiesChanged))
}

func TestAddCityDuplicate(t *testing.T) {
	f := newFixture(t, nil, 0)
	ctx := context.Background()

	for _, name := range []string{"Paris", "Tokyo", "Москва"} {
		require.NoError(t, f.manager.AddCity(ctx, name))
		before := len(f.manager.Cities())

		err := f.manager.AddCity(ctx, name)
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrDuplicate)
		assert.True(t, errors.IsCategory(err, errors.CategoryConflict))
		assert.Len(t, f.manager.Cities(), before)
	}

	// Matching is case-sensitive
	f.resolver.known["paris"] = f.resolver.known["Paris"]
	require.NoError(t, f.manager.AddCity(ctx, "paris"))
}

func TestAddCityRejected(t *testing.T) {
	f := newFixture(t, []string{"Paris"}, 0)
	ctx := context.Background()
	savesBefore := f.store.saves

	err := f.manager.AddCity(ctx, "Atlantis")
	assert.ErrorIs(t, err, errors.ErrNotFound)

	f.resolver.fail["Berlin"] = errors.New(fmt.Errorf("%w: status 500", errors.ErrLookup)).Category(errors.CategoryLookup).Build()
	err = f.manager.AddCity(ctx, "Berlin")
	assert.ErrorIs(t, err, errors.ErrLookup)

	err = f.manager.AddCity(ctx, "   ")
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))

	assert.Equal(t, []string{"Paris"}, f.manager.Cities())
	assert.Equal(t, savesBefore, f.store.saves, "rejected adds persist nothing")
	assert.Zero(t, f.provider.callCount())
}

func TestAddCityFetchFailureKeepsCity(t *testing.T) {
	f := newFixture(t, nil, 0)
	f.provider.set(func(p *fakeProvider) { p.err = fmt.Errorf("%w: status 503", errors.ErrFetch) })

	err := f.manager.AddCity(context.Background(), "Paris")
	assert.ErrorIs(t, err, errors.ErrFetch)
	assert.Equal(t, []string{"Paris"}, f.manager.Cities())

	failed := f.events.kinds(events.WeatherFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, "Error while loading weather data", failed[0].Message)
}

func TestRemoveProtectedPlaceholder(t *testing.T) {
	f := newFixture(t, []string{geocode.DefaultPlaceholder, "Paris", "Tokyo"}, 2)

	require.NoError(t, f.manager.RemoveCity(context.Background(), 0))
	assert.Len(t, f.manager.Cities(), 3)
	assert.Equal(t, 2, f.manager.ActiveIndex())
}

func TestRemoveActiveLastCity(t *testing.T) {
	f := newFixture(t, []string{"Berlin", "Paris", "Tokyo"}, 2)
	ctx := context.Background()

	// Warm Tokyo so removal has something to cascade
	_, err := f.manager.Refresh(ctx, "Tokyo")
	require.NoError(t, err)
	require.True(t, f.manager.Clocks().Running("Tokyo"))

	require.NoError(t, f.manager.RemoveCity(ctx, 2))

	assert.Equal(t, []string{"Berlin", "Paris"}, f.manager.Cities())
	assert.Equal(t, 1, f.manager.ActiveIndex())

	_, ok := f.manager.Cache().Get("Tokyo")
	assert.False(t, ok)
	assert.False(t, f.manager.Clocks().Running("Tokyo"))
	_, ok = f.store.stamp("Tokyo")
	assert.False(t, ok)

	saved := f.store.saved()
	assert.NotContains(t, saved.CityCoords, "Tokyo")
	assert.NotContains(t, saved.CityTimezones, "Tokyo")
	assert.Equal(t, 1, saved.CurrentCityIndex)

	// The re-indexed active city is refreshed
	_, ok = f.manager.Cache().Get("Paris")
	assert.True(t, ok)
}

func TestRemoveIndexAdjustment(t *testing.T) {
	tests := []struct {
		name       string
		active     int
		remove     int
		wantActive int
	}{
		{"before active", 2, 1, 1},
		{"after active", 0, 2, 0},
		{"active at zero", 0, 0, 0},
		{"active is removed middle", 1, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, []string{"Berlin", "Paris", "Tokyo"}, tt.active)
			require.NoError(t, f.manager.RemoveCity(context.Background(), tt.remove))
			assert.Equal(t, tt.wantActive, f.manager.ActiveIndex())
			assert.Len(t, f.manager.Cities(), 2)
		})
	}
}

func TestRemoveLastCityPrompts(t *testing.T) {
	f := newFixture(t, []string{"Paris"}, 0)

	err := f.manager.RemoveCity(context.Background(), 0)
	assert.ErrorIs(t, err, errors.ErrNoCities)
	assert.Empty(t, f.manager.Cities())
	assert.Len(t, f.events.kinds(events.LocationPrompt), 1)
	assert.Zero(t, f.provider.callCount())
}

func TestRemoveOutOfRange(t *testing.T) {
	f := newFixture(t, []string{"Paris"}, 0)

	err := f.manager.RemoveCity(context.Background(), 3)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
	err = f.manager.RemoveCity(context.Background(), -1)
	assert.Error(t, err)
}

func TestSelectCity(t *testing.T) {
	f := newFixture(t, []string{"Paris", "Tokyo"}, 0)
	ctx := context.Background()

	require.NoError(t, f.manager.SelectCity(ctx, 1))
	assert.Equal(t, 1, f.manager.ActiveIndex())
	assert.Equal(t, 1, f.store.saved().CurrentCityIndex)
	assert.Equal(t, 1, f.provider.callCount())

	// Already active and cached: nothing happens
	saves := f.store.saves
	require.NoError(t, f.manager.SelectCity(ctx, 1))
	assert.Equal(t, 1, f.provider.callCount())
	assert.Equal(t, saves, f.store.saves)

	// Switching back within the TTL is served from the network once, then cache
	require.NoError(t, f.manager.SelectCity(ctx, 0))
	require.NoError(t, f.manager.SelectCity(ctx, 1))
	assert.Equal(t, 2, f.provider.callCount())

	assert.Error(t, f.manager.SelectCity(ctx, 5))
}

func TestSelectCityEndToEnd(t *testing.T) {
	f := newFixture(t, []string{"Paris"}, 0)

	require.NoError(t, f.manager.SelectCity(context.Background(), 0))

	assert.Equal(t, 1, f.resolver.callCount("Paris"))
	assert.Equal(t, 1, f.provider.callCount())
	entry, ok := f.manager.Cache().Get("Paris")
	require.True(t, ok)
	assert.Equal(t, f.now.UnixMilli(), entry.FetchedAtEpochMs)

	// Coordinates are remembered; no second resolve after the TTL
	f.advance(10 * time.Minute)
	_, err := f.manager.RefreshActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, f.resolver.callCount("Paris"))
	assert.Equal(t, 2, f.provider.callCount())
}

func TestRefreshUsesCacheWithinTTL(t *testing.T) {
	f := newFixture(t, []string{"Paris"}, 0)
	ctx := context.Background()

	first, err := f.manager.Refresh(ctx, "Paris")
	require.NoError(t, err)

	f.advance(599_999 * time.Millisecond)
	second, err := f.manager.Refresh(ctx, "Paris")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.provider.callCount())

	f.advance(time.Millisecond)
	_, err = f.manager.Refresh(ctx, "Paris")
	require.NoError(t, err)
	assert.Equal(t, 2, f.provider.callCount())
}

func TestRefreshFailureKeepsStaleEntry(t *testing.T) {
	f := newFixture(t, []string{"Paris"}, 0)
	ctx := context.Background()

	_, err := f.manager.Refresh(ctx, "Paris")
	require.NoError(t, err)
	stamp, _ := f.store.stamp("Paris")

	f.advance(time.Hour)
	f.provider.set(func(p *fakeProvider) { p.err = fmt.Errorf("%w: timeout", errors.ErrFetch) })

	_, err = f.manager.RefreshActive(ctx)
	assert.ErrorIs(t, err, errors.ErrFetch)

	entry, ok := f.manager.Cache().Get("Paris")
	require.True(t, ok, "stale data is kept on failure")
	assert.Equal(t, 18, entry.Snapshot.Current.TempC)
	after, _ := f.store.stamp("Paris")
	assert.Equal(t, stamp.FetchedAtEpochMs, after.FetchedAtEpochMs)

	// Retrying is the same refresh call
	f.provider.set(func(p *fakeProvider) { p.err = nil; p.temp = 21 })
	snapshot, err := f.manager.RefreshActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 21, snapshot.Current.TempC)
}

func TestRefreshUntrackedCity(t *testing.T) {
	f := newFixture(t, []string{"Paris"}, 0)

	_, err := f.manager.Refresh(context.Background(), "Tokyo")
	assert.ErrorIs(t, err, errors.ErrCityRemoved)

	empty := newFixture(t, nil, 0)
	_, err = empty.manager.RefreshActive(context.Background())
	assert.ErrorIs(t, err, errors.ErrNoCities)
}

func TestRefreshDiscardsResultForRemovedCity(t *testing.T) {
	f := newFixture(t, []string{"Paris", "Tokyo"}, 0)
	ctx := context.Background()

	gate := make(chan struct{})
	started := make(chan struct{}, 1)
	f.provider.set(func(p *fakeProvider) { p.gate, p.started = gate, started })

	done := make(chan error, 1)
	go func() {
		_, err := f.manager.Refresh(ctx, "Tokyo")
		done <- err
	}()
	<-started

	f.provider.set(func(p *fakeProvider) { p.gate, p.started = nil, nil })
	require.NoError(t, f.manager.RemoveCity(ctx, 1))
	close(gate)

	err := <-done
	assert.ErrorIs(t, err, errors.ErrCityRemoved)
	_, ok := f.manager.Cache().Get("Tokyo")
	assert.False(t, ok)
	_, ok = f.store.stamp("Tokyo")
	assert.False(t, ok)
	assert.False(t, f.manager.Clocks().Running("Tokyo"))
}

func TestRefreshDiscardsResultAfterReAdd(t *testing.T) {
	f := newFixture(t, []string{"Paris", "Tokyo"}, 0)
	ctx := context.Background()

	gate := make(chan struct{})
	started := make(chan struct{}, 1)
	f.provider.set(func(p *fakeProvider) { p.gate, p.started, p.temp = gate, started, 5 })

	done := make(chan error, 1)
	go func() {
		_, err := f.manager.Refresh(ctx, "Tokyo")
		done <- err
	}()
	<-started

	f.provider.set(func(p *fakeProvider) { p.gate, p.started, p.temp = nil, nil, 25 })
	require.NoError(t, f.manager.RemoveCity(ctx, 1))
	require.NoError(t, f.manager.AddCity(ctx, "Tokyo"))
	close(gate)

	assert.ErrorIs(t, <-done, errors.ErrCityRemoved)
	entry, ok := f.manager.Cache().Get("Tokyo")
	require.True(t, ok)
	assert.Equal(t, 25, entry.Snapshot.Current.TempC, "the late result of the old generation is dropped")
}

func TestLoadRestoresState(t *testing.T) {
	f := newFixture(t, []string{"Paris", "Tokyo"}, 1)
	ctx := context.Background()

	_, err := f.manager.Refresh(ctx, "Tokyo")
	require.NoError(t, err)

	// A second manager over the same store starts warm
	restarted := newTestManager(t, f, nil)
	assert.Equal(t, []string{"Paris", "Tokyo"}, restarted.Cities())
	assert.Equal(t, 1, restarted.ActiveIndex())

	_, ok := restarted.Cache().Get("Tokyo")
	assert.True(t, ok)
	assert.True(t, restarted.Clocks().Running("Tokyo"))
	assert.False(t, restarted.Clocks().Running("Paris"), "no timezone known yet")

	_, err = restarted.RefreshActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, f.provider.callCount(), "hydrated entry is fresh")
}

func TestPersistFailureIsReturned(t *testing.T) {
	f := newFixture(t, []string{"Paris", "Tokyo"}, 0)
	f.store.saveErr = fmt.Errorf("disk full")

	err := f.manager.SelectCity(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, 1, f.manager.ActiveIndex())
}

func TestIsRefreshError(t *testing.T) {
	f := newFixture(t, []string{"Paris", "Tokyo"}, 0)
	f.provider.set(func(p *fakeProvider) { p.err = fmt.Errorf("%w: status 503", errors.ErrFetch) })

	err := f.manager.SelectCity(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, IsRefreshError(err), "failed fetch after a saved selection")

	f.store.saveErr = fmt.Errorf("disk full")
	err = f.manager.SelectCity(context.Background(), 0)
	require.Error(t, err)
	assert.False(t, IsRefreshError(err), "failed save is not a refresh failure")

	err = f.manager.AddCity(context.Background(), "Paris")
	assert.False(t, IsRefreshError(err), "duplicate")
}
