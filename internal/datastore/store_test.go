package datastore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ladyxxa/Web4/internal/conf"
	"github.com/ladyxxa/Web4/internal/weather"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestSQLiteStore opens a SQLite store in a temporary directory.
func newTestSQLiteStore(t *testing.T) Interface {
	t.Helper()

	settings := conf.NewDefaultSettings()
	settings.Store.Backend = "sqlite"
	settings.Store.SQLite.Path = filepath.Join(t.TempDir(), "state.db")

	store, err := New(settings, nil)
	require.NoError(t, err)
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testSnapshot(city string) *weather.Snapshot {
	return &weather.Snapshot{
		CityName: city,
		Current: weather.Current{
			TempC:         18,
			ConditionCode: 0,
			ConditionText: "Clear sky",
			IconKind:      weather.IconClearDay,
			WindKph:       18.0,
			IsDay:         true,
		},
		Forecast: []weather.ForecastDay{
			{Date: "2024-05-01", MaxTempC: 18, MinTempC: 10, ConditionCode: 0},
		},
		Timezone: "Europe/Paris",
	}
}

// runStoreConformance exercises the contract every backend must satisfy.
func runStoreConformance(t *testing.T, store Interface) {
	t.Helper()
	ctx := context.Background()

	t.Run("empty state", func(t *testing.T) {
		state, err := store.LoadState(ctx)
		require.NoError(t, err)
		assert.Empty(t, state.Cities)
		assert.NotNil(t, state.CityCoords)
		assert.NotNil(t, state.CityTimezones)
	})

	t.Run("state round trip", func(t *testing.T) {
		state := NewAppState()
		state.Cities = []string{"Current Location", "Paris", "Tokyo"}
		state.CurrentCityIndex = 2
		state.CityCoords["Paris"] = Coordinates{Lat: 48.8566, Lon: 2.3522}
		state.CityTimezones["Paris"] = "Europe/Paris"

		require.NoError(t, store.SaveState(ctx, state))

		loaded, err := store.LoadState(ctx)
		require.NoError(t, err)
		assert.Equal(t, state, loaded)

		// Overwrite replaces the single record
		state.Cities = []string{"Paris"}
		state.CurrentCityIndex = 0
		require.NoError(t, store.SaveState(ctx, state))
		loaded, err = store.LoadState(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Paris"}, loaded.Cities)
	})

	t.Run("fetch stamps", func(t *testing.T) {
		require.NoError(t, store.SaveFetchStamp(ctx, FetchStamp{City: "Paris", FetchedAtEpochMs: 1000, Snapshot: testSnapshot("Paris")}))
		require.NoError(t, store.SaveFetchStamp(ctx, FetchStamp{City: "Tokyo", FetchedAtEpochMs: 2000}))
		require.NoError(t, store.SaveFetchStamp(ctx, FetchStamp{City: "Paris", FetchedAtEpochMs: 3000, Snapshot: testSnapshot("Paris")}))

		stamps, err := store.LoadFetchStamps(ctx)
		require.NoError(t, err)
		require.Len(t, stamps, 2)

		byCity := map[string]FetchStamp{}
		for _, s := range stamps {
			byCity[s.City] = s
		}
		assert.Equal(t, int64(3000), byCity["Paris"].FetchedAtEpochMs)
		require.NotNil(t, byCity["Paris"].Snapshot)
		assert.Equal(t, testSnapshot("Paris"), byCity["Paris"].Snapshot)
		assert.Nil(t, byCity["Tokyo"].Snapshot)

		require.NoError(t, store.DeleteFetchStamp(ctx, "Paris"))
		require.NoError(t, store.DeleteFetchStamp(ctx, "Nowhere"), "deleting a missing stamp is not an error")

		stamps, err = store.LoadFetchStamps(ctx)
		require.NoError(t, err)
		require.Len(t, stamps, 1)
		assert.Equal(t, "Tokyo", stamps[0].City)
	})
}

func TestSQLiteStoreConformance(t *testing.T) {
	runStoreConformance(t, newTestSQLiteStore(t))
}

func TestSQLiteStatePersistsAcrossReopen(t *testing.T) {
	settings := conf.NewDefaultSettings()
	settings.Store.SQLite.Path = filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()

	first, err := New(settings, nil)
	require.NoError(t, err)
	require.NoError(t, first.Open())

	state := NewAppState()
	state.Cities = []string{"Москва"}
	state.CityTimezones["Москва"] = "Europe/Moscow"
	require.NoError(t, first.SaveState(ctx, state))
	require.NoError(t, first.Close())

	second, err := New(settings, nil)
	require.NoError(t, err)
	require.NoError(t, second.Open())
	t.Cleanup(func() { _ = second.Close() })

	loaded, err := second.LoadState(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Москва"}, loaded.Cities)
	assert.Equal(t, "Europe/Moscow", loaded.CityTimezones["Москва"])
}

func TestUnopenedStoreFails(t *testing.T) {
	t.Parallel()

	store := &SQLiteStore{}
	_, err := store.LoadState(context.Background())
	assert.Error(t, err)
}

func TestNewUnknownBackend(t *testing.T) {
	t.Parallel()

	settings := conf.NewDefaultSettings()
	settings.Store.Backend = "etcd"
	_, err := New(settings, nil)
	assert.Error(t, err)
}

func TestAppStateNormalize(t *testing.T) {
	t.Parallel()

	state := (&AppState{Cities: []string{"Paris"}, CurrentCityIndex: 5}).Normalize()
	assert.Equal(t, 0, state.CurrentCityIndex)
	assert.NotNil(t, state.CityCoords)

	clone := state.Clone()
	clone.Cities[0] = "Tokyo"
	clone.CityCoords["Tokyo"] = Coordinates{Lat: 1}
	assert.Equal(t, "Paris", state.Cities[0])
	assert.NotContains(t, state.CityCoords, "Tokyo")
	assert.Equal(t, 0, state.IndexOf("Paris"))
	assert.Equal(t, -1, state.IndexOf("Tokyo"))
}
