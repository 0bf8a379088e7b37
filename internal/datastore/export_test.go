package datastore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ladyxxa/Web4/internal/conf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLiteAt(t *testing.T, path string) Interface {
	t.Helper()

	settings := conf.NewDefaultSettings()
	settings.Store.SQLite.Path = path
	store, err := New(settings, nil)
	require.NoError(t, err)
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCopyAndVerify(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	src := openSQLiteAt(t, filepath.Join(dir, "src.db"))
	dst := openSQLiteAt(t, filepath.Join(dir, "dst.db"))

	state := NewAppState()
	state.Cities = []string{"Paris", "Tokyo"}
	state.CurrentCityIndex = 1
	state.CityTimezones["Tokyo"] = "Asia/Tokyo"
	require.NoError(t, src.SaveState(ctx, state))
	require.NoError(t, src.SaveFetchStamp(ctx, FetchStamp{City: "Paris", FetchedAtEpochMs: 10, Snapshot: testSnapshot("Paris")}))
	require.NoError(t, src.SaveFetchStamp(ctx, FetchStamp{City: "Oslo", FetchedAtEpochMs: 20}))

	// Stale stamp in the target is removed by clean
	require.NoError(t, dst.SaveFetchStamp(ctx, FetchStamp{City: "Berlin", FetchedAtEpochMs: 5}))

	assert.Error(t, Verify(ctx, src, dst), "stores differ before the copy")

	stats, err := Copy(ctx, src, dst, true)
	require.NoError(t, err)
	assert.Equal(t, ExportStats{Cities: 2, FetchStamps: 1, Skipped: 1}, stats)

	require.NoError(t, Verify(ctx, src, dst))

	stamps, err := dst.LoadFetchStamps(ctx)
	require.NoError(t, err)
	require.Len(t, stamps, 1)
	assert.Equal(t, "Paris", stamps[0].City)
	assert.Equal(t, testSnapshot("Paris"), stamps[0].Snapshot)
}

func TestVerifyDetectsStampDifference(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	a := openSQLiteAt(t, filepath.Join(dir, "a.db"))
	b := openSQLiteAt(t, filepath.Join(dir, "b.db"))

	state := NewAppState()
	state.Cities = []string{"Paris"}
	require.NoError(t, a.SaveState(ctx, state))
	require.NoError(t, b.SaveState(ctx, state))
	require.NoError(t, a.SaveFetchStamp(ctx, FetchStamp{City: "Paris", FetchedAtEpochMs: 1}))
	require.NoError(t, b.SaveFetchStamp(ctx, FetchStamp{City: "Paris", FetchedAtEpochMs: 2}))

	assert.ErrorContains(t, Verify(ctx, a, b), "differs")
}
