package datastore

import (
	"context"
	"fmt"
	"reflect"
)

// ExportStats summarizes a Copy.
type ExportStats struct {
	Cities      int
	FetchStamps int
	Skipped     int
}

// Copy writes the state and every fetch stamp of a tracked city from src
// into dst. Stamps for cities no longer tracked are skipped. With clean
// set, stamps already in dst that src does not carry are deleted.
func Copy(ctx context.Context, src, dst Interface, clean bool) (ExportStats, error) {
	var stats ExportStats

	state, err := src.LoadState(ctx)
	if err != nil {
		return stats, fmt.Errorf("load source state: %w", err)
	}
	state.Normalize()

	stamps, err := src.LoadFetchStamps(ctx)
	if err != nil {
		return stats, fmt.Errorf("load source fetch stamps: %w", err)
	}

	if clean {
		existing, err := dst.LoadFetchStamps(ctx)
		if err != nil {
			return stats, fmt.Errorf("load target fetch stamps: %w", err)
		}
		for _, s := range existing {
			if state.IndexOf(s.City) >= 0 {
				continue
			}
			if err := dst.DeleteFetchStamp(ctx, s.City); err != nil {
				return stats, fmt.Errorf("delete target fetch stamp %q: %w", s.City, err)
			}
		}
	}

	if err := dst.SaveState(ctx, state); err != nil {
		return stats, fmt.Errorf("save target state: %w", err)
	}
	stats.Cities = len(state.Cities)

	for _, s := range stamps {
		if state.IndexOf(s.City) < 0 {
			stats.Skipped++
			continue
		}
		if err := dst.SaveFetchStamp(ctx, s); err != nil {
			return stats, fmt.Errorf("save target fetch stamp %q: %w", s.City, err)
		}
		stats.FetchStamps++
	}

	getLogger().Info("Store export complete",
		"cities", stats.Cities,
		"fetch_stamps", stats.FetchStamps,
		"skipped", stats.Skipped)
	return stats, nil
}

// Verify reports the first difference between the state and tracked
// fetch stamps of a and b.
func Verify(ctx context.Context, a, b Interface) error {
	stateA, err := a.LoadState(ctx)
	if err != nil {
		return err
	}
	stateB, err := b.LoadState(ctx)
	if err != nil {
		return err
	}
	if !reflect.DeepEqual(stateA.Normalize(), stateB.Normalize()) {
		return fmt.Errorf("state mismatch: %v vs %v", stateA.Cities, stateB.Cities)
	}

	stampsA, err := trackedStamps(ctx, a, stateA)
	if err != nil {
		return err
	}
	stampsB, err := trackedStamps(ctx, b, stateB)
	if err != nil {
		return err
	}
	if len(stampsA) != len(stampsB) {
		return fmt.Errorf("fetch stamp count mismatch: %d vs %d", len(stampsA), len(stampsB))
	}
	for city, s := range stampsA {
		other, ok := stampsB[city]
		if !ok {
			return fmt.Errorf("fetch stamp for %q missing from target", city)
		}
		if s.FetchedAtEpochMs != other.FetchedAtEpochMs {
			return fmt.Errorf("fetch stamp for %q differs: %d vs %d", city, s.FetchedAtEpochMs, other.FetchedAtEpochMs)
		}
	}
	return nil
}

func trackedStamps(ctx context.Context, store Interface, state *AppState) (map[string]FetchStamp, error) {
	stamps, err := store.LoadFetchStamps(ctx)
	if err != nil {
		return nil, err
	}
	byCity := make(map[string]FetchStamp, len(stamps))
	for _, s := range stamps {
		if state.IndexOf(s.City) >= 0 {
			byCity[s.City] = s
		}
	}
	return byCity, nil
}
