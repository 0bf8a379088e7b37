// Package weathercache keeps the last fetched snapshot of every tracked city
// in memory and decides whether it is still fresh enough to serve.
package weathercache

import (
	"log/slog"
	"time"

	"github.com/ladyxxa/Web4/internal/datastore"
	"github.com/ladyxxa/Web4/internal/logging"
	"github.com/ladyxxa/Web4/internal/observability/metrics"
	"github.com/ladyxxa/Web4/internal/weather"
	"github.com/patrickmn/go-cache"
)

// DefaultTTL is how long a snapshot is served without refetching.
const DefaultTTL = 10 * time.Minute

// Entry is the last fetched snapshot of a city and when it was fetched.
type Entry struct {
	Snapshot         *weather.Snapshot `json:"snapshot"`
	FetchedAtEpochMs int64             `json:"fetchedAtEpochMs"`
}

// Cache maps a city name to its Entry. Entries never expire on their own;
// only Delete removes them, staleness is a read-time decision.
type Cache struct {
	items   *cache.Cache
	ttl     time.Duration
	metrics *metrics.WeatherMetrics
}

func getLogger() *slog.Logger {
	return logging.ForService("weathercache")
}

// New creates an empty cache. A non-positive ttl selects DefaultTTL.
func New(ttl time.Duration, m *metrics.WeatherMetrics) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		items:   cache.New(cache.NoExpiration, 0),
		ttl:     ttl,
		metrics: m,
	}
}

// TTL returns the freshness window
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns the entry stored for name
func (c *Cache) Get(name string) (Entry, bool) {
	v, ok := c.items.Get(name)
	if !ok {
		return Entry{}, false
	}
	return v.(Entry), true
}

// Put stores snapshot for name with now as the fetch time.
func (c *Cache) Put(name string, snapshot *weather.Snapshot, now time.Time) Entry {
	entry := Entry{Snapshot: snapshot, FetchedAtEpochMs: now.UnixMilli()}
	c.items.Set(name, entry, cache.NoExpiration)
	return entry
}

// Delete removes the entry for name
func (c *Cache) Delete(name string) {
	c.items.Delete(name)
}

// Len returns the number of cached cities
func (c *Cache) Len() int {
	return c.items.ItemCount()
}

// IsFresh reports whether entry was fetched less than the TTL before nowMs.
func (c *Cache) IsFresh(entry Entry, nowMs int64) bool {
	return entry.Snapshot != nil && nowMs-entry.FetchedAtEpochMs < c.ttl.Milliseconds()
}

// Lookup returns the entry for name only when it is fresh at now, and
// records the outcome as a hit, miss or stale lookup.
func (c *Cache) Lookup(name string, now time.Time) (Entry, bool) {
	entry, ok := c.Get(name)
	switch {
	case !ok:
		c.record(metrics.LabelMiss)
		return Entry{}, false
	case !c.IsFresh(entry, now.UnixMilli()):
		c.record(metrics.LabelStale)
		return entry, false
	default:
		c.record(metrics.LabelHit)
		return entry, true
	}
}

func (c *Cache) record(result string) {
	if c.metrics != nil {
		c.metrics.RecordCacheLookup(result)
	}
}

// Hydrate fills the cache from persisted fetch stamps. Stamps without a
// snapshot or for cities outside tracked are skipped. It returns the number
// of entries loaded.
func (c *Cache) Hydrate(stamps []datastore.FetchStamp, tracked []string) int {
	keep := make(map[string]struct{}, len(tracked))
	for _, name := range tracked {
		keep[name] = struct{}{}
	}

	loaded := 0
	for _, stamp := range stamps {
		if stamp.Snapshot == nil {
			continue
		}
		if _, ok := keep[stamp.City]; !ok {
			getLogger().Debug("Skipping fetch stamp of untracked city", "city", stamp.City)
			continue
		}
		c.items.Set(stamp.City, Entry{Snapshot: stamp.Snapshot, FetchedAtEpochMs: stamp.FetchedAtEpochMs}, cache.NoExpiration)
		loaded++
	}
	getLogger().Info("Weather cache hydrated", "entries", loaded, "stamps", len(stamps))
	return loaded
}
