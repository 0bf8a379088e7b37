// Package geocode turns city names into coordinates and back.
//
// Forward lookups use the Open-Meteo geocoding API and are remembered in a
// Locations book so a tracked city is resolved over the network only once.
// Reverse lookups use Nominatim and are rate limited to its usage policy.
package geocode

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ladyxxa/Web4/internal/conf"
	"github.com/ladyxxa/Web4/internal/logging"
	"github.com/ladyxxa/Web4/internal/observability/metrics"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

const (
	// DefaultPlaceholder labels the device-location entry.
	DefaultPlaceholder = "Current Location"
	// RussianPlaceholder is the placeholder label for the ru locale.
	RussianPlaceholder = "Текущее местоположение"

	userAgent          = "weatherdash https://github.com/ladyxxa/Web4"
	suggestionCacheTTL = 10 * time.Minute
	minSuggestQuery    = 2
)

// Location is a resolved city position. Timezone is an IANA name.
type Location struct {
	Name     string  `json:"name,omitempty"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Timezone string  `json:"timezone"`
}

// Locations remembers resolved positions. Implementations persist them.
type Locations interface {
	Location(name string) (Location, bool)
	StoreLocation(ctx context.Context, name string, loc Location) error
}

// Resolver performs forward, reverse and suggestion lookups.
type Resolver struct {
	endpoint        string
	reverseEndpoint string
	language        string
	defaultTimezone string
	placeholder     string
	defaultCities   []string
	suggestCount    int
	suggestLimit    int

	client    *http.Client
	limiter   *rate.Limiter
	locations Locations
	suggested *cache.Cache
	metrics   *metrics.WeatherMetrics
}

func getLogger() *slog.Logger {
	return logging.ForService("geocode")
}

// PlaceholderLabel returns the placeholder city name for settings. The
// default English label is swapped for the Russian one under the ru locale.
func PlaceholderLabel(settings *conf.Settings) string {
	name := strings.TrimSpace(settings.Dashboard.PlaceholderName)
	if name == "" {
		name = DefaultPlaceholder
	}
	if name == DefaultPlaceholder && strings.HasPrefix(strings.ToLower(settings.Main.Locale), "ru") {
		return RussianPlaceholder
	}
	return name
}

// NewResolver creates a resolver from settings. locations may be nil, in
// which case every Resolve goes to the network.
func NewResolver(settings *conf.Settings, locations Locations, m *metrics.WeatherMetrics) *Resolver {
	g := settings.Geocoding

	limit := rate.Limit(g.RateLimit)
	if g.RateLimit <= 0 {
		limit = rate.Inf
	}
	timeout := g.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	count, shown := g.SuggestionCount, g.SuggestionLimit
	if count <= 0 {
		count = 10
	}
	if shown <= 0 || shown > count {
		shown = min(8, count)
	}
	tz := settings.Dashboard.DefaultTimezone
	if tz == "" {
		tz = "Europe/Moscow"
	}
	lang := settings.Main.Locale
	if lang == "" {
		lang = "en"
	}

	return &Resolver{
		endpoint:        g.Endpoint,
		reverseEndpoint: g.ReverseEndpoint,
		language:        lang,
		defaultTimezone: tz,
		placeholder:     PlaceholderLabel(settings),
		defaultCities:   settings.Dashboard.DefaultCities,
		suggestCount:    count,
		suggestLimit:    shown,
		client:          &http.Client{Timeout: timeout},
		limiter:         rate.NewLimiter(limit, 1),
		locations:       locations,
		suggested:       cache.New(suggestionCacheTTL, 2*suggestionCacheTTL),
		metrics:         m,
	}
}

// SetLocations replaces the location book used by Resolve.
func (r *Resolver) SetLocations(locations Locations) {
	r.locations = locations
}

// Placeholder returns the label used when no place name is known.
func (r *Resolver) Placeholder() string {
	return r.placeholder
}

func (r *Resolver) record(kind string, err error) {
	if r.metrics == nil {
		return
	}
	status := metrics.LabelSuccess
	if err != nil {
		status = metrics.LabelError
	}
	r.metrics.RecordGeocodeRequest(kind, status)
}
