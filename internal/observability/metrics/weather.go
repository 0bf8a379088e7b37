// Package metrics provides weather service metrics for observability
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// WeatherMetrics contains Prometheus metrics for weather, geocoding and cache operations
type WeatherMetrics struct {
	registry *prometheus.Registry

	// Weather data fetch metrics
	weatherFetchesTotal     *prometheus.CounterVec
	weatherFetchErrorsTotal *prometheus.CounterVec
	weatherFetchDuration    *prometheus.HistogramVec

	// Weather provider metrics
	weatherProviderRequestsTotal *prometheus.CounterVec

	// Geocoding metrics
	geocodeRequestsTotal *prometheus.CounterVec

	// Cache metrics
	cacheLookupsTotal *prometheus.CounterVec

	// Store operations metrics
	storeOperationsTotal *prometheus.CounterVec
	storeDuration        *prometheus.HistogramVec

	// Current conditions per tracked city
	trackedCitiesGauge prometheus.Gauge
	temperatureGauge   *prometheus.GaugeVec
	humidityGauge      *prometheus.GaugeVec
	pressureGauge      *prometheus.GaugeVec
	windSpeedGauge     *prometheus.GaugeVec
}

// NewWeatherMetrics creates and registers new weather metrics
func NewWeatherMetrics(registry *prometheus.Registry) (*WeatherMetrics, error) {
	m := &WeatherMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// initMetrics initializes all Prometheus metrics
func (m *WeatherMetrics) initMetrics() {
	m.weatherFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_fetches_total",
			Help: "Total number of weather data fetch operations",
		},
		[]string{"provider", "status"},
	)

	m.weatherFetchErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_fetch_errors_total",
			Help: "Total number of weather fetch errors",
		},
		[]string{"provider", "error_type"},
	)

	m.weatherFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weather_fetch_duration_seconds",
			Help:    "Time taken to fetch weather data",
			Buckets: prometheus.ExponentialBuckets(BucketStart100ms, BucketFactor2, BucketCount10),
		},
		[]string{"provider"},
	)

	m.weatherProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_provider_requests_total",
			Help: "Total number of requests to weather providers",
		},
		[]string{"provider", "method", "status_code"},
	)

	m.geocodeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_geocode_requests_total",
			Help: "Total number of geocoding requests",
		},
		[]string{"kind", "status"}, // kind: forward, reverse, suggest
	)

	m.cacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_cache_lookups_total",
			Help: "Total number of weather cache lookups by result",
		},
		[]string{"result"}, // result: hit, miss, stale
	)

	m.storeOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_store_operations_total",
			Help: "Total number of persistent store operations",
		},
		[]string{"operation", "status"},
	)

	m.storeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weather_store_duration_seconds",
			Help:    "Time taken for persistent store operations",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount10),
		},
		[]string{"operation"},
	)

	m.trackedCitiesGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "weather_tracked_cities",
		Help: "Number of tracked cities",
	})

	m.temperatureGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "weather_temperature_celsius",
		Help: "Current temperature in Celsius",
	}, []string{"city"})

	m.humidityGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "weather_humidity_percentage",
		Help: "Current humidity percentage",
	}, []string{"city"})

	m.pressureGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "weather_pressure_hpa",
		Help: "Current sea-level pressure in hPa",
	}, []string{"city"})

	m.windSpeedGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "weather_wind_speed_kph",
		Help: "Current wind speed in kilometers per hour",
	}, []string{"city"})
}

// Describe implements the Collector interface
func (m *WeatherMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.weatherFetchesTotal.Describe(ch)
	m.weatherFetchErrorsTotal.Describe(ch)
	m.weatherFetchDuration.Describe(ch)
	m.weatherProviderRequestsTotal.Describe(ch)
	m.geocodeRequestsTotal.Describe(ch)
	m.cacheLookupsTotal.Describe(ch)
	m.storeOperationsTotal.Describe(ch)
	m.storeDuration.Describe(ch)
	m.trackedCitiesGauge.Describe(ch)
	m.temperatureGauge.Describe(ch)
	m.humidityGauge.Describe(ch)
	m.pressureGauge.Describe(ch)
	m.windSpeedGauge.Describe(ch)
}

// Collect implements the Collector interface
func (m *WeatherMetrics) Collect(ch chan<- prometheus.Metric) {
	m.weatherFetchesTotal.Collect(ch)
	m.weatherFetchErrorsTotal.Collect(ch)
	m.weatherFetchDuration.Collect(ch)
	m.weatherProviderRequestsTotal.Collect(ch)
	m.geocodeRequestsTotal.Collect(ch)
	m.cacheLookupsTotal.Collect(ch)
	m.storeOperationsTotal.Collect(ch)
	m.storeDuration.Collect(ch)
	m.trackedCitiesGauge.Collect(ch)
	m.temperatureGauge.Collect(ch)
	m.humidityGauge.Collect(ch)
	m.pressureGauge.Collect(ch)
	m.windSpeedGauge.Collect(ch)
}

// RecordWeatherFetch records a weather fetch operation
func (m *WeatherMetrics) RecordWeatherFetch(provider, status string) {
	m.weatherFetchesTotal.WithLabelValues(provider, status).Inc()
}

// RecordWeatherFetchError records a weather fetch error
func (m *WeatherMetrics) RecordWeatherFetchError(provider, errorType string) {
	m.weatherFetchErrorsTotal.WithLabelValues(provider, errorType).Inc()
}

// RecordWeatherFetchDuration records the duration of a weather fetch operation
func (m *WeatherMetrics) RecordWeatherFetchDuration(provider string, duration float64) {
	m.weatherFetchDuration.WithLabelValues(provider).Observe(duration)
}

// RecordWeatherProviderRequest records a weather provider request
func (m *WeatherMetrics) RecordWeatherProviderRequest(provider, method, statusCode string) {
	m.weatherProviderRequestsTotal.WithLabelValues(provider, method, statusCode).Inc()
}

// RecordGeocodeRequest records a geocoding request
func (m *WeatherMetrics) RecordGeocodeRequest(kind, status string) {
	m.geocodeRequestsTotal.WithLabelValues(kind, status).Inc()
}

// RecordCacheLookup records a weather cache lookup result
func (m *WeatherMetrics) RecordCacheLookup(result string) {
	m.cacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordStoreOperation records a persistent store operation
func (m *WeatherMetrics) RecordStoreOperation(operation, status string) {
	m.storeOperationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordStoreDuration records the duration of a persistent store operation
func (m *WeatherMetrics) RecordStoreDuration(operation string, duration float64) {
	m.storeDuration.WithLabelValues(operation).Observe(duration)
}

// SetTrackedCities sets the number of tracked cities
func (m *WeatherMetrics) SetTrackedCities(n int) {
	m.trackedCitiesGauge.Set(float64(n))
}

// UpdateCityGauges updates the current condition gauges for a city
func (m *WeatherMetrics) UpdateCityGauges(city string, temperature, humidity, pressure, windSpeed float64) {
	m.temperatureGauge.WithLabelValues(city).Set(temperature)
	m.humidityGauge.WithLabelValues(city).Set(humidity)
	m.pressureGauge.WithLabelValues(city).Set(pressure)
	m.windSpeedGauge.WithLabelValues(city).Set(windSpeed)
}

// DeleteCity drops the condition gauges of a removed city
func (m *WeatherMetrics) DeleteCity(city string) {
	m.temperatureGauge.DeleteLabelValues(city)
	m.humidityGauge.DeleteLabelValues(city)
	m.pressureGauge.DeleteLabelValues(city)
	m.windSpeedGauge.DeleteLabelValues(city)
}
