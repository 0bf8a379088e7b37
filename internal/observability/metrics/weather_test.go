package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeatherMetricsCounters(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m, err := NewWeatherMetrics(registry)
	require.NoError(t, err)

	m.RecordWeatherFetch("openmeteo", LabelSuccess)
	m.RecordWeatherFetch("openmeteo", LabelSuccess)
	m.RecordWeatherFetch("openmeteo", LabelError)
	m.RecordCacheLookup(LabelHit)
	m.RecordGeocodeRequest(LabelReverse, LabelError)

	assert.InDelta(t, 2, testutil.ToFloat64(m.weatherFetchesTotal.WithLabelValues("openmeteo", LabelSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.weatherFetchesTotal.WithLabelValues("openmeteo", LabelError)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.cacheLookupsTotal.WithLabelValues(LabelHit)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.geocodeRequestsTotal.WithLabelValues(LabelReverse, LabelError)), 0)
}

func TestWeatherMetricsCityGauges(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m, err := NewWeatherMetrics(registry)
	require.NoError(t, err)

	m.UpdateCityGauges("Paris", 18, 62, 1014, 18.0)
	m.UpdateCityGauges("Tokyo", 25, 70, 1008, 7.2)
	m.SetTrackedCities(2)

	expected := `
# HELP weather_temperature_celsius Current temperature in Celsius
# TYPE weather_temperature_celsius gauge
weather_temperature_celsius{city="Paris"} 18
weather_temperature_celsius{city="Tokyo"} 25
`
	require.NoError(t, testutil.CollectAndCompare(m, strings.NewReader(expected), "weather_temperature_celsius"))

	m.DeleteCity("Paris")
	expected = `
# HELP weather_temperature_celsius Current temperature in Celsius
# TYPE weather_temperature_celsius gauge
weather_temperature_celsius{city="Tokyo"} 25
`
	require.NoError(t, testutil.CollectAndCompare(m, strings.NewReader(expected), "weather_temperature_celsius"))
	assert.InDelta(t, 2, testutil.ToFloat64(m.trackedCitiesGauge), 0)
}

func TestDuplicateRegistrationFails(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	_, err := NewWeatherMetrics(registry)
	require.NoError(t, err)
	_, err = NewWeatherMetrics(registry)
	assert.Error(t, err)
}
