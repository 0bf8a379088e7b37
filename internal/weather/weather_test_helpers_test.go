package weather

import (
	"testing"

	"github.com/jarcoal/httpmock"
)

const testForecastEndpoint = "https://api.open-meteo.com/v1/forecast"

// setupHTTPMock activates httpmock and registers cleanup.
func setupHTTPMock(t *testing.T) {
	t.Helper()
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)
}

// registerForecastResponder registers a responder for the Open-Meteo forecast endpoint.
func registerForecastResponder(t *testing.T, status int, body string) {
	t.Helper()
	httpmock.RegisterResponder("GET", `=~^https://api\.open-meteo\.com/v1/forecast`,
		httpmock.NewStringResponder(status, body))
}

// registerForecastError registers a responder that fails at the transport level.
func registerForecastError(t *testing.T, err error) {
	t.Helper()
	httpmock.RegisterResponder("GET", `=~^https://api\.open-meteo\.com/v1/forecast`,
		httpmock.NewErrorResponder(err))
}

func newTestProvider(t *testing.T, locale string) *OpenMeteoProvider {
	t.Helper()
	return NewOpenMeteoProvider(testForecastEndpoint, locale, 0, nil)
}

// parisForecastJSON is a trimmed Open-Meteo response for Paris.
const parisForecastJSON = `{
  "latitude": 48.86,
  "longitude": 2.35,
  "timezone": "Europe/Paris",
  "current": {
    "time": "2024-05-01T14:00",
    "temperature_2m": 17.5,
    "relative_humidity_2m": 62,
    "apparent_temperature": -0.5,
    "pressure_msl": 1013.6,
    "wind_speed_10m": 5.0,
    "weather_code": 0,
    "is_day": 1
  },
  "daily": {
    "time": ["2024-05-01", "2024-05-02", "2024-05-03", "2024-05-04"],
    "weather_code": [0, 61, 99, 3],
    "temperature_2m_max": [18.4, 15.5, 12.49, 10.0],
    "temperature_2m_min": [9.6, -2.5, 7.0, 5.0]
  }
}`
