package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ladyxxa/Web4/internal/buildinfo"
	"github.com/ladyxxa/Web4/internal/conf"
	"github.com/ladyxxa/Web4/internal/dashboard"
	"github.com/ladyxxa/Web4/internal/observability"
	"github.com/ladyxxa/Web4/internal/weather"
)

// stubDashboard serves a fixed view
type stubDashboard struct{ view dashboard.View }

func (s stubDashboard) View() dashboard.View { return s.view }
func (stubDashboard) AddCity(context.Context, string) error { return nil }
func (stubDashboard) RemoveCity(context.Context, int) error { return nil }
func (stubDashboard) SelectCity(context.Context, int) error { return nil }
func (stubDashboard) RefreshActive(context.Context) (*weather.Snapshot, error) { return nil, nil }
func (stubDashboard) LocateCurrent(context.Context) (*weather.Snapshot, error) { return nil, nil }

func newTestServer(t *testing.T, opts ...ServerOption) *Server {
	t.Helper()
	settings := conf.NewDefaultSettings()
	dash := stubDashboard{view: dashboard.View{Cities: []dashboard.CityView{{Name: "Paris"}}}}
	s, err := New(settings, dash, opts...)
	require.NoError(t, err)
	return s
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, WithBuildInfo(buildinfo.NewContext("1.2.3", "2024-05-15")))

	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, "1.2.3", resp["version"])
	assert.Equal(t, "2024-05-15", resp["build_date"])
	assert.InDelta(t, 1, resp["cities"], 0)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestHealthCheckWithoutBuildInfo(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version":"unknown"`)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	m, err := observability.NewMetrics()
	require.NoError(t, err)
	m.Weather.RecordCacheLookup("hit")

	s := newTestServer(t, WithMetrics(m))
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "weather_cache_lookups_total")
}

func TestMetricsEndpointDisabled(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestIDIsPropagated(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", http.NoBody)
	req.Header.Set(echo.HeaderXRequestID, "abc-123")
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc-123", rec.Header().Get(echo.HeaderXRequestID))
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Listen = ""
	assert.Error(t, cfg.Validate())

	settings := conf.NewDefaultSettings()
	settings.WebServer.Listen = "127.0.0.1:9090"
	settings.WebServer.Debug = true
	got := ConfigFromSettings(settings)
	assert.Equal(t, "127.0.0.1:9090", got.Listen)
	assert.True(t, got.Debug)
}
