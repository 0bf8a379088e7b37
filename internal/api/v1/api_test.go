package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ladyxxa/Web4/internal/dashboard"
	"github.com/ladyxxa/Web4/internal/errors"
	"github.com/ladyxxa/Web4/internal/weather"
)

type mockDashboard struct {
	mock.Mock
}

func (m *mockDashboard) View() dashboard.View {
	return m.Called().Get(0).(dashboard.View)
}

func (m *mockDashboard) AddCity(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

func (m *mockDashboard) RemoveCity(ctx context.Context, index int) error {
	return m.Called(ctx, index).Error(0)
}

func (m *mockDashboard) SelectCity(ctx context.Context, index int) error {
	return m.Called(ctx, index).Error(0)
}

func (m *mockDashboard) RefreshActive(ctx context.Context) (*weather.Snapshot, error) {
	args := m.Called(ctx)
	snap, _ := args.Get(0).(*weather.Snapshot)
	return snap, args.Error(1)
}

func (m *mockDashboard) LocateCurrent(ctx context.Context) (*weather.Snapshot, error) {
	args := m.Called(ctx)
	snap, _ := args.Get(0).(*weather.Snapshot)
	return snap, args.Error(1)
}

type staticSuggester []string

func (s staticSuggester) Suggest(context.Context, string) []string { return s }

func viewOf(active int, names ...string) dashboard.View {
	v := dashboard.View{ActiveIndex: active, Theme: weather.ThemeDay}
	for i, n := range names {
		v.Cities = append(v.Cities, dashboard.CityView{Index: i, Name: n, Active: i == active, LocalTime: dashboard.NoTime})
	}
	return v
}

func setupTestEnvironment(t *testing.T) (*echo.Echo, *mockDashboard) {
	t.Helper()
	e := echo.New()
	dash := &mockDashboard{}
	New(e, dash, staticSuggester{"Новосибирск", "Нижний Новгород"})
	t.Cleanup(func() { dash.AssertExpectations(t) })
	return e, dash
}

func doRequest(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestGetDashboard(t *testing.T) {
	e, dash := setupTestEnvironment(t)
	dash.On("View").Return(viewOf(1, "Current Location", "Paris"))

	rec := doRequest(e, http.MethodGet, "/api/v1/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)

	v := decode[dashboard.View](t, rec)
	assert.Equal(t, 1, v.ActiveIndex)
	require.Len(t, v.Cities, 2)
	assert.Equal(t, "Paris", v.Cities[1].Name)
}

func TestListCities(t *testing.T) {
	e, dash := setupTestEnvironment(t)
	dash.On("View").Return(viewOf(0, "Paris"))

	rec := doRequest(e, http.MethodGet, "/api/v1/cities", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"activeIndex":0`)
	assert.Contains(t, rec.Body.String(), `"name":"Paris"`)
}

func TestAddCity(t *testing.T) {
	tests := []struct {
		name       string
		addErr     error
		after      dashboard.View
		wantStatus int
		wantWarn   bool
	}{
		{
			name:       "added and refreshed",
			after:      viewOf(1, "Paris", "Tokyo"),
			wantStatus: http.StatusCreated,
		},
		{
			name:       "added but refresh failed",
			addErr:     fmt.Errorf("%w: HTTP 500", errors.ErrFetch),
			after:      viewOf(1, "Paris", "Tokyo"),
			wantStatus: http.StatusCreated,
			wantWarn:   true,
		},
		{
			name:       "not found",
			addErr:     fmt.Errorf("%w: %q", errors.ErrNotFound, "Tokyo"),
			after:      viewOf(0, "Paris"),
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "lookup failed",
			addErr:     fmt.Errorf("%w: timeout", errors.ErrLookup),
			after:      viewOf(0, "Paris"),
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "duplicate",
			addErr:     fmt.Errorf("%w: %q", errors.ErrDuplicate, "Tokyo"),
			after:      viewOf(0, "Tokyo"),
			wantStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, dash := setupTestEnvironment(t)
			dash.On("AddCity", mock.Anything, "Tokyo").Return(tt.addErr)
			dash.On("View").Return(tt.after).Maybe()

			rec := doRequest(e, http.MethodPost, "/api/v1/cities", `{"name":" Tokyo "}`)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			if tt.wantStatus >= http.StatusBadRequest {
				resp := decode[ErrorResponse](t, rec)
				assert.Equal(t, errors.UserMessage(tt.addErr), resp.Message)
				return
			}
			resp := decode[MutationResponse](t, rec)
			assert.Equal(t, 1, resp.ActiveIndex)
			assert.Equal(t, tt.wantWarn, resp.Warning != "")
		})
	}
}

func TestAddCityRejectsBadBody(t *testing.T) {
	e, _ := setupTestEnvironment(t)

	rec := doRequest(e, http.MethodPost, "/api/v1/cities", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRemoveCity(t *testing.T) {
	t.Run("removed", func(t *testing.T) {
		e, dash := setupTestEnvironment(t)
		dash.On("RemoveCity", mock.Anything, 1).Return(nil)
		dash.On("View").Return(viewOf(0, "Paris"))

		rec := doRequest(e, http.MethodDelete, "/api/v1/cities/1", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, decode[MutationResponse](t, rec).Warning)
	})

	t.Run("last city prompts", func(t *testing.T) {
		e, dash := setupTestEnvironment(t)
		dash.On("RemoveCity", mock.Anything, 0).Return(errors.New(errors.ErrNoCities).Category(errors.CategoryState).Build())
		dash.On("View").Return(dashboard.View{})

		rec := doRequest(e, http.MethodDelete, "/api/v1/cities/0", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Add a city to see the weather", decode[MutationResponse](t, rec).Warning)
	})

	t.Run("out of range", func(t *testing.T) {
		e, dash := setupTestEnvironment(t)
		dash.On("RemoveCity", mock.Anything, 7).
			Return(errors.Newf("no city at index 7").Category(errors.CategoryValidation).Build())

		rec := doRequest(e, http.MethodDelete, "/api/v1/cities/7", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad index", func(t *testing.T) {
		e, _ := setupTestEnvironment(t)

		rec := doRequest(e, http.MethodDelete, "/api/v1/cities/abc", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSelectCity(t *testing.T) {
	e, dash := setupTestEnvironment(t)
	dash.On("SelectCity", mock.Anything, 2).Return(nil)
	dash.On("View").Return(viewOf(2, "A", "B", "C"))

	rec := doRequest(e, http.MethodPut, "/api/v1/cities/active", `{"index":2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[MutationResponse](t, rec).ActiveIndex)

	rec = doRequest(e, http.MethodPut, "/api/v1/cities/active", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefresh(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		e, dash := setupTestEnvironment(t)
		dash.On("RefreshActive", mock.Anything).Return(&weather.Snapshot{CityName: "Paris", Current: weather.Current{TempC: 18}}, nil)

		rec := doRequest(e, http.MethodPost, "/api/v1/refresh", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 18, decode[weather.Snapshot](t, rec).Current.TempC)
	})

	t.Run("fetch error keeps retry path", func(t *testing.T) {
		e, dash := setupTestEnvironment(t)
		dash.On("RefreshActive", mock.Anything).Return(nil, fmt.Errorf("%w: HTTP 503", errors.ErrFetch))

		rec := doRequest(e, http.MethodPost, "/api/v1/refresh", "")
		require.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, "Error while loading weather data", decode[ErrorResponse](t, rec).Message)
	})
}

func TestLocate(t *testing.T) {
	t.Run("located", func(t *testing.T) {
		e, dash := setupTestEnvironment(t)
		dash.On("LocateCurrent", mock.Anything).Return(&weather.Snapshot{CityName: "Москва"}, nil)
		dash.On("View").Return(viewOf(0, "Москва"))

		rec := doRequest(e, http.MethodPost, "/api/v1/locate", "")
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[LocateResponse](t, rec)
		assert.Equal(t, "Москва", resp.Snapshot.CityName)
		assert.Len(t, resp.View.Cities, 1)
	})

	t.Run("denied without cities", func(t *testing.T) {
		e, dash := setupTestEnvironment(t)
		dash.On("LocateCurrent", mock.Anything).
			Return(nil, fmt.Errorf("%w: %w", errors.ErrNoCities, errors.ErrGeolocationDenied))

		rec := doRequest(e, http.MethodPost, "/api/v1/locate", "")
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "Location access denied. Add a city manually.", decode[ErrorResponse](t, rec).Message)
	})
}

func TestSuggest(t *testing.T) {
	e, _ := setupTestEnvironment(t)

	rec := doRequest(e, http.MethodGet, "/api/v1/suggest?q=%D0%BD%D0%BE%D0%B2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[SuggestResponse](t, rec)
	assert.Equal(t, "нов", resp.Query)
	assert.Equal(t, []string{"Новосибирск", "Нижний Новгород"}, resp.Suggestions)
}

func TestStatusFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w", errors.ErrDuplicate), http.StatusConflict},
		{fmt.Errorf("%w", errors.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w", errors.ErrLookup), http.StatusBadGateway},
		{fmt.Errorf("%w", errors.ErrFetch), http.StatusBadGateway},
		{fmt.Errorf("%w", errors.ErrGeolocationTimeout), http.StatusGatewayTimeout},
		{fmt.Errorf("%w", errors.ErrGeolocationUnavailable), http.StatusServiceUnavailable},
		{fmt.Errorf("%w", errors.ErrNoCities), http.StatusConflict},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{fmt.Errorf("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}
