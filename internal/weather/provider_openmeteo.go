package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ladyxxa/Web4/internal/errors"
	"github.com/ladyxxa/Web4/internal/observability/metrics"
	"golang.org/x/text/language"
)

const (
	openMeteoProviderName = "openmeteo"
	currentFields         = "temperature_2m,relative_humidity_2m,apparent_temperature,pressure_msl,wind_speed_10m,weather_code,is_day"
	dailyFields           = "weather_code,temperature_2m_max,temperature_2m_min"
)

// OpenMeteoResponse is the subset of the Open-Meteo forecast response we consume
type OpenMeteoResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
	Current   struct {
		Time                string  `json:"time"`
		Temperature         float64 `json:"temperature_2m"`
		RelativeHumidity    float64 `json:"relative_humidity_2m"`
		ApparentTemperature float64 `json:"apparent_temperature"`
		PressureMSL         float64 `json:"pressure_msl"`
		WindSpeed           float64 `json:"wind_speed_10m"`
		WeatherCode         int     `json:"weather_code"`
		IsDay               int     `json:"is_day"`
	} `json:"current"`
	Daily struct {
		Time           []string  `json:"time"`
		WeatherCode    []int     `json:"weather_code"`
		TemperatureMax []float64 `json:"temperature_2m_max"`
		TemperatureMin []float64 `json:"temperature_2m_min"`
	} `json:"daily"`
}

// OpenMeteoProvider fetches forecasts from the Open-Meteo API
type OpenMeteoProvider struct {
	endpoint string
	lang     language.Tag
	client   *http.Client
	metrics  *metrics.WeatherMetrics
}

// NewOpenMeteoProvider creates a provider for endpoint; locale selects the
// description language.
func NewOpenMeteoProvider(endpoint, locale string, timeout time.Duration, m *metrics.WeatherMetrics) *OpenMeteoProvider {
	if timeout <= 0 {
		timeout = RequestTimeout
	}
	return &OpenMeteoProvider{
		endpoint: endpoint,
		lang:     MatchLanguage(locale),
		client:   &http.Client{Timeout: timeout},
		metrics:  m,
	}
}

func (p *OpenMeteoProvider) buildURL(lat, lon float64) string {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
	q.Set("current", currentFields)
	q.Set("daily", dailyFields)
	q.Set("timezone", "auto")
	q.Set("forecast_days", strconv.Itoa(ForecastDays))
	q.Set("wind_speed_unit", "ms")
	return p.endpoint + "?" + q.Encode()
}

// FetchWeather implements the Provider interface. It performs a single request
// with no retry; callers decide whether to try again.
func (p *OpenMeteoProvider) FetchWeather(ctx context.Context, lat, lon float64) (*Snapshot, error) {
	start := time.Now()
	snapshot, err := p.fetch(ctx, lat, lon)

	if p.metrics != nil {
		p.metrics.RecordWeatherFetchDuration(openMeteoProviderName, time.Since(start).Seconds())
		if err != nil {
			p.metrics.RecordWeatherFetch(openMeteoProviderName, "error")
		} else {
			p.metrics.RecordWeatherFetch(openMeteoProviderName, "success")
		}
	}
	return snapshot, err
}

func (p *OpenMeteoProvider) fetch(ctx context.Context, lat, lon float64) (*Snapshot, error) {
	reqURL := p.buildURL(lat, lon)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, newWeatherError(fmt.Errorf("%w: creating request: %w", errors.ErrFetch, err),
			errors.CategoryFetch, "create_request", openMeteoProviderName)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		p.recordError("transport")
		return nil, errors.New(fmt.Errorf("%w: %w", errors.ErrFetch, err)).
			Component("weather").
			Category(errors.CategoryFetch).
			NetworkContext(reqURL, p.client.Timeout).
			Context("provider", openMeteoProviderName).
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if p.metrics != nil {
		p.metrics.RecordWeatherProviderRequest(openMeteoProviderName, http.MethodGet, strconv.Itoa(resp.StatusCode))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		p.recordError("http_status")
		return nil, errors.New(fmt.Errorf("%w: received status %d", errors.ErrFetch, resp.StatusCode)).
			Component("weather").
			Category(errors.CategoryFetch).
			Context("operation", "fetch_forecast").
			Context("provider", openMeteoProviderName).
			Context("status_code", resp.StatusCode).
			Build()
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		p.recordError("read_body")
		return nil, newWeatherError(fmt.Errorf("%w: reading response body: %w", errors.ErrFetch, err),
			errors.CategoryFetch, "read_response", openMeteoProviderName)
	}

	var data OpenMeteoResponse
	if err := json.Unmarshal(body, &data); err != nil {
		p.recordError("decode")
		return nil, newWeatherError(fmt.Errorf("%w: decoding response: %w", errors.ErrFetch, err),
			errors.CategoryFetch, "decode_response", openMeteoProviderName)
	}

	snapshot := p.normalize(&data)
	weatherLogger().Debug("Fetched forecast",
		"latitude", lat,
		"longitude", lon,
		"timezone", snapshot.Timezone,
		"code", snapshot.Current.ConditionCode,
		"forecast_days", len(snapshot.Forecast))

	return snapshot, nil
}

func (p *OpenMeteoProvider) recordError(errorType string) {
	if p.metrics != nil {
		p.metrics.RecordWeatherFetchError(openMeteoProviderName, errorType)
	}
}

// normalize converts the provider response into a snapshot: wind to km/h,
// temperatures and pressure to whole numbers, forecast truncated to the
// shortest daily array and at most ForecastDays entries.
func (p *OpenMeteoProvider) normalize(data *OpenMeteoResponse) *Snapshot {
	isDay := data.Current.IsDay == 1
	text, icon := Describe(data.Current.WeatherCode, isDay, p.lang)

	snapshot := &Snapshot{
		Current: Current{
			TempC:         RoundWhole(data.Current.Temperature),
			FeelsLikeC:    RoundWhole(data.Current.ApparentTemperature),
			ConditionCode: data.Current.WeatherCode,
			ConditionText: text,
			IconKind:      icon,
			WindKph:       MsToKph(data.Current.WindSpeed),
			HumidityPct:   RoundWhole(data.Current.RelativeHumidity),
			PressureHpa:   RoundWhole(data.Current.PressureMSL),
			IsDay:         isDay,
		},
		Timezone: data.Timezone,
	}

	days := min(len(data.Daily.Time), len(data.Daily.WeatherCode),
		len(data.Daily.TemperatureMax), len(data.Daily.TemperatureMin), ForecastDays)

	snapshot.Forecast = make([]ForecastDay, 0, days)
	for i := range days {
		code := data.Daily.WeatherCode[i]
		text, icon := Describe(code, true, p.lang)
		snapshot.Forecast = append(snapshot.Forecast, ForecastDay{
			Date:          data.Daily.Time[i],
			MaxTempC:      RoundWhole(data.Daily.TemperatureMax[i]),
			MinTempC:      RoundWhole(data.Daily.TemperatureMin[i]),
			ConditionCode: code,
			ConditionText: text,
			IconKind:      icon,
		})
	}

	return snapshot
}
