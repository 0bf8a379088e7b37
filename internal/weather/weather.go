// Package weather fetches current conditions and a short daily forecast and
// normalizes them into immutable snapshots.
package weather

import (
	"context"
	"log/slog"

	"github.com/ladyxxa/Web4/internal/logging"
)

// Provider represents a weather data provider interface
type Provider interface {
	FetchWeather(ctx context.Context, lat, lon float64) (*Snapshot, error)
}

// Snapshot is one consistent read of current and forecast weather for a city.
// It is never mutated after construction; refreshes replace it wholesale.
type Snapshot struct {
	CityName string        `json:"cityName"`
	Current  Current       `json:"current"`
	Forecast []ForecastDay `json:"forecast"`
	Timezone string        `json:"timezone,omitempty"`
}

// Current holds instantaneous conditions, already converted to display units.
type Current struct {
	TempC         int      `json:"tempC"`
	FeelsLikeC    int      `json:"feelsLikeC"`
	ConditionCode int      `json:"conditionCode"`
	ConditionText string   `json:"conditionText"`
	IconKind      IconKind `json:"iconKind"`
	WindKph       float64  `json:"windKph"`
	HumidityPct   int      `json:"humidityPct"`
	PressureHpa   int      `json:"pressureHpa"`
	IsDay         bool     `json:"isDay"`
}

// ForecastDay is a day-resolution aggregate. Date is ISO-8601 (YYYY-MM-DD).
type ForecastDay struct {
	Date          string   `json:"date"`
	MaxTempC      int      `json:"maxTempC"`
	MinTempC      int      `json:"minTempC"`
	ConditionCode int      `json:"conditionCode"`
	ConditionText string   `json:"conditionText"`
	IconKind      IconKind `json:"iconKind"`
}

// WithCityName returns a copy of the snapshot attributed to name.
func (s *Snapshot) WithCityName(name string) *Snapshot {
	if s == nil {
		return nil
	}
	cp := *s
	cp.CityName = name
	cp.Forecast = append([]ForecastDay(nil), s.Forecast...)
	return &cp
}

func weatherLogger() *slog.Logger {
	return logging.ForService("weather")
}
