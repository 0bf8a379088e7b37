package weather

import (
	"math"
	"time"

	"github.com/ladyxxa/Web4/internal/errors"
)

const (
	RequestTimeout = 15 * time.Second
	UserAgent      = "weatherdash https://github.com/ladyxxa/Web4"
	ForecastDays   = 3
)

// newWeatherError creates a standardized weather error with common fields
func newWeatherError(err error, category errors.ErrorCategory, operation, provider string) error {
	return errors.New(err).
		Component("weather").
		Category(category).
		Context("operation", operation).
		Context("provider", provider).
		Build()
}

const msToKph = 3.6

// MsToKph converts m/s to km/h with one decimal place.
func MsToKph(ms float64) float64 {
	return math.Round(ms*msToKph*10) / 10
}

// RoundWhole rounds half away from zero to the nearest integer.
func RoundWhole(v float64) int {
	return int(math.Round(v))
}
