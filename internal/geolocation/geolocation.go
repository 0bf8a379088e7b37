// Package geolocation acquires the device position used to seed the
// dashboard when no city is tracked yet.
package geolocation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ladyxxa/Web4/internal/conf"
	"github.com/ladyxxa/Web4/internal/errors"
	"github.com/ladyxxa/Web4/internal/logging"
)

// DefaultTimeout bounds a single position request.
const DefaultTimeout = 10 * time.Second

const (
	ProviderIP     = "ip"
	ProviderStatic = "static"
	ProviderNone   = "none"
)

// Position is a device position. City and Timezone are filled when the
// provider knows them.
type Position struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	City     string  `json:"city,omitempty"`
	Timezone string  `json:"timezone,omitempty"`
}

// Locator returns the current device position.
type Locator interface {
	Locate(ctx context.Context) (Position, error)
}

func getLogger() *slog.Logger {
	return logging.ForService("geolocation")
}

// New returns the locator selected by settings.Provider.
func New(settings conf.GeolocationSettings) (Locator, error) {
	switch settings.Provider {
	case ProviderIP, "":
		return NewIPLocator(settings.Endpoint), nil
	case ProviderStatic:
		return StaticLocator{Position: Position{Lat: settings.Latitude, Lon: settings.Longitude}}, nil
	case ProviderNone:
		return DisabledLocator{}, nil
	default:
		return nil, errors.Newf("unknown geolocation provider %q", settings.Provider).
			Component("geolocation").
			Category(errors.CategoryConfiguration).
			Build()
	}
}

// Acquire asks locator for a position and gives up after timeout. Errors
// wrap one of errors.ErrGeolocationDenied, errors.ErrGeolocationUnavailable
// or errors.ErrGeolocationTimeout.
func Acquire(ctx context.Context, locator Locator, timeout time.Duration) (Position, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	pos, err := locator.Locate(ctx)
	if err == nil {
		getLogger().Debug("Acquired device position", "lat", pos.Lat, "lon", pos.Lon, "duration", time.Since(start))
		return pos, nil
	}

	switch {
	case errors.Is(err, errors.ErrGeolocationDenied),
		errors.Is(err, errors.ErrGeolocationUnavailable),
		errors.Is(err, errors.ErrGeolocationTimeout):
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		err = newGeolocationError(fmt.Errorf("%w after %s", errors.ErrGeolocationTimeout, timeout), errors.CategoryTimeout)
	default:
		err = newGeolocationError(fmt.Errorf("%w: %w", errors.ErrGeolocationUnavailable, err), errors.CategoryGeolocation)
	}
	getLogger().Warn("Device position unavailable", "error", err, "duration", time.Since(start))
	return Position{}, err
}

func newGeolocationError(err error, category errors.ErrorCategory) error {
	return errors.New(err).
		Component("geolocation").
		Category(category).
		Build()
}

// StaticLocator always reports a fixed position.
type StaticLocator struct {
	Position Position
}

// Locate returns the configured position
func (s StaticLocator) Locate(context.Context) (Position, error) {
	return s.Position, nil
}

// DisabledLocator refuses every request, as a user who denied access would.
type DisabledLocator struct{}

// Locate always fails with errors.ErrGeolocationDenied
func (DisabledLocator) Locate(context.Context) (Position, error) {
	return Position{}, newGeolocationError(errors.ErrGeolocationDenied, errors.CategoryGeolocation)
}
