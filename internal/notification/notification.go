// Package notification sends push alerts when a city reports severe weather.
package notification

import (
	"context"
	"log/slog"

	"github.com/ladyxxa/Web4/internal/logging"
)

// Sender delivers one alert to an external service.
type Sender interface {
	Name() string
	Send(ctx context.Context, title, message string) error
}

func getLogger() *slog.Logger {
	return logging.ForService("notification")
}
