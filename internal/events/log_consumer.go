package events

import (
	"log/slog"

	"github.com/ladyxxa/Web4/internal/errors"
	"github.com/ladyxxa/Web4/internal/logging"
)

// LogConsumer writes every event to the structured log.
type LogConsumer struct {
	logger *slog.Logger
}

// NewLogConsumer creates a consumer logging under the "dashboard" service
func NewLogConsumer() *LogConsumer {
	return &LogConsumer{logger: logging.ForService("dashboard")}
}

// Name implements EventConsumer
func (c *LogConsumer) Name() string { return "log" }

// ProcessEvent implements EventConsumer
func (c *LogConsumer) ProcessEvent(event Event) error {
	switch event.Kind {
	case WeatherUpdated:
		if event.Snapshot != nil {
			c.logger.Info("Weather updated",
				"city", event.City,
				"temp_c", event.Snapshot.Current.TempC,
				"condition", event.Snapshot.Current.ConditionText,
				"timezone", event.Snapshot.Timezone)
		}
	case WeatherFailed:
		c.logger.Warn("Weather refresh failed",
			"city", event.City,
			"message", errors.UserMessage(event.Err),
			"error", event.Err)
	case ClockTick:
		if event.Reading != nil {
			c.logger.Debug("Clock tick", "city", event.City, "time", event.Reading.Time)
		}
	case CitiesChanged:
		c.logger.Info("Tracked cities changed", "cities", event.Cities, "active_index", event.ActiveIndex)
	case LocationPrompt:
		c.logger.Info("No city to show, waiting for manual entry", "message", event.Message)
	}
	return nil
}
