// conf/validate.go

package conf

import (
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"golang.org/x/text/language"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	validators := []func(*Settings) error{
		validateMainSettings,
		validateDashboardSettings,
		validateWeatherSettings,
		validateGeocodingSettings,
		validateGeolocationSettings,
		validateClockSettings,
		validateStoreSettings,
		validateMQTTSettings,
		validateAlertSettings,
	}
	for _, validate := range validators {
		if err := validate(settings); err != nil {
			ve.Errors = append(ve.Errors, err.Error())
		}
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateMainSettings(s *Settings) error {
	if _, err := language.Parse(s.Main.Locale); err != nil {
		return fmt.Errorf("invalid locale %q: %w", s.Main.Locale, err)
	}
	return nil
}

func validateDashboardSettings(s *Settings) error {
	var errs []string
	if strings.TrimSpace(s.Dashboard.PlaceholderName) == "" {
		errs = append(errs, "dashboard placeholder name must not be empty")
	}
	if _, err := time.LoadLocation(s.Dashboard.DefaultTimezone); err != nil {
		errs = append(errs, fmt.Sprintf("invalid default timezone %q", s.Dashboard.DefaultTimezone))
	}
	return joinErrs(errs)
}

func validateWeatherSettings(s *Settings) error {
	var errs []string
	if s.Weather.Endpoint == "" {
		errs = append(errs, "weather endpoint must be set")
	}
	if s.Weather.CacheTTL <= 0 {
		errs = append(errs, "weather cache TTL must be positive")
	}
	if s.Weather.Timeout <= 0 {
		errs = append(errs, "weather timeout must be positive")
	}
	return joinErrs(errs)
}

func validateGeocodingSettings(s *Settings) error {
	var errs []string
	g := &s.Geocoding
	if g.Endpoint == "" || g.ReverseEndpoint == "" {
		errs = append(errs, "geocoding endpoints must be set")
	}
	if g.RateLimit <= 0 {
		errs = append(errs, "geocoding rate limit must be positive")
	}
	if g.SuggestionCount < 1 || g.SuggestionLimit < 1 {
		errs = append(errs, "suggestion count and limit must be at least 1")
	}
	if g.SuggestionLimit > g.SuggestionCount {
		errs = append(errs, fmt.Sprintf("suggestion limit %d exceeds requested count %d", g.SuggestionLimit, g.SuggestionCount))
	}
	return joinErrs(errs)
}

func validateGeolocationSettings(s *Settings) error {
	var errs []string
	g := &s.Geolocation
	switch g.Provider {
	case "ip", "none":
	case "static":
		if g.Latitude < -90 || g.Latitude > 90 {
			errs = append(errs, "geolocation latitude must be between -90 and 90")
		}
		if g.Longitude < -180 || g.Longitude > 180 {
			errs = append(errs, "geolocation longitude must be between -180 and 180")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown geolocation provider %q", g.Provider))
	}
	if g.Timeout <= 0 {
		errs = append(errs, "geolocation timeout must be positive")
	}
	return joinErrs(errs)
}

func validateClockSettings(s *Settings) error {
	if s.Clock.Interval < time.Second {
		return fmt.Errorf("clock interval must be at least 1s, got %s", s.Clock.Interval)
	}
	if s.Clock.Format == "" {
		return errors.New("clock format must not be empty")
	}
	return nil
}

func validateStoreSettings(s *Settings) error {
	switch s.Store.Backend {
	case "sqlite":
		if s.Store.SQLite.Path == "" {
			return errors.New("sqlite path must be set")
		}
	case "mysql":
		if s.Store.MySQL.Host == "" || s.Store.MySQL.Database == "" {
			return errors.New("mysql host and database must be set")
		}
	case "redis":
		if s.Store.Redis.Addr == "" {
			return errors.New("redis address must be set")
		}
	default:
		return fmt.Errorf("unknown store backend %q", s.Store.Backend)
	}
	return nil
}

func validateMQTTSettings(s *Settings) error {
	if !s.MQTT.Enabled {
		return nil
	}
	if s.MQTT.Broker == "" {
		return errors.New("MQTT is enabled but no broker is configured")
	}
	if s.MQTT.Topic == "" {
		return errors.New("MQTT is enabled but no topic is configured")
	}
	return nil
}

func validateAlertSettings(s *Settings) error {
	if s.Alerts.Enabled && len(s.Alerts.URLs) == 0 {
		return errors.New("alerts are enabled but no notification URLs are configured")
	}
	if s.Alerts.RepeatWindow < 0 {
		return fmt.Errorf("alerts.repeatwindow must not be negative, got %v", s.Alerts.RepeatWindow)
	}
	if s.Alerts.MaxFailures < 0 {
		return fmt.Errorf("alerts.maxfailures must not be negative, got %d", s.Alerts.MaxFailures)
	}
	for name, text := range map[string]string{"title": s.Alerts.Title, "message": s.Alerts.Message} {
		if _, err := template.New(name).Parse(text); err != nil {
			return fmt.Errorf("invalid alerts.%s template: %w", name, err)
		}
	}
	return nil
}

func joinErrs(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.New(strings.Join(errs, "; "))
}
