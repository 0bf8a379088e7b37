// env.go - Environment variable configuration and validation
package conf

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns all environment variable bindings with validation
func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", "WEATHERDASH_DEBUG", validateEnvBool},
		{"main.locale", "WEATHERDASH_LOCALE", validateEnvLocale},

		{"weather.endpoint", "WEATHERDASH_WEATHER_ENDPOINT", validateEnvURL},
		{"weather.cachettl", "WEATHERDASH_WEATHER_CACHETTL", validateEnvDuration},

		{"geolocation.provider", "WEATHERDASH_GEOLOCATION_PROVIDER", validateEnvGeolocationProvider},
		{"geolocation.latitude", "WEATHERDASH_LATITUDE", validateEnvLatitude},
		{"geolocation.longitude", "WEATHERDASH_LONGITUDE", validateEnvLongitude},

		{"store.backend", "WEATHERDASH_STORE_BACKEND", validateEnvStoreBackend},
		{"store.sqlite.path", "WEATHERDASH_SQLITE_PATH", nil},
		{"store.mysql.password", "WEATHERDASH_MYSQL_PASSWORD", nil},
		{"store.redis.addr", "WEATHERDASH_REDIS_ADDR", nil},
		{"store.redis.password", "WEATHERDASH_REDIS_PASSWORD", nil},

		{"mqtt.enabled", "WEATHERDASH_MQTT_ENABLED", validateEnvBool},
		{"mqtt.password", "WEATHERDASH_MQTT_PASSWORD", nil},

		{"telemetry.enabled", "WEATHERDASH_TELEMETRY_ENABLED", validateEnvBool},
		{"telemetry.dsn", "WEATHERDASH_SENTRY_DSN", nil},
	}
}

// bindEnvVars sets up environment variable bindings with validation (internal)
func bindEnvVars() error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		if err := viper.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate != nil {
			if envValue := os.Getenv(binding.EnvVar); envValue != "" {
				if err := binding.Validate(envValue); err != nil {
					warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", binding.EnvVar, envValue, err))
				}
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}

	return nil
}

// validateEnvBool validates boolean environment variables
func validateEnvBool(value string) error {
	_, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid boolean value '%s': must be true/false, 1/0, t/f, TRUE/FALSE, T/F", value)
	}
	return nil
}

// localePattern matches locale patterns like "en" or "en-us"
var localePattern = regexp.MustCompile(`(?i)^[a-z]{2}(-[a-z]{2})?$`)

func validateEnvLocale(value string) error {
	if !localePattern.MatchString(value) {
		return fmt.Errorf("locale must match pattern 'xx' or 'xx-xx' (e.g., 'en' or 'ru'), got: '%s'", value)
	}
	return nil
}

func validateEnvLatitude(value string) error {
	lat, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid latitude: %w", err)
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude must be between -90 and 90, got %g", lat)
	}
	return nil
}

func validateEnvLongitude(value string) error {
	lng, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid longitude: %w", err)
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("longitude must be between -180 and 180, got %g", lng)
	}
	return nil
}

func validateEnvDuration(value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("duration must be positive, got %s", d)
	}
	return nil
}

func validateEnvURL(value string) error {
	if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
		return fmt.Errorf("URL must start with http:// or https://, got: '%s'", value)
	}
	return nil
}

func validateEnvStoreBackend(value string) error {
	switch strings.ToLower(value) {
	case "sqlite", "mysql", "redis":
		return nil
	}
	return fmt.Errorf("store backend must be one of sqlite, mysql, redis, got: '%s'", value)
}

func validateEnvGeolocationProvider(value string) error {
	switch strings.ToLower(value) {
	case "ip", "static", "none":
		return nil
	}
	return fmt.Errorf("geolocation provider must be one of ip, static, none, got: '%s'", value)
}
