// config.go: settings for the weather dashboard. Defines the settings struct and functions to load it.
package conf

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/ladyxxa/Web4/internal/secrets"
	"github.com/spf13/viper"
)

//go:embed config.yaml
var configFiles embed.FS

// ConfigFile overrides the config search path when set (e.g. from the --config flag).
var ConfigFile string

// LogConfig holds settings for a log output
type LogConfig struct {
	Enabled  bool         // true to write logs to a file
	Path     string       // path to the log file
	Level    string       // debug, info, warn or error
	Rotation RotationType // type of log rotation
	MaxSize  int64        // max size in bytes for RotationSize
}

// RotationType defines different types of log rotations.
type RotationType string

const (
	RotationDaily  RotationType = "daily"
	RotationWeekly RotationType = "weekly"
	RotationSize   RotationType = "size"
)

// DashboardSettings controls the tracked-city list behavior
type DashboardSettings struct {
	PlaceholderName string   // label used when reverse geocoding yields nothing
	DefaultTimezone string   // timezone assumed when geocoding omits one
	DefaultCities   []string // offline suggestion list
}

// WeatherSettings contains Open-Meteo forecast settings
type WeatherSettings struct {
	Endpoint string        // forecast API endpoint
	CacheTTL time.Duration // freshness window for cached snapshots
	Timeout  time.Duration // HTTP request timeout
}

// GeocodingSettings contains forward and reverse geocoding settings
type GeocodingSettings struct {
	Endpoint        string        // Open-Meteo geocoding endpoint
	ReverseEndpoint string        // Nominatim reverse endpoint
	RateLimit       float64       // reverse lookups per second
	Timeout         time.Duration // HTTP request timeout
	SuggestionCount int           // candidates requested for suggestions
	SuggestionLimit int           // suggestions returned to the user
}

// GeolocationSettings controls how the device location is acquired
type GeolocationSettings struct {
	Provider  string        // "ip", "static" or "none"
	Endpoint  string        // IP geolocation endpoint
	Latitude  float64       // used by the static provider
	Longitude float64       // used by the static provider
	Timeout   time.Duration // bounded wait for a position
}

// ClockSettings controls the per-city local time ticker
type ClockSettings struct {
	Interval time.Duration // tick period
	Format   string        // Go time layout of the published string
}

// SQLiteSettings contains settings for the SQLite backend
type SQLiteSettings struct {
	Path string // path to sqlite database
}

// MySQLSettings contains settings for the MySQL backend
type MySQLSettings struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// RedisSettings contains settings for the Redis backend
type RedisSettings struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// StoreSettings selects and configures the persistent store
type StoreSettings struct {
	Backend string // "sqlite", "mysql" or "redis"
	SQLite  SQLiteSettings
	MySQL   MySQLSettings
	Redis   RedisSettings
}

// MQTTSettings contains settings for MQTT publishing
type MQTTSettings struct {
	Enabled  bool   // true to publish snapshots over MQTT
	Broker   string // MQTT (tcp://host:port)
	Topic    string // topic prefix
	Username string
	Password string
	Retain   bool // retain published messages
}

// AlertSettings contains settings for severe-weather push notifications
type AlertSettings struct {
	Enabled bool     // true to send alerts
	URLs    []string // shoutrrr service URLs
	MinCode int      // lowest weather code that triggers an alert

	RepeatWindow time.Duration // suppresses the same city and code for this long
	Title        string        // text/template for the alert title, empty for the default
	Message      string        // text/template for the alert body, empty for the default
	MaxFailures  int           // consecutive delivery failures before the breaker opens
}

// WebServerSettings contains settings for the JSON API
type WebServerSettings struct {
	Enabled bool
	Listen  string // listen address, e.g. ":8080"
	Debug   bool
}

// TelemetrySettings contains settings for error reporting
type TelemetrySettings struct {
	Enabled bool
	DSN     string // Sentry DSN
}

// Settings contains all configuration options for the dashboard.
type Settings struct {
	Debug bool // true to enable debug mode

	Main struct {
		Name   string    // instance name, used as MQTT client id prefix
		Locale string    // language for condition descriptions and geocoding
		Log    LogConfig // logging configuration
	}

	Dashboard   DashboardSettings
	Weather     WeatherSettings
	Geocoding   GeocodingSettings
	Geolocation GeolocationSettings
	Clock       ClockSettings
	Store       StoreSettings
	MQTT        MQTTSettings
	Alerts      AlertSettings
	WebServer   WebServerSettings
	Telemetry   TelemetrySettings
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into a new Settings instance.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	// A missing .env is the normal case
	_ = godotenv.Load()

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := resolveSecrets(settings); err != nil {
		return nil, err
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	setDefaultConfig()

	if err := bindEnvVars(); err != nil {
		// Invalid environment values are reported but do not stop startup
		fmt.Fprintln(os.Stderr, err)
	}

	if ConfigFile != "" {
		viper.SetConfigFile(ConfigFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file %s: %w", ConfigFile, err)
		}
		return nil
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	err = viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return createDefaultConfig(configPaths[0])
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig writes the embedded config.yaml into dir and reads it
func createDefaultConfig(dir string) error {
	configPath := filepath.Join(dir, "config.yaml")

	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		return fmt.Errorf("error reading embedded config: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	fmt.Println("Created default config file at:", configPath)
	return viper.ReadInConfig()
}

// GetSettings returns the current settings instance, nil before Load
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Setting returns the current settings, loading them on first use
func Setting() *Settings {
	if s := GetSettings(); s != nil {
		return s
	}
	s, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading settings: %v\n", err)
		return NewDefaultSettings()
	}
	return s
}

// resolveSecrets expands environment references and secret files in
// credential fields.
func resolveSecrets(settings *Settings) error {
	fields := map[string]*string{
		"mqtt.password":        &settings.MQTT.Password,
		"store.mysql.password": &settings.Store.MySQL.Password,
		"store.redis.password": &settings.Store.Redis.Password,
		"telemetry.dsn":        &settings.Telemetry.DSN,
	}
	for i := range settings.Alerts.URLs {
		fields[fmt.Sprintf("alerts.urls[%d]", i)] = &settings.Alerts.URLs[i]
	}
	return secrets.ResolveAll(fields)
}

// NewDefaultSettings returns settings populated only from built-in defaults.
func NewDefaultSettings() *Settings {
	v := viper.New()
	applyDefaults(v)
	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		// Defaults are static; failing here is a programming error
		panic(fmt.Sprintf("invalid default settings: %v", err))
	}
	return settings
}
