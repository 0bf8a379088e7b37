// defaults.go: default values for dashboard settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// defaultCities is the offline suggestion list used when geocoding is unreachable.
var defaultCities = []string{
	"Москва", "Санкт-Петербург", "Новосибирск", "Екатеринбург", "Казань",
	"Нижний Новгород", "Челябинск", "Самара", "Омск", "Ростов-на-Дону",
}

// setDefaultConfig sets default values on the global viper instance
func setDefaultConfig() {
	applyDefaults(viper.GetViper())
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("main.name", "weatherdash")
	v.SetDefault("main.locale", "en")
	v.SetDefault("main.log.enabled", false)
	v.SetDefault("main.log.path", "logs/weatherdash.log")
	v.SetDefault("main.log.level", "info")
	v.SetDefault("main.log.rotation", RotationDaily)
	v.SetDefault("main.log.maxsize", 10485760)

	v.SetDefault("dashboard.placeholdername", "Current Location")
	v.SetDefault("dashboard.defaulttimezone", "Europe/Moscow")
	v.SetDefault("dashboard.defaultcities", defaultCities)

	v.SetDefault("weather.endpoint", "https://api.open-meteo.com/v1/forecast")
	v.SetDefault("weather.cachettl", 10*time.Minute)
	v.SetDefault("weather.timeout", 15*time.Second)

	v.SetDefault("geocoding.endpoint", "https://geocoding-api.open-meteo.com/v1/search")
	v.SetDefault("geocoding.reverseendpoint", "https://nominatim.openstreetmap.org/reverse")
	v.SetDefault("geocoding.ratelimit", 1.0)
	v.SetDefault("geocoding.timeout", 10*time.Second)
	v.SetDefault("geocoding.suggestioncount", 10)
	v.SetDefault("geocoding.suggestionlimit", 8)

	v.SetDefault("geolocation.provider", "ip")
	v.SetDefault("geolocation.endpoint", "http://ip-api.com/json/")
	v.SetDefault("geolocation.latitude", 0.0)
	v.SetDefault("geolocation.longitude", 0.0)
	v.SetDefault("geolocation.timeout", 10*time.Second)

	v.SetDefault("clock.interval", time.Minute)
	v.SetDefault("clock.format", "15:04")

	v.SetDefault("store.backend", "sqlite")
	v.SetDefault("store.sqlite.path", "weatherdash.db")
	v.SetDefault("store.mysql.host", "localhost")
	v.SetDefault("store.mysql.port", "3306")
	v.SetDefault("store.mysql.username", "")
	v.SetDefault("store.mysql.password", "")
	v.SetDefault("store.mysql.database", "weatherdash")
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.keyprefix", "weatherdash")

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.topic", "weatherdash")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.retain", true)

	v.SetDefault("alerts.enabled", false)
	v.SetDefault("alerts.urls", []string{})
	v.SetDefault("alerts.mincode", 95)
	v.SetDefault("alerts.repeatwindow", "3h")
	v.SetDefault("alerts.title", "")
	v.SetDefault("alerts.message", "")
	v.SetDefault("alerts.maxfailures", 3)

	v.SetDefault("webserver.enabled", true)
	v.SetDefault("webserver.listen", ":8080")
	v.SetDefault("webserver.debug", false)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.dsn", "")
}
