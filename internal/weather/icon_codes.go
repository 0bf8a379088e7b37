package weather

import (
	"golang.org/x/text/language"
)

// IconKind identifies the pictogram family for a condition. Renderers map it
// to whatever icon set they use.
type IconKind string

const (
	IconClearDay         IconKind = "clear-day"
	IconClearNight       IconKind = "clear-night"
	IconMainlyClearDay   IconKind = "mainly-clear-day"
	IconMainlyClearNight IconKind = "mainly-clear-night"
	IconPartlyCloudy     IconKind = "partly-cloudy"
	IconOvercast         IconKind = "overcast"
	IconFog              IconKind = "fog"
	IconRimeFog          IconKind = "rime-fog"
	IconDrizzle          IconKind = "drizzle"
	IconFreezingDrizzle  IconKind = "freezing-drizzle"
	IconRain             IconKind = "rain"
	IconFreezingRain     IconKind = "freezing-rain"
	IconSnow             IconKind = "snow"
	IconSnowGrains       IconKind = "snow-grains"
	IconRainShowers      IconKind = "rain-showers"
	IconSnowShowers      IconKind = "snow-showers"
	IconThunderstorm     IconKind = "thunderstorm"
	IconThunderstormHail IconKind = "thunderstorm-hail"
	IconCloudy           IconKind = "cloudy" // fallback for unknown codes
)

type condition struct {
	en, ru string
	icon   IconKind
	night  IconKind // night variant, empty when the icon has none
}

// wmoConditions maps WMO weather interpretation codes as returned by Open-Meteo.
var wmoConditions = map[int]condition{
	0:  {"Clear sky", "Ясно", IconClearDay, IconClearNight},
	1:  {"Mainly clear", "В основном ясно", IconMainlyClearDay, IconMainlyClearNight},
	2:  {"Partly cloudy", "Переменная облачность", IconPartlyCloudy, ""},
	3:  {"Overcast", "Пасмурно", IconOvercast, ""},
	45: {"Fog", "Туман", IconFog, ""},
	48: {"Rime fog", "Иней", IconRimeFog, ""},
	51: {"Light drizzle", "Легкая морось", IconDrizzle, ""},
	53: {"Drizzle", "Морось", IconDrizzle, ""},
	55: {"Dense drizzle", "Сильная морось", IconDrizzle, ""},
	56: {"Freezing drizzle", "Ледяная морось", IconFreezingDrizzle, ""},
	57: {"Dense freezing drizzle", "Сильная ледяная морось", IconFreezingDrizzle, ""},
	61: {"Light rain", "Небольшой дождь", IconRain, ""},
	63: {"Rain", "Дождь", IconRain, ""},
	65: {"Heavy rain", "Сильный дождь", IconRain, ""},
	66: {"Freezing rain", "Ледяной дождь", IconFreezingRain, ""},
	67: {"Heavy freezing rain", "Сильный ледяной дождь", IconFreezingRain, ""},
	71: {"Light snow", "Небольшой снег", IconSnow, ""},
	73: {"Snow", "Снег", IconSnow, ""},
	75: {"Heavy snow", "Сильный снег", IconSnow, ""},
	77: {"Snow grains", "Снежные зерна", IconSnowGrains, ""},
	80: {"Light showers", "Небольшой ливень", IconRainShowers, ""},
	81: {"Showers", "Ливень", IconRainShowers, ""},
	82: {"Heavy showers", "Сильный ливень", IconRainShowers, ""},
	85: {"Light snow showers", "Небольшой снегопад", IconSnowShowers, ""},
	86: {"Heavy snow showers", "Сильный снегопад", IconSnowShowers, ""},
	95: {"Thunderstorm", "Гроза", IconThunderstorm, ""},
	96: {"Thunderstorm with light hail", "Гроза с небольшим градом", IconThunderstormHail, ""},
	99: {"Thunderstorm with heavy hail", "Гроза с сильным градом", IconThunderstormHail, ""},
}

var unknownCondition = condition{"Unknown", "Неизвестно", IconCloudy, ""}

var supportedLanguages = []language.Tag{
	language.English, // first entry is the fallback
	language.Russian,
}

var languageMatcher = language.NewMatcher(supportedLanguages)

// MatchLanguage picks the closest supported description language for locale.
func MatchLanguage(locale string) language.Tag {
	tag, _ := language.MatchStrings(languageMatcher, locale)
	base, _ := tag.Base()
	if base.String() == "ru" {
		return language.Russian
	}
	return language.English
}

// Describe returns the localized description and icon for a weather code.
// Unknown codes map to a generic cloud rather than failing.
func Describe(code int, isDay bool, lang language.Tag) (string, IconKind) {
	c, ok := wmoConditions[code]
	if !ok {
		c = unknownCondition
	}

	icon := c.icon
	if !isDay && c.night != "" {
		icon = c.night
	}

	if lang == language.Russian {
		return c.ru, icon
	}
	return c.en, icon
}

// IsKnownCode reports whether code is in the WMO table.
func IsKnownCode(code int) bool {
	_, ok := wmoConditions[code]
	return ok
}
