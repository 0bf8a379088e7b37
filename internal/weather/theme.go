package weather

// Theme is the background style a renderer should use for a snapshot.
type Theme string

const (
	ThemeDay   Theme = "day"
	ThemeNight Theme = "night"
	ThemeRain  Theme = "rain"
)

// IsPrecipitation reports whether code describes falling rain, snow or a storm.
func IsPrecipitation(code int) bool {
	switch {
	case code >= 51 && code <= 67:
		return true
	case code >= 71 && code <= 77:
		return true
	case code >= 80 && code <= 82:
		return true
	case code >= 95:
		return true
	}
	return false
}

// ThemeFor picks the background theme for the current conditions of s.
func ThemeFor(s *Snapshot) Theme {
	if s == nil {
		return ThemeDay
	}
	if IsPrecipitation(s.Current.ConditionCode) {
		return ThemeRain
	}
	if s.Current.IsDay {
		return ThemeDay
	}
	return ThemeNight
}
