package dashboard

import (
	"github.com/ladyxxa/Web4/internal/datastore"
	"github.com/ladyxxa/Web4/internal/weather"
)

// NoTime is shown until a city's clock has ticked.
const NoTime = "--:--"

// CityView is one tracked city as a renderer shows it.
type CityView struct {
	Index         int               `json:"index" yaml:"index"`
	Name          string            `json:"name" yaml:"name"`
	Active        bool              `json:"active" yaml:"active"`
	Protected     bool              `json:"protected" yaml:"protected"`
	TempC         *int              `json:"tempC,omitempty" yaml:"tempC,omitempty"`
	ConditionText string            `json:"conditionText,omitempty" yaml:"conditionText,omitempty"`
	IconKind      weather.IconKind  `json:"iconKind,omitempty" yaml:"iconKind,omitempty"`
	LocalTime     string            `json:"localTime" yaml:"localTime"`
	Timezone      string            `json:"timezone,omitempty" yaml:"timezone,omitempty"`
	Snapshot      *weather.Snapshot `json:"-" yaml:"-"`
}

// View is a read-only copy of the dashboard.
type View struct {
	Cities      []CityView        `json:"cities" yaml:"cities"`
	ActiveIndex int               `json:"activeIndex" yaml:"activeIndex"`
	Active      *weather.Snapshot `json:"active,omitempty" yaml:"active,omitempty"`
	Theme       weather.Theme     `json:"theme" yaml:"theme"`
}

// Cities returns a copy of the tracked city names in order.
func (m *Manager) Cities() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.state.Cities...)
}

// ActiveIndex returns the active index; it is meaningless while no city is
// tracked.
func (m *Manager) ActiveIndex() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.CurrentCityIndex
}

// State returns a deep copy of the application state.
func (m *Manager) State() *datastore.AppState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// View assembles the current view from the state, the cache and the clocks.
func (m *Manager) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := View{
		Cities:      make([]CityView, 0, len(m.state.Cities)),
		ActiveIndex: m.state.CurrentCityIndex,
		Theme:       weather.ThemeDay,
	}
	for i, name := range m.state.Cities {
		cv := CityView{
			Index:     i,
			Name:      name,
			Active:    i == m.state.CurrentCityIndex,
			Protected: m.isProtectedLocked(i),
			LocalTime: NoTime,
			Timezone:  m.state.CityTimezones[name],
		}
		if entry, ok := m.cache.Get(name); ok && entry.Snapshot != nil {
			temp := entry.Snapshot.Current.TempC
			cv.TempC = &temp
			cv.ConditionText = entry.Snapshot.Current.ConditionText
			cv.IconKind = entry.Snapshot.Current.IconKind
			cv.Snapshot = entry.Snapshot
		}
		if reading, ok := m.clocks.Reading(name); ok {
			cv.LocalTime = reading.Time
		}
		if cv.Active {
			v.Active = cv.Snapshot
			v.Theme = weather.ThemeFor(cv.Snapshot)
		}
		v.Cities = append(v.Cities, cv)
	}
	return v
}
