package datastore

import (
	"slices"
	"time"

	"github.com/ladyxxa/Web4/internal/weather"
	"gorm.io/datatypes"
)

const (
	// StateKey names the single persisted application state record.
	StateKey = "weatherAppState"
	// FetchStampPrefix prefixes the per-city last-fetch record keys.
	FetchStampPrefix = "weatherCacheTime_"
)

// Coordinates is a resolved latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// AppState is the persisted tracked-city list. CurrentCityIndex is only
// meaningful while Cities is non-empty.
type AppState struct {
	Cities           []string               `json:"cities"`
	CurrentCityIndex int                    `json:"currentCityIndex"`
	CityCoords       map[string]Coordinates `json:"cityCoords"`
	CityTimezones    map[string]string      `json:"cityTimezones"`
}

// NewAppState returns an empty state with initialized maps.
func NewAppState() *AppState {
	return &AppState{
		Cities:        []string{},
		CityCoords:    make(map[string]Coordinates),
		CityTimezones: make(map[string]string),
	}
}

// Normalize fills nil maps and clamps the active index into range.
func (s *AppState) Normalize() *AppState {
	if s.Cities == nil {
		s.Cities = []string{}
	}
	if s.CityCoords == nil {
		s.CityCoords = make(map[string]Coordinates)
	}
	if s.CityTimezones == nil {
		s.CityTimezones = make(map[string]string)
	}
	if s.CurrentCityIndex < 0 || s.CurrentCityIndex >= len(s.Cities) {
		s.CurrentCityIndex = 0
	}
	return s
}

// Clone returns a deep copy of the state.
func (s *AppState) Clone() *AppState {
	cp := &AppState{
		Cities:           slices.Clone(s.Cities),
		CurrentCityIndex: s.CurrentCityIndex,
		CityCoords:       make(map[string]Coordinates, len(s.CityCoords)),
		CityTimezones:    make(map[string]string, len(s.CityTimezones)),
	}
	for k, v := range s.CityCoords {
		cp.CityCoords[k] = v
	}
	for k, v := range s.CityTimezones {
		cp.CityTimezones[k] = v
	}
	return cp
}

// IndexOf returns the position of name in the tracked list or -1.
func (s *AppState) IndexOf(name string) int {
	return slices.Index(s.Cities, name)
}

// FetchStamp records when a city's weather was last fetched, with the
// snapshot so the cache can be rebuilt after a restart.
type FetchStamp struct {
	City             string            `json:"city"`
	FetchedAtEpochMs int64             `json:"fetchedAtEpochMs"`
	Snapshot         *weather.Snapshot `json:"snapshot,omitempty"`
}

// FetchStampKey returns the persisted key for city's fetch stamp.
func FetchStampKey(city string) string {
	return FetchStampPrefix + city
}

// StateRecord is the SQL row holding the serialized AppState.
type StateRecord struct {
	Key       string         `gorm:"primaryKey;size:64"`
	Data      datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time
}

// FetchRecord is the SQL row holding one city's fetch stamp.
type FetchRecord struct {
	Key              string `gorm:"primaryKey;size:255"`
	City             string `gorm:"size:191;index"`
	FetchedAtEpochMs int64
	Snapshot         datatypes.JSON
	UpdatedAt        time.Time
}
