// Package events provides an asynchronous event bus that fans dashboard
// changes out to observers without blocking the dashboard itself.
package events

import (
	"time"

	"github.com/ladyxxa/Web4/internal/clock"
	"github.com/ladyxxa/Web4/internal/weather"
)

// Kind identifies what changed
type Kind string

const (
	// WeatherUpdated carries a freshly fetched or cached snapshot
	WeatherUpdated Kind = "weather_updated"
	// WeatherFailed carries a refresh error for a city
	WeatherFailed Kind = "weather_failed"
	// ClockTick carries a local time reading
	ClockTick Kind = "clock_tick"
	// CitiesChanged carries the tracked list after a mutation
	CitiesChanged Kind = "cities_changed"
	// LocationPrompt asks the user to enter a city manually
	LocationPrompt Kind = "location_prompt"
)

// Event is one dashboard change. Only the fields relevant to Kind are set.
type Event struct {
	Kind        Kind              `json:"kind"`
	City        string            `json:"city,omitempty"`
	Snapshot    *weather.Snapshot `json:"snapshot,omitempty"`
	Reading     *clock.Reading    `json:"reading,omitempty"`
	Cities      []string          `json:"cities,omitempty"`
	ActiveIndex int               `json:"activeIndex"`
	Message     string            `json:"message,omitempty"`
	Err         error             `json:"-"`
	Timestamp   time.Time         `json:"timestamp"`
}

// Notifier receives dashboard events. Implementations must not block.
type Notifier interface {
	Notify(event Event)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(Event)

// Notify calls f(event)
func (f NotifierFunc) Notify(event Event) { f(event) }

// Nop discards every event
var Nop Notifier = NotifierFunc(func(Event) {})

// EventConsumer processes events delivered by the bus
type EventConsumer interface {
	// Name returns the consumer name for identification
	Name() string

	// ProcessEvent processes a single event
	ProcessEvent(event Event) error
}

// EventBusStats contains runtime statistics for monitoring
type EventBusStats struct {
	EventsReceived  uint64
	EventsProcessed uint64
	EventsDropped   uint64
	ConsumerErrors  uint64
}
