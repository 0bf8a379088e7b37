// Package clock publishes the local wall-clock time of every tracked city.
//
// Each city has at most one ticking task. A task publishes a reading as soon
// as it starts and then once per period until it is stopped.
package clock

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ladyxxa/Web4/internal/logging"
	"github.com/ladyxxa/Web4/internal/suncalc"
)

const (
	DefaultPeriod = time.Minute
	DefaultFormat = "15:04"
)

// Reading is one published local time.
type Reading struct {
	City     string    `json:"city"`
	Time     string    `json:"time"`
	Timezone string    `json:"timezone"`
	At       time.Time `json:"at"`
	// IsDaylight is nil when the city position is unknown or the sun does
	// not rise or set that day.
	IsDaylight *bool `json:"isDaylight,omitempty"`
}

// PublishFunc receives every reading. It is called from the task goroutine.
type PublishFunc func(Reading)

type task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Registry owns the ticking tasks, keyed by city name.
type Registry struct {
	period  time.Duration
	format  string
	publish PublishFunc
	now     func() time.Time

	mu       sync.Mutex
	tasks    map[string]*task
	readings map[string]Reading
}

// Option configures a task started with Start.
type Option func(*startOptions)

type startOptions struct {
	sun *suncalc.SunCalc
	lat float64
	lon float64
	set bool
}

// WithCoordinates enables the daylight flag for the task.
func WithCoordinates(lat, lon float64) Option {
	return func(o *startOptions) {
		o.lat, o.lon, o.set = lat, lon, true
	}
}

func getLogger() *slog.Logger {
	return logging.ForService("clock")
}

// NewRegistry creates a registry. A non-positive period or empty format
// selects the defaults; publish may be nil.
func NewRegistry(period time.Duration, format string, publish PublishFunc) *Registry {
	if period <= 0 {
		period = DefaultPeriod
	}
	if format == "" {
		format = DefaultFormat
	}
	if publish == nil {
		publish = func(Reading) {}
	}
	return &Registry{
		period:   period,
		format:   format,
		publish:  publish,
		now:      time.Now,
		tasks:    make(map[string]*task),
		readings: make(map[string]Reading),
	}
}

// LoadLocation returns the named timezone, or time.Local when tz is empty
// or unknown.
func LoadLocation(tz string) *time.Location {
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		getLogger().Debug("Unknown timezone, using local time", "timezone", tz, "error", err)
		return time.Local
	}
	return loc
}

// Start begins ticking for name in timezone tz, replacing any task already
// running for name. The first reading is published immediately.
func (r *Registry) Start(name, tz string, opts ...Option) {
	var o startOptions
	for _, opt := range opts {
		opt(&o)
	}
	loc := LoadLocation(tz)
	if o.set {
		o.sun = suncalc.NewSunCalc(o.lat, o.lon, loc)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &task{cancel: cancel, done: make(chan struct{})}

	r.mu.Lock()
	prev := r.tasks[name]
	r.tasks[name] = t
	r.mu.Unlock()

	if prev != nil {
		prev.cancel()
	}
	go r.run(ctx, t, prev, name, loc, o.sun)
}

func (r *Registry) run(ctx context.Context, t *task, prev *task, name string, loc *time.Location, sun *suncalc.SunCalc) {
	defer close(t.done)
	if prev != nil {
		<-prev.done
	}

	ticker := time.NewTicker(r.period)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			return
		}
		r.tick(t, name, loc, sun)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (r *Registry) tick(t *task, name string, loc *time.Location, sun *suncalc.SunCalc) {
	now := r.now().In(loc)
	reading := Reading{
		City:     name,
		Time:     now.Format(r.format),
		Timezone: loc.String(),
		At:       now,
	}
	if sun != nil {
		if day, err := sun.IsDaylight(now); err == nil {
			reading.IsDaylight = &day
		}
	}

	r.mu.Lock()
	current := r.tasks[name] == t
	if current {
		r.readings[name] = reading
	}
	r.mu.Unlock()

	if current {
		r.publish(reading)
	}
}

// Stop cancels the task for name and waits for it to exit. Stopping an
// unknown name is a no-op.
func (r *Registry) Stop(name string) {
	r.mu.Lock()
	t := r.tasks[name]
	delete(r.tasks, name)
	delete(r.readings, name)
	r.mu.Unlock()

	if t != nil {
		t.cancel()
		<-t.done
	}
}

// StopAll cancels every task and waits for all of them to exit.
func (r *Registry) StopAll() {
	r.mu.Lock()
	tasks := r.tasks
	r.tasks = make(map[string]*task)
	r.readings = make(map[string]Reading)
	r.mu.Unlock()

	for _, t := range tasks {
		t.cancel()
	}
	for _, t := range tasks {
		<-t.done
	}
}

// Reading returns the latest reading published for name.
func (r *Registry) Reading(name string) (Reading, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reading, ok := r.readings[name]
	return reading, ok
}

// Running reports whether a task exists for name.
func (r *Registry) Running(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tasks[name]
	return ok
}

// Len returns the number of running tasks.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}
