package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/ladyxxa/Web4/internal/events"
	"github.com/ladyxxa/Web4/internal/observability/metrics"
)

// Publisher forwards dashboard events to the broker. It implements
// events.EventConsumer and is meant to be registered on the event bus.
type Publisher struct {
	client  Client
	prefix  string
	timeout time.Duration
	metrics *metrics.MQTTMetrics

	mu    sync.Mutex
	known map[string]struct{} // cities that may have retained topics
}

// citiesPayload is published on <prefix>/cities
type citiesPayload struct {
	Cities      []string  `json:"cities"`
	ActiveIndex int       `json:"activeIndex"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewPublisher creates a publisher that writes below prefix. m may be nil.
func NewPublisher(c Client, prefix string, m *metrics.MQTTMetrics) *Publisher {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		prefix = DefaultConfig().Topic
	}
	return &Publisher{
		client:  c,
		prefix:  prefix,
		timeout: DefaultConfig().PublishTimeout,
		metrics: m,
		known:   make(map[string]struct{}),
	}
}

// Name implements events.EventConsumer
func (p *Publisher) Name() string { return "mqtt" }

// ProcessEvent publishes snapshots, clock readings and list changes.
// Other event kinds are ignored. Events are dropped while disconnected.
// A list change also clears the weather and clock topics of cities that
// are no longer tracked.
func (p *Publisher) ProcessEvent(event events.Event) error {
	topic, payload, ok, err := p.message(event)
	if err != nil || !ok {
		return err
	}
	if !p.client.IsConnected() {
		getLogger().Debug("broker not connected, dropping message", "topic", topic)
		return nil
	}

	switch event.Kind {
	case events.WeatherUpdated, events.ClockTick:
		p.mu.Lock()
		p.known[event.City] = struct{}{}
		p.mu.Unlock()
	case events.CitiesChanged:
		if err := p.clearRemoved(event.Cities); err != nil {
			return err
		}
	}

	if err := p.publish(topic, payload); err != nil {
		return err
	}
	if p.metrics != nil {
		p.metrics.IncrementMessagesByKind(string(event.Kind))
	}
	return nil
}

// clearRemoved publishes empty payloads on the topics of known cities that
// are missing from cities. A city stays known until its topics are cleared.
func (p *Publisher) clearRemoved(cities []string) error {
	p.mu.Lock()
	var removed []string
	for name := range p.known {
		if !slices.Contains(cities, name) {
			removed = append(removed, name)
		}
	}
	for _, name := range cities {
		p.known[name] = struct{}{}
	}
	p.mu.Unlock()
	slices.Sort(removed)

	for _, name := range removed {
		for _, kind := range []string{"weather", "clock"} {
			if err := p.publish(p.Topic(kind, name), ""); err != nil {
				return fmt.Errorf("clearing topics of %s: %w", name, err)
			}
		}
		p.mu.Lock()
		delete(p.known, name)
		p.mu.Unlock()
		getLogger().Debug("cleared topics of removed city", "city", name)
	}
	return nil
}

func (p *Publisher) publish(topic, payload string) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	return p.client.Publish(ctx, topic, payload)
}

// message maps an event to its topic and JSON payload. ok is false for
// events that are not published.
func (p *Publisher) message(event events.Event) (topic, payload string, ok bool, err error) {
	var body any
	switch event.Kind {
	case events.WeatherUpdated:
		if event.Snapshot == nil {
			return "", "", false, nil
		}
		topic = p.Topic("weather", event.City)
		body = event.Snapshot
	case events.ClockTick:
		if event.Reading == nil {
			return "", "", false, nil
		}
		topic = p.Topic("clock", event.City)
		body = event.Reading
	case events.CitiesChanged:
		topic = p.prefix + "/cities"
		body = citiesPayload{Cities: event.Cities, ActiveIndex: event.ActiveIndex, Timestamp: event.Timestamp}
	default:
		return "", "", false, nil
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", "", false, fmt.Errorf("encoding %s payload: %w", event.Kind, err)
	}
	return topic, string(data), true, nil
}

// Topic returns <prefix>/<kind>/<city> with the city made safe for use as a
// single topic level.
func (p *Publisher) Topic(kind, city string) string {
	return p.prefix + "/" + kind + "/" + topicLevel(city)
}

var topicReplacer = strings.NewReplacer("/", "_", "+", "_", "#", "_")

func topicLevel(city string) string {
	city = strings.TrimSpace(city)
	if city == "" {
		return "_"
	}
	return topicReplacer.Replace(city)
}
