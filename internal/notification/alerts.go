package notification

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"text/template"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/ladyxxa/Web4/internal/conf"
	"github.com/ladyxxa/Web4/internal/events"
	"github.com/ladyxxa/Web4/internal/observability/metrics"
	"github.com/ladyxxa/Web4/internal/weather"
)

const (
	// DefaultMinCode is the first thunderstorm code
	DefaultMinCode = 95
	// DefaultRepeatWindow suppresses the same alert for a city for this long
	DefaultRepeatWindow = 3 * time.Hour
	// DefaultSendTimeout bounds a single delivery
	DefaultSendTimeout = 15 * time.Second

	defaultTitleTemplate   = "Severe weather in {{.City}}"
	defaultMessageTemplate = "{{.Condition}}, {{.TempC}}°C, wind {{printf \"%.0f\" .WindKph}} km/h"
)

// AlertData is available to the title and message templates.
type AlertData struct {
	City      string
	Code      int
	Condition string
	TempC     int
	WindKph   float64
}

// AlertConsumer turns severe weather snapshots into push alerts. It
// implements events.EventConsumer.
type AlertConsumer struct {
	sender  Sender
	breaker *CircuitBreaker
	minCode int
	timeout time.Duration
	seen    *cache.Cache
	title   *template.Template
	message *template.Template
	metrics *metrics.NotificationMetrics
}

// AlertOption configures an AlertConsumer
type AlertOption func(*AlertConsumer)

// WithRepeatWindow sets how long a repeated alert is suppressed
func WithRepeatWindow(d time.Duration) AlertOption {
	return func(c *AlertConsumer) { c.seen = cache.New(d, 2*d) }
}

// WithBreakerConfig replaces the default circuit breaker configuration
func WithBreakerConfig(cfg CircuitBreakerConfig) AlertOption {
	return func(c *AlertConsumer) { c.breaker = NewCircuitBreaker(cfg, c.sender.Name()) }
}

// WithTemplates overrides the title and message templates
func WithTemplates(title, message string) AlertOption {
	return func(c *AlertConsumer) {
		if t, err := template.New("title").Parse(title); err == nil {
			c.title = t
		} else {
			getLogger().Warn("invalid alert title template, using default", "error", err)
		}
		if t, err := template.New("message").Parse(message); err == nil {
			c.message = t
		} else {
			getLogger().Warn("invalid alert message template, using default", "error", err)
		}
	}
}

// AlertOptions returns the options that apply the tuning in settings.
// Zero values keep the defaults.
func AlertOptions(settings conf.AlertSettings) []AlertOption {
	var opts []AlertOption
	if settings.RepeatWindow > 0 {
		opts = append(opts, WithRepeatWindow(settings.RepeatWindow))
	}
	if settings.Title != "" || settings.Message != "" {
		title, message := settings.Title, settings.Message
		if title == "" {
			title = defaultTitleTemplate
		}
		if message == "" {
			message = defaultMessageTemplate
		}
		opts = append(opts, WithTemplates(title, message))
	}
	if settings.MaxFailures > 0 {
		cfg := DefaultCircuitBreakerConfig()
		cfg.MaxFailures = settings.MaxFailures
		opts = append(opts, WithBreakerConfig(cfg))
	}
	return opts
}

// NewAlertConsumer creates a consumer that sends through sender. m may be nil.
func NewAlertConsumer(sender Sender, settings conf.AlertSettings, m *metrics.NotificationMetrics, opts ...AlertOption) *AlertConsumer {
	minCode := settings.MinCode
	if minCode <= 0 {
		minCode = DefaultMinCode
	}
	c := &AlertConsumer{
		sender:  sender,
		breaker: NewCircuitBreaker(DefaultCircuitBreakerConfig(), sender.Name()),
		minCode: minCode,
		timeout: DefaultSendTimeout,
		seen:    cache.New(DefaultRepeatWindow, 2*DefaultRepeatWindow),
		title:   template.Must(template.New("title").Parse(defaultTitleTemplate)),
		message: template.Must(template.New("message").Parse(defaultMessageTemplate)),
		metrics: m,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements events.EventConsumer
func (c *AlertConsumer) Name() string { return "weather-alerts" }

// ProcessEvent sends an alert for WeatherUpdated events whose current
// condition code is at or above the threshold. A city and code pair is
// alerted at most once per repeat window.
func (c *AlertConsumer) ProcessEvent(event events.Event) error {
	if event.Kind != events.WeatherUpdated || event.Snapshot == nil {
		return nil
	}
	snap := event.Snapshot
	if snap.Current.ConditionCode < c.minCode {
		return nil
	}

	city := event.City
	if city == "" {
		city = snap.CityName
	}
	key := city + "|" + strconv.Itoa(snap.Current.ConditionCode)

	// Add fails when the key is present and unexpired
	if err := c.seen.Add(key, struct{}{}, cache.DefaultExpiration); err != nil {
		if c.metrics != nil {
			c.metrics.RecordSuppressed()
		}
		return nil
	}

	title, message, err := c.render(alertData(city, snap))
	if err != nil {
		c.seen.Delete(key)
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	err = c.breaker.Call(ctx, func(ctx context.Context) error {
		return c.sender.Send(ctx, title, message)
	})
	if err != nil {
		// allow the next update to retry
		c.seen.Delete(key)
		if c.metrics != nil {
			c.metrics.RecordAlert("failed")
		}
		return fmt.Errorf("sending alert for %s: %w", city, err)
	}

	if c.metrics != nil {
		c.metrics.RecordAlert("sent")
	}
	getLogger().Info("severe weather alert sent", "city", city, "code", snap.Current.ConditionCode)
	return nil
}

func alertData(city string, snap *weather.Snapshot) AlertData {
	return AlertData{
		City:      city,
		Code:      snap.Current.ConditionCode,
		Condition: snap.Current.ConditionText,
		TempC:     snap.Current.TempC,
		WindKph:   snap.Current.WindKph,
	}
}

func (c *AlertConsumer) render(data AlertData) (title, message string, err error) {
	var buf bytes.Buffer
	if err := c.title.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("rendering alert title: %w", err)
	}
	title = buf.String()

	buf.Reset()
	if err := c.message.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("rendering alert message: %w", err)
	}
	return title, buf.String(), nil
}
