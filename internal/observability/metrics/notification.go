package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// NotificationMetrics tracks severe-weather alert delivery.
type NotificationMetrics struct {
	alertsSentTotal       *prometheus.CounterVec
	alertsSuppressedTotal prometheus.Counter
}

// NewNotificationMetrics creates and registers alert metrics.
func NewNotificationMetrics(registry *prometheus.Registry) (*NotificationMetrics, error) {
	m := &NotificationMetrics{
		alertsSentTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weather_alerts_sent_total",
			Help: "Total number of severe-weather alerts sent",
		}, []string{"status"}),
		alertsSuppressedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "weather_alerts_suppressed_total",
			Help: "Alerts skipped because the same condition was already reported",
		}),
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Describe implements the Collector interface
func (m *NotificationMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.alertsSentTotal.Describe(ch)
	m.alertsSuppressedTotal.Describe(ch)
}

// Collect implements the Collector interface
func (m *NotificationMetrics) Collect(ch chan<- prometheus.Metric) {
	m.alertsSentTotal.Collect(ch)
	m.alertsSuppressedTotal.Collect(ch)
}

// RecordAlert records an alert delivery attempt
func (m *NotificationMetrics) RecordAlert(status string) {
	m.alertsSentTotal.WithLabelValues(status).Inc()
}

// RecordSuppressed records an alert skipped as a repeat
func (m *NotificationMetrics) RecordSuppressed() {
	m.alertsSuppressedTotal.Inc()
}
