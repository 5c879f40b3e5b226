package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BotMetrics holds the command, gallery and provider collectors.
type BotMetrics struct {
	Commands           *prometheus.CounterVec
	CommandDuration    *prometheus.HistogramVec
	Throttled          *prometheus.CounterVec
	GalleryTransitions *prometheus.CounterVec
	InspiroRequests    *prometheus.CounterVec
}

// NewBotMetrics creates and registers the bot metrics on reg.
func NewBotMetrics(reg prometheus.Registerer) *BotMetrics {
	m := &BotMetrics{
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Command invocations by command and outcome.",
		}, []string{"command", "outcome"}),
		CommandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Time from admission to response action, per command.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 12},
		}, []string{"command"}),
		Throttled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cooldown_throttled_total",
			Help:      "Invocations rejected by a cooldown, per command.",
		}, []string{"command"}),
		GalleryTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gallery_transitions_total",
			Help:      "Gallery button presses by navigation and outcome.",
		}, []string{"nav", "outcome"}),
		InspiroRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inspiro_requests_total",
			Help:      "Requests to the quote provider by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
	}
	reg.MustRegister(m.Commands, m.CommandDuration, m.Throttled, m.GalleryTransitions, m.InspiroRequests)
	return m
}

// ObserveCommand implements command.Observer.
func (m *BotMetrics) ObserveCommand(command, outcome string, took time.Duration) {
	m.Commands.WithLabelValues(command, outcome).Inc()
	m.CommandDuration.WithLabelValues(command).Observe(took.Seconds())
	if outcome == "rate_limited" {
		m.Throttled.WithLabelValues(command).Inc()
	}
}

// ObserveRequest implements inspiro.Observer.
func (m *BotMetrics) ObserveRequest(endpoint, outcome string) {
	m.InspiroRequests.WithLabelValues(endpoint, outcome).Inc()
}

func (m *BotMetrics) ObserveTransition(nav, outcome string) {
	m.GalleryTransitions.WithLabelValues(nav, outcome).Inc()
}

// RegisterGauges exposes live sizes read at scrape time.
func RegisterGauges(reg prometheus.Registerer, sessions, cooldownRecords func() int) {
	reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gallery_sessions_active",
			Help:      "Gallery sessions currently held in memory.",
		}, func() float64 { return float64(sessions()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cooldown_records",
			Help:      "Cooldown records currently held in memory.",
		}, func() float64 { return float64(cooldownRecords()) }),
	)
}
