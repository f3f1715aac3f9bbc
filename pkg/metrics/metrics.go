// Package metrics exposes the gateway's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Command outcomes for the commands_total counter.
const (
	OutcomeSuccess     = "success"
	OutcomeError       = "error"
	OutcomeUnsupported = "unsupported"
)

// Metrics holds the gateway's metric set.
type Metrics struct {
	SessionsActive  prometheus.Gauge
	CommandsTotal   *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec
	EventsForwarded *prometheus.CounterVec
	EventsDropped   prometheus.Counter
	MediaBytes      *prometheus.CounterVec
}

// New registers the gateway metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "sechub",
			Subsystem: "sessions",
			Name:      "active",
			Help:      "Number of connected protocol sessions",
		}),

		CommandsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sechub",
			Subsystem: "commands",
			Name:      "total",
			Help:      "Commands dispatched, by namespace and outcome",
		}, []string{"namespace", "outcome"}),

		CommandDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sechub",
			Subsystem: "commands",
			Name:      "duration_seconds",
			Help:      "Command handling duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"namespace"}),

		EventsForwarded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sechub",
			Subsystem: "events",
			Name:      "forwarded_total",
			Help:      "Event envelopes delivered to sessions, by source",
		}, []string{"source"}),

		EventsDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "sechub",
			Subsystem: "events",
			Name:      "dropped_total",
			Help:      "Driver events with no wire mapping",
		}),

		MediaBytes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sechub",
			Subsystem: "media",
			Name:      "bytes_total",
			Help:      "Binary media chunk bytes forwarded, by kind",
		}, []string{"kind"}),
	}
}

// NewUnregistered builds a metric set on a private registry, for tests.
func NewUnregistered() *Metrics {
	return New(prometheus.NewRegistry())
}
