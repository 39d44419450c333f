package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RFIDMetrics records the outcome of the event-ingestion pipeline and the
// best-effort notification dispatch.
type RFIDMetrics struct {
	eventDuration *prometheus.HistogramVec
	eventOutcome  *prometheus.CounterVec
	notifyOutcome *prometheus.CounterVec
}

// NewRFIDMetrics registers the pipeline metrics on the provided registerer.
func NewRFIDMetrics(reg prometheus.Registerer) *RFIDMetrics {
	if reg == nil {
		return &RFIDMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rfid_event_duration_seconds",
		Help:    "Duration of RFID event processing in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"reader"})
	outcome := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rfid_event_total",
		Help: "RFID events by terminal outcome.",
	}, []string{"reader", "outcome"})
	notify := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notify_dispatch_total",
		Help: "Customer notification attempts by result.",
	}, []string{"result"})
	reg.MustRegister(duration, outcome, notify)
	return &RFIDMetrics{
		eventDuration: duration,
		eventOutcome:  outcome,
		notifyOutcome: notify,
	}
}

// ObserveEvent records one processed event.
func (m *RFIDMetrics) ObserveEvent(reader, outcome string, duration time.Duration) {
	if m == nil || m.eventDuration == nil {
		return
	}
	reader = normalizeLabel(reader)
	m.eventDuration.WithLabelValues(reader).Observe(duration.Seconds())
	m.eventOutcome.WithLabelValues(reader, normalizeLabel(outcome)).Inc()
}

// ObserveNotify records one notification attempt result (ok/skipped/error).
func (m *RFIDMetrics) ObserveNotify(result string) {
	if m == nil || m.notifyOutcome == nil {
		return
	}
	m.notifyOutcome.WithLabelValues(normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
