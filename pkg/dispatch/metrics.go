package dispatch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "dispatch"

// Metrics holds the Prometheus collectors of the dispatch pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	EventsReceived   prometheus.Counter
	EventsMalformed  prometheus.Counter
	SendAttempts     *prometheus.CounterVec
	Deliveries       *prometheus.CounterVec
	DeliveryDuration prometheus.Histogram
	InFlight         prometheus.Gauge
	SweepResumed     prometheus.Counter
	DBConnPoolStats  *prometheus.GaugeVec
}

// NewMetrics registers the dispatch collectors with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		EventsReceived: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_received_total",
			Help:      "Total number of payloads received on the notification channel",
		}),
		EventsMalformed: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_malformed_total",
			Help:      "Total number of channel payloads dropped as malformed",
		}),
		SendAttempts: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "send_attempts_total",
				Help:      "Total number of email send attempts",
			},
			[]string{"status"}, // ok, error
		),
		Deliveries: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "deliveries_total",
				Help:      "Total number of processed notifications by result",
			},
			[]string{"result"},
		),
		DeliveryDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "delivery_duration_seconds",
			Help:      "Time from claim to recorded outcome",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		InFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "deliveries_in_flight",
			Help:      "Number of notifications currently being processed",
		}),
		SweepResumed: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "sweep_resumed_total",
			Help:      "Total number of pending notifications handed to the processor by the recovery sweep",
		}),
		DBConnPoolStats: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "db_connection_pool",
				Help:      "Database connection pool statistics",
			},
			[]string{"stat"}, // total, acquired, idle, acquire_count, acquire_duration_ms
		),
	}
}

func (m *Metrics) eventReceived() {
	if m != nil {
		m.EventsReceived.Inc()
	}
}

func (m *Metrics) eventMalformed() {
	if m != nil {
		m.EventsMalformed.Inc()
	}
}

func (m *Metrics) sendAttempt(err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.SendAttempts.WithLabelValues(status).Inc()
}

func (m *Metrics) delivered(r Result, d time.Duration) {
	if m == nil {
		return
	}
	m.Deliveries.WithLabelValues(r.String()).Inc()
	if r != ResultSkipped {
		m.DeliveryDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) inFlight(delta float64) {
	if m != nil {
		m.InFlight.Add(delta)
	}
}

func (m *Metrics) sweepResumed(n int) {
	if m != nil {
		m.SweepResumed.Add(float64(n))
	}
}

// RecordDBPoolStats records database connection pool statistics.
func (m *Metrics) RecordDBPoolStats(total, acquired, idle int32, acquireCount int64, acquireDuration time.Duration) {
	if m == nil {
		return
	}
	m.DBConnPoolStats.WithLabelValues("total").Set(float64(total))
	m.DBConnPoolStats.WithLabelValues("acquired").Set(float64(acquired))
	m.DBConnPoolStats.WithLabelValues("idle").Set(float64(idle))
	m.DBConnPoolStats.WithLabelValues("acquire_count").Set(float64(acquireCount))
	m.DBConnPoolStats.WithLabelValues("acquire_duration_ms").Set(float64(acquireDuration.Milliseconds()))
}
