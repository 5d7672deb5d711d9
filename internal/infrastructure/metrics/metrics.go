package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "valuations"

// Metrics holds all Prometheus metrics. It implements usecase.MetricsRecorder.
type Metrics struct {
	// Reconciliation metrics
	Reconciliations        *prometheus.CounterVec
	ReconciliationDuration *prometheus.HistogramVec

	// Exchange rate metrics
	FXFallbacks *prometheus.CounterVec

	// Aggregate cache metrics
	CacheLookups *prometheus.CounterVec

	// Resync metrics
	Syncs *prometheus.CounterVec

	// Outbox metrics
	EventsPublished *prometheus.CounterVec

	// API metrics
	HTTPRequests         *prometheus.CounterVec
	HTTPDuration         *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Rate limiting metrics
	RateLimitHits prometheus.Counter
}

// New creates all metrics on the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates all metrics on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		Reconciliations: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reconciliations_total",
				Help:      "Reconciliations by mode and outcome",
			},
			[]string{"mode", "outcome"},
		),
		ReconciliationDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "reconciliation_duration_seconds",
				Help:      "Duration of reconciliation calls",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"mode"},
		),

		FXFallbacks: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fx_fallbacks_total",
				Help:      "Conversions that fell back to a rate of 1",
			},
			[]string{"from", "to"},
		),

		CacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "aggregate_cache_lookups_total",
				Help:      "Aggregate cache lookups by view and result",
			},
			[]string{"view", "result"},
		),

		Syncs: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "account_syncs_total",
				Help:      "Account balance recomputations by outcome",
			},
			[]string{"outcome"},
		),

		EventsPublished: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "outbox_events_published_total",
				Help:      "Outbox events handed to the publisher",
			},
			[]string{"event_type", "status"},
		),

		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		}),

		RateLimitHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_hits_total",
			Help:      "Requests rejected by the rate limiter",
		}),
	}
}

// RecordReconciliation counts one reconciliation call.
func (m *Metrics) RecordReconciliation(mode, outcome string, duration time.Duration) {
	m.Reconciliations.WithLabelValues(mode, outcome).Inc()
	m.ReconciliationDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordFXFallback counts a conversion done at rate 1.
func (m *Metrics) RecordFXFallback(from, to string) {
	m.FXFallbacks.WithLabelValues(from, to).Inc()
}

// RecordCacheLookup counts an aggregate cache hit or miss.
func (m *Metrics) RecordCacheLookup(view string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(view, result).Inc()
}

// RecordSync counts one account recomputation.
func (m *Metrics) RecordSync(outcome string) {
	m.Syncs.WithLabelValues(outcome).Inc()
}

// RecordEventPublished counts one outbox event publish attempt.
func (m *Metrics) RecordEventPublished(eventType string, ok bool) {
	m.EventsPublished.WithLabelValues(eventType, strconv.FormatBool(ok)).Inc()
}
