package netclient

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes Prometheus metrics for the request lifecycle. A nil
// *Metrics records nothing.
type Metrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec
	dedupHits        *prometheus.CounterVec
	debugHits        *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
}

// NewMetrics creates a collector on the default registerer.
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsWithRegistry creates a collector using the supplied registerer.
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "netkit_requests_total",
				Help: "Total number of dispatched requests",
			},
			[]string{"method", "status_code"},
		),
		requestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "netkit_request_duration_seconds",
				Help:    "Duration of dispatched requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "status_code"},
		),
		requestsInFlight: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "netkit_requests_in_flight",
				Help: "Number of dispatches currently in flight",
			},
			[]string{"method"},
		),
		dedupHits: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "netkit_deduplication_hits_total",
				Help: "Total number of callers that joined an in-flight request",
			},
			[]string{"method"},
		),
		debugHits: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "netkit_debug_responses_total",
				Help: "Total number of requests answered by the debug provider",
			},
			[]string{"method"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "netkit_errors_total",
				Help: "Total number of failed dispatches by kind",
			},
			[]string{"kind", "method"},
		),
	}
}

func (m *Metrics) recordStart(method string) {
	if m == nil {
		return
	}
	m.requestsInFlight.WithLabelValues(method).Inc()
}

func (m *Metrics) recordDone(method string, status int, took time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.requestsInFlight.WithLabelValues(method).Dec()
	m.requestsTotal.WithLabelValues(method, code).Inc()
	m.requestDuration.WithLabelValues(method, code).Observe(took.Seconds())
}

func (m *Metrics) recordDedupHit(method string) {
	if m == nil {
		return
	}
	m.dedupHits.WithLabelValues(method).Inc()
}

func (m *Metrics) recordDebugHit(method string) {
	if m == nil {
		return
	}
	m.debugHits.WithLabelValues(method).Inc()
}

func (m *Metrics) recordError(kind Kind, method string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(kind.String(), method).Inc()
}
