package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics using Prometheus.
// A nil *Recorder records nothing.
type Recorder struct {
	attempts  *prometheus.CounterVec
	served    *prometheus.CounterVec
	cacheOps  *prometheus.CounterVec
	exhausted *prometheus.CounterVec
	latency   *prometheus.HistogramVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpInFlight *prometheus.GaugeVec
	httpSize     *prometheus.HistogramVec
}

// New creates a recorder whose collectors are registered on reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		attempts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulsedesk_provider_attempts_total",
				Help: "Provider attempts by outcome (ok or failure kind)",
			},
			[]string{"category", "provider", "outcome"},
		),
		served: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulsedesk_responses_served_total",
				Help: "Responses served by provenance",
			},
			[]string{"category", "source"},
		),
		cacheOps: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulsedesk_cache_operations_total",
				Help: "Cache store operations",
			},
			[]string{"op", "result"},
		),
		exhausted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulsedesk_exhausted_total",
				Help: "Requests where every provider failed and no cache entry existed",
			},
			[]string{"category"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pulsedesk_provider_duration_seconds",
				Help:    "Duration of provider calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 7, 10},
			},
			[]string{"category", "provider"},
		),
		httpRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		httpDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"route", "method", "class"},
		),
		httpInFlight: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "http_in_flight_requests",
				Help: "Current number of in-flight HTTP requests",
			},
			[]string{"route", "method"},
		),
		httpSize: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{200, 500, 1_000, 2_000, 5_000, 10_000, 50_000, 100_000, 500_000},
			},
			[]string{"route", "method", "class"},
		),
	}
}

// RecordAttempt records one provider call; outcome is "ok", "skipped" or a failure kind.
func (r *Recorder) RecordAttempt(category, provider, outcome string, seconds float64) {
	if r == nil {
		return
	}
	r.attempts.WithLabelValues(category, provider, outcome).Inc()
	if seconds > 0 {
		r.latency.WithLabelValues(category, provider).Observe(seconds)
	}
}

// RecordServed records which source answered a request.
func (r *Recorder) RecordServed(category, source string) {
	if r == nil {
		return
	}
	r.served.WithLabelValues(category, source).Inc()
}

// RecordCache records a cache get/set result.
func (r *Recorder) RecordCache(op, result string) {
	if r == nil {
		return
	}
	r.cacheOps.WithLabelValues(op, result).Inc()
}

// RecordExhausted records a total exhaustion.
func (r *Recorder) RecordExhausted(category string) {
	if r == nil {
		return
	}
	r.exhausted.WithLabelValues(category).Inc()
}

// HTTPStarted marks a request in flight.
func (r *Recorder) HTTPStarted(route, method string) {
	if r == nil {
		return
	}
	r.httpInFlight.WithLabelValues(route, method).Inc()
}

// HTTPFinished records a completed request.
func (r *Recorder) HTTPFinished(route, method, status, class string, seconds float64, bytes int64) {
	if r == nil {
		return
	}
	r.httpInFlight.WithLabelValues(route, method).Dec()
	r.httpRequests.WithLabelValues(route, method, status).Inc()
	r.httpDuration.WithLabelValues(route, method, class).Observe(seconds)
	r.httpSize.WithLabelValues(route, method, class).Observe(float64(bytes))
}
