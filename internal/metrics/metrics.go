package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry = prometheus.NewRegistry()
	initOnce sync.Once

	httpRequestsTotal     *prometheus.CounterVec
	httpRequestDuration   *prometheus.HistogramVec
	httpInFlight          prometheus.Gauge
	upstreamRequestsTotal *prometheus.CounterVec
	upstreamDuration      *prometheus.HistogramVec
	reviewSubmissions     *prometheus.CounterVec
	governanceOutcomes    *prometheus.CounterVec
	journalFailures       prometheus.Counter
)

func initialize() {
	initOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "govai_http_requests_total",
				Help: "Total number of inbound HTTP requests",
			},
			[]string{"method", "route", "status"},
		)
		httpRequestDuration = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "govai_http_request_duration_seconds",
				Help:    "Duration of inbound HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		)
		httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "govai_http_requests_in_flight",
			Help: "Number of inbound HTTP requests being served",
		})
		upstreamRequestsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "govai_upstream_requests_total",
				Help: "Total number of outbound calls to upstream services",
			},
			[]string{"target", "operation", "status"},
		)
		upstreamDuration = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "govai_upstream_request_duration_seconds",
				Help:    "Duration of outbound calls to upstream services in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"target", "operation"},
		)
		reviewSubmissions = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "govai_review_submissions_total",
				Help: "Review submissions forwarded to the governance service",
			},
			[]string{"status"},
		)
		governanceOutcomes = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "govai_generate_governance_total",
				Help: "Governance status of successful generate calls",
			},
			[]string{"status"},
		)
		journalFailures = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "govai_journal_write_failures_total",
			Help: "Access journal entries that could not be written",
		})

		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			httpRequestsTotal,
			httpRequestDuration,
			httpInFlight,
			upstreamRequestsTotal,
			upstreamDuration,
			reviewSubmissions,
			governanceOutcomes,
			journalFailures,
		)
	})
}

// Handler exposes the gateway registry in Prometheus text format.
func Handler() http.Handler {
	initialize()
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}

// Gatherer is the registry backing Handler, for tests.
func Gatherer() prometheus.Gatherer {
	initialize()
	return registry
}

func RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	initialize()
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func IncInFlight() {
	initialize()
	httpInFlight.Inc()
}

func DecInFlight() {
	initialize()
	httpInFlight.Dec()
}

// RecordUpstream records one outbound call. statusCode 0 means no response.
func RecordUpstream(target, operation string, statusCode int, duration time.Duration) {
	initialize()
	status := "error"
	if statusCode > 0 {
		status = strconv.Itoa(statusCode)
	}
	upstreamRequestsTotal.WithLabelValues(target, operation, status).Inc()
	upstreamDuration.WithLabelValues(target, operation).Observe(duration.Seconds())
}

func RecordReviewSubmission(status string) {
	initialize()
	reviewSubmissions.WithLabelValues(status).Inc()
}

func RecordGovernanceOutcome(status string) {
	initialize()
	governanceOutcomes.WithLabelValues(status).Inc()
}

func RecordJournalFailure() {
	initialize()
	journalFailures.Inc()
}
