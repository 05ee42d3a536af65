// Package metrics provides Prometheus instrumentation for Preflight.
package metrics

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, route pattern and status class.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "preflight",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, route pattern, and status class.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and route pattern.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "preflight",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// RateLimitedTotal counts requests rejected by the per-client limiter.
	RateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "preflight",
		Name:      "rate_limited_total",
		Help:      "Total requests rejected by the per-client rate limiter.",
	})

	// AnalysesTotal counts completed analyses by verdict label.
	AnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "preflight",
			Name:      "analyses_total",
			Help:      "Total completed analyses by risk label.",
		},
		[]string{"risk"},
	)

	// AnalysisFailuresTotal counts analyses that ended in an internal failure.
	AnalysisFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "preflight",
		Name:      "analysis_failures_total",
		Help:      "Total analyses that failed with an internal error.",
	})

	// PhaseDuration observes time spent in each pipeline phase.
	PhaseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "preflight",
			Name:      "phase_duration_seconds",
			Help:      "Pipeline phase duration in seconds.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"phase"},
	)

	// PhaseDegradedTotal counts phases that fell back to their default after a panic.
	PhaseDegradedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "preflight",
			Name:      "phase_degraded_total",
			Help:      "Total pipeline phases replaced by their default after a failure.",
		},
		[]string{"phase"},
	)

	// UpstreamFailuresTotal counts failed upstream calls by call name.
	UpstreamFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "preflight",
			Name:      "upstream_failures_total",
			Help:      "Total failed upstream calls by call name.",
		},
		[]string{"call"},
	)

	// EventsPublishedTotal counts event bus publications by topic and result.
	EventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "preflight",
			Name:      "events_published_total",
			Help:      "Total event bus publications by topic and result.",
		},
		[]string{"topic", "result"},
	)

	// VerificationCacheTotal counts verification cache lookups by outcome.
	VerificationCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "preflight",
			Name:      "verification_cache_total",
			Help:      "Verification cache lookups by result (hit, miss, error).",
		},
		[]string{"result"},
	)

	// IntelRecords reports the size of the loaded scam intelligence index.
	IntelRecords = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "preflight",
			Name:      "intel_records",
			Help:      "Number of loaded scam intelligence entries by kind.",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		RateLimitedTotal,
		AnalysesTotal,
		AnalysisFailuresTotal,
		PhaseDuration,
		PhaseDegradedTotal,
		UpstreamFailuresTotal,
		EventsPublishedTotal,
		VerificationCacheTotal,
		IntelRecords,
	)
}

// ObservePhase records the time elapsed since start for phase.
func ObservePhase(phase string, start time.Time) {
	PhaseDuration.WithLabelValues(phase).Observe(time.Since(start).Seconds())
}

// SetIntelRecords publishes the index size.
func SetIntelRecords(wallets, contracts, clusters, clusterMembers int) {
	IntelRecords.WithLabelValues("wallet").Set(float64(wallets))
	IntelRecords.WithLabelValues("contract").Set(float64(contracts))
	IntelRecords.WithLabelValues("cluster").Set(float64(clusters))
	IntelRecords.WithLabelValues("cluster_member").Set(float64(clusterMembers))
}

// Middleware records request count and latency per chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := routePattern(r)
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		HTTPRequestsTotal.WithLabelValues(r.Method, path, statusBucket(ww.Status())).Inc()
	})
}

// Handler returns the Prometheus metrics HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// routePattern uses the matched route, not the raw path, to bound label cardinality.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// statusBucket groups HTTP status codes into buckets (2xx, 3xx, 4xx, 5xx).
func statusBucket(code int) string {
	switch {
	case code == 0:
		return "2xx"
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
