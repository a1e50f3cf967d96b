// Package metrics provides Prometheus metrics for the scaffold server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scaffold_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scaffold_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// LLM metrics
	llmRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scaffold_llm_requests_total",
			Help: "Total LLM generation calls",
		},
		[]string{"stage", "result"},
	)

	llmRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scaffold_llm_request_duration_seconds",
			Help:    "LLM generation latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80, 160},
		},
		[]string{"stage"},
	)

	fallbackTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scaffold_skeleton_fallbacks_total",
			Help: "Code generations that fell back to the default skeleton",
		},
	)

	// Tree metrics
	treeOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scaffold_tree_operations_total",
			Help: "Total tree mutations",
		},
		[]string{"op", "status"},
	)

	treeFiles = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scaffold_tree_files",
			Help:    "File count of trees produced by generation or import",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	importsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scaffold_imports_total",
			Help: "Total project imports",
		},
		[]string{"source", "status"},
	)

	// Database metrics
	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scaffold_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query"},
	)

	// Quota metrics
	rateLimitHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scaffold_rate_limit_hits_total",
			Help: "Total rate limit rejections (429s)",
		},
	)

	authAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scaffold_auth_attempts_total",
			Help: "Total authentication attempts",
		},
		[]string{"result"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, path string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(code)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordLLMRequest records one generation stage.
func RecordLLMRequest(stage string, duration time.Duration, success bool) {
	llmRequestsTotal.WithLabelValues(stage, status(success)).Inc()
	llmRequestDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordFallback records a skeleton fallback.
func RecordFallback() {
	fallbackTotal.Inc()
}

// RecordTreeOperation records a tree mutation.
func RecordTreeOperation(op string, success bool) {
	treeOperationsTotal.WithLabelValues(op, status(success)).Inc()
}

// ObserveTreeFiles records the size of a produced tree.
func ObserveTreeFiles(files int) {
	treeFiles.Observe(float64(files))
}

// RecordImport records a zip or GitHub import.
func RecordImport(source string, success bool) {
	importsTotal.WithLabelValues(source, status(success)).Inc()
}

// RecordDBQuery records a database query duration.
func RecordDBQuery(query string, duration time.Duration) {
	dbQueryDuration.WithLabelValues(query).Observe(duration.Seconds())
}

// RecordRateLimitHit records a 429 rejection.
func RecordRateLimitHit() {
	rateLimitHitsTotal.Inc()
}

// RecordAuthAttempt records an authentication attempt.
func RecordAuthAttempt(success bool) {
	authAttemptsTotal.WithLabelValues(status(success)).Inc()
}
