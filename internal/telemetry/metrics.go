// internal/telemetry/metrics.go
package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "omnilens"

var (
	githubRequests        *prometheus.CounterVec
	githubRequestDuration *prometheus.HistogramVec
	httpRequestDuration   *prometheus.HistogramVec
	workflowCacheLookups  *prometheus.CounterVec
)

func init() {
	githubRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "github_requests_total",
			Help:      "GitHub REST API calls by endpoint and response code (0 for transport errors)",
		}, []string{"endpoint", "code"})
	prometheus.MustRegister(githubRequests)

	githubRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "github_request_duration_seconds",
			Help:      "Latency of GitHub REST API calls",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"endpoint"})
	prometheus.MustRegister(githubRequestDuration)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latency of API requests by route pattern",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "code"})
	prometheus.MustRegister(httpRequestDuration)

	workflowCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_cache_lookups_total",
			Help:      "Workflow definition cache lookups by result (hit, miss)",
		}, []string{"result"})
	prometheus.MustRegister(workflowCacheLookups)
}

// ObserveGithubRequest records one GitHub API call.
func ObserveGithubRequest(endpoint string, code int, elapsed time.Duration) {
	githubRequests.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
	githubRequestDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// ObserveHTTPRequest records one served API request.
func ObserveHTTPRequest(route, method string, code int, elapsed time.Duration) {
	httpRequestDuration.WithLabelValues(route, method, strconv.Itoa(code)).Observe(elapsed.Seconds())
}

// RecordCacheLookup counts a workflow cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		workflowCacheLookups.WithLabelValues("hit").Inc()
		return
	}
	workflowCacheLookups.WithLabelValues("miss").Inc()
}
