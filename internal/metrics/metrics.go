// Package metrics exposes Prometheus collectors for the digest service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PagesFetched tracks listing and detail pages fetched from the origin site.
	PagesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsdigest_pages_fetched_total",
		Help: "Total number of origin pages fetched, labeled by kind (list/detail).",
	}, []string{"kind"})

	// FetchErrors tracks failed origin fetches.
	FetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsdigest_fetch_errors_total",
		Help: "Total number of failed origin fetches, labeled by kind.",
	}, []string{"kind"})

	// ItemsExtracted tracks announcements that survived extraction and matched
	// the target date.
	ItemsExtracted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newsdigest_items_extracted_total",
		Help: "Total number of announcements extracted and date-matched.",
	})

	// GenerationCalls tracks summarize/answer calls to the generation backend.
	GenerationCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsdigest_generation_calls_total",
		Help: "Total number of generation backend calls, labeled by operation.",
	}, []string{"op"})

	// GenerationFailures tracks failed generation backend calls.
	GenerationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsdigest_generation_failures_total",
		Help: "Total number of failed generation backend calls, labeled by operation.",
	}, []string{"op"})

	// DailyJobs tracks orchestrator runs by outcome (success/no_news/error).
	DailyJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsdigest_daily_jobs_total",
		Help: "Total number of daily job runs, labeled by outcome.",
	}, []string{"outcome"})

	// HTTPRequestDuration observes API request latency by method, route and
	// status code.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "newsdigest_http_request_duration_seconds",
		Help:    "API request latency, labeled by method, route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// ObserveHTTPRequest records one completed API request.
func ObserveHTTPRequest(method, route string, status int, seconds float64) {
	HTTPRequestDuration.WithLabelValues(method, route, statusText(status)).Observe(seconds)
}

func statusText(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
