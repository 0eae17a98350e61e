package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "courtfinder"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint and status code.",
		},
		[]string{"endpoint", "code"},
	)

	providerFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_fetches_total",
			Help:      "Reservation fetches by outcome (ok, empty, unavailable, integrity_error, cache_hit).",
		},
		[]string{"outcome"},
	)

	providerFetchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_fetch_duration_seconds",
			Help:      "Duration of reservation fetches including retries.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	queries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Engine queries by kind and result.",
		},
		[]string{"kind", "result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, providerFetches, providerFetchDuration, queries)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string, code string) {
	httpRequests.WithLabelValues(endpoint, code).Inc()
}

// ObserveFetch records one reservation fetch.
func ObserveFetch(outcome string, dur time.Duration) {
	providerFetches.WithLabelValues(outcome).Inc()
	providerFetchDuration.Observe(dur.Seconds())
}

// IncQuery counts an engine query.
func IncQuery(kind, result string) {
	queries.WithLabelValues(kind, result).Inc()
}
