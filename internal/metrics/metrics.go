// Package metrics exposes Prometheus collectors for fetches, extraction, media and tasks.
// apodex has no server role, so the registry is flushed to a node-exporter textfile.
package metrics

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Fetch statuses.
const (
	FetchFound    = "found"
	FetchNotFound = "not_found"
	FetchError    = "error"
)

// Media cache tiers.
const (
	TierVolatile   = "volatile"
	TierPersistent = "persistent"
	TierRemote     = "remote"
)

var (
	fetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apodex_fetches_total",
			Help: "Total number of remote fetches, labeled by site and status.",
		},
		[]string{"site", "status"},
	)

	fetchBytesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apodex_fetch_bytes_total",
			Help: "Total number of bytes fetched, labeled by site.",
		},
		[]string{"site"},
	)

	rateLimitDelaySeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "apodex_rate_limit_delay_seconds",
			Help:    "Histogram of rate limit wait durations.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
	)

	extractionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apodex_extractions_total",
			Help: "Total number of page extractions, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	mediaLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apodex_media_lookups_total",
			Help: "Media cache lookups, labeled by tier and result.",
		},
		[]string{"tier", "result"},
	)

	tasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apodex_tasks_total",
			Help: "Total number of background tasks finished, labeled by task and outcome.",
		},
		[]string{"task", "outcome"},
	)

	activeTasks = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "apodex_active_tasks",
			Help: "Number of background tasks currently holding a pool slot.",
		},
	)

	once sync.Once
)

// Init registers the collectors with the default registry.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			fetchesTotal,
			fetchBytesTotal,
			rateLimitDelaySeconds,
			extractionsTotal,
			mediaLookupsTotal,
			tasksTotal,
			activeTasks,
		)
	})
}

// WriteTextfile dumps the default registry in the text exposition format.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// ObserveFetch counts one physical fetch.
func ObserveFetch(rawURL, status string, bytesFetched int) {
	site := SanitizeSite(rawURL)
	fetchesTotal.WithLabelValues(site, status).Inc()
	if bytesFetched > 0 {
		fetchBytesTotal.WithLabelValues(site).Add(float64(bytesFetched))
	}
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(duration time.Duration) {
	rateLimitDelaySeconds.Observe(duration.Seconds())
}

// ObserveExtraction counts one extraction by outcome (ok, warning, error).
func ObserveExtraction(outcome string) {
	extractionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveMediaLookup counts a media cache lookup against one tier.
func ObserveMediaLookup(tier string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	mediaLookupsTotal.WithLabelValues(tier, result).Inc()
}

// ObserveTask counts a finished task.
func ObserveTask(task, outcome string) {
	tasksTotal.WithLabelValues(task, outcome).Inc()
}

// IncActiveTasks increments the active tasks gauge.
func IncActiveTasks() {
	activeTasks.Inc()
}

// DecActiveTasks decrements the active tasks gauge.
func DecActiveTasks() {
	activeTasks.Dec()
}
