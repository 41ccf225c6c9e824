package service

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cloo-solutions/prepwise/internal/domain"
)

// Metric names as constants for consistency.
const (
	MetricSearchesTotal         = "prepwise_searches_total"
	MetricSearchDuration        = "prepwise_search_duration_seconds"
	MetricCollectionFailures    = "prepwise_collection_failures_total"
	MetricFallbacksTotal        = "prepwise_fallbacks_total"
	MetricTrackingFailures      = "prepwise_tracking_failures_total"
	MetricRecommendationsServed = "prepwise_recommendations_served_total"
	MetricTrendingItemsLastFeed = "prepwise_trending_items_last_feed"
)

// Feed labels for fallback counters.
const (
	FeedRecommendations = "recommendations"
	FeedTrending        = "trending"
)

// Metrics contains Prometheus metrics for the ranking engines.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	searches           *prometheus.CounterVec
	searchDuration     prometheus.Histogram
	collectionFailures *prometheus.CounterVec
	fallbacks          *prometheus.CounterVec
	trackingFailures   *prometheus.CounterVec
	recommendations    prometheus.Counter
	trendingItems      prometheus.Gauge
}

// NewMetrics creates and returns a new Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricSearchesTotal,
			Help: "Total number of searches by outcome",
		}, []string{"outcome"}),
		searchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricSearchDuration,
			Help:    "Histogram of search latency in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}),
		collectionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricCollectionFailures,
			Help: "Total number of collection store failures by kind and operation",
		}, []string{"kind", "operation"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricFallbacksTotal,
			Help: "Total number of times a static fallback feed was served",
		}, []string{"feed"}),
		trackingFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricTrackingFailures,
			Help: "Total number of failed usage tracking writes by sink",
		}, []string{"sink"}),
		recommendations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRecommendationsServed,
			Help: "Total number of recommendation lists served",
		}),
		trendingItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricTrendingItemsLastFeed,
			Help: "Number of items in the most recently computed trending feed",
		}),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors returns all Prometheus collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.searches,
		m.searchDuration,
		m.collectionFailures,
		m.fallbacks,
		m.trackingFailures,
		m.recommendations,
		m.trendingItems,
	}
}

func (m *Metrics) observeSearch(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.searches.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		m.searchDuration.Observe(seconds)
	}
}

func (m *Metrics) incCollectionFailure(kind domain.ItemKind, operation string) {
	if m == nil {
		return
	}
	m.collectionFailures.WithLabelValues(string(kind), operation).Inc()
}

func (m *Metrics) incFallback(feed string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(feed).Inc()
}

func (m *Metrics) incTrackingFailure(sink string) {
	if m == nil {
		return
	}
	m.trackingFailures.WithLabelValues(sink).Inc()
}

func (m *Metrics) incRecommendations() {
	if m == nil {
		return
	}
	m.recommendations.Inc()
}

func (m *Metrics) setTrendingItems(n int) {
	if m == nil {
		return
	}
	m.trendingItems.Set(float64(n))
}
