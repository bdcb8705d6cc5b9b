package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Validation outcomes
	ValidationsTotal   *prometheus.CounterVec
	ValidationLatency  *prometheus.HistogramVec
	ChecksumFailures   prometheus.Counter
	MalformedRules     prometheus.Counter
	NotConfiguredTotal *prometheus.CounterVec

	// Rule cache
	CacheHits          *prometheus.CounterVec
	CacheMisses        *prometheus.CounterVec
	CacheInvalidations prometheus.Counter

	// Rule store
	RepositoryLatency *prometheus.HistogramVec
	RepositoryErrors  prometheus.Counter
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace, subsystem string) *Metrics {
	return &Metrics{
		ValidationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "validations_total",
			Help:      "Total number of field validations by kind and outcome",
		}, []string{"field_kind", "result"}),
		ValidationLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "validation_duration_seconds",
			Help:      "Time spent validating a single field",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"field_kind"}),
		ChecksumFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "checksum_failures_total",
			Help:      "Total number of tax identifier checksum rejections",
		}),
		MalformedRules: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "malformed_rules_total",
			Help:      "Total number of rules skipped because their pattern failed to compile",
		}),
		NotConfiguredTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "not_configured_total",
			Help:      "Validations that failed closed because no rules were configured",
		}, []string{"field_kind"}),

		CacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "rule_cache_hits_total",
			Help:      "Rule cache reads served from a fresh entry",
		}, []string{"scope"}),
		CacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "rule_cache_misses_total",
			Help:      "Rule cache reads that required a repository fetch",
		}, []string{"scope"}),
		CacheInvalidations: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "rule_cache_invalidations_total",
			Help:      "Explicit cache invalidation requests",
		}),

		RepositoryLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "repository_fetch_duration_seconds",
			Help:      "Duration of rule store fetches",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
		RepositoryErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "repository_errors_total",
			Help:      "Rule store fetches that failed",
		}),
	}
}
