package catalog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	lookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_lookups_total",
			Help: "Total number of catalog lookups by outcome",
		},
		[]string{"outcome"},
	)

	lookupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "catalog_lookup_duration_seconds",
			Help:    "Duration of catalog lookups in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	pendingLookups = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_pending_lookups",
			Help: "Number of in-flight catalog lookups awaiting a reply",
		},
	)
)

// Lookup outcome labels.
const (
	outcomeResolved    = "resolved"
	outcomeNotFound    = "not_found"
	outcomeTimeout     = "timeout"
	outcomeError       = "error"
	outcomeCacheHit    = "cache_hit"
	outcomeCircuitOpen = "circuit_open"
)
