package merge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MergesTotal counts integration attempts.
	// Labels: result (success, already_integrated, structural_mismatch, io_error)
	MergesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "patternd",
			Subsystem: "merge",
			Name:      "merges_total",
			Help:      "Total number of phase integration attempts",
		},
		[]string{"result"},
	)

	// MergeDuration tracks how long integrations take end to end.
	MergeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "patternd",
			Subsystem: "merge",
			Name:      "duration_seconds",
			Help:      "Duration of phase integrations in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// PatternsIntegrated counts pattern definitions added across all merges.
	PatternsIntegrated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "patternd",
			Subsystem: "merge",
			Name:      "patterns_integrated_total",
			Help:      "Total number of pattern definitions integrated",
		},
	)

	// LibraryPatterns reflects the document's total_patterns after the last
	// successful merge.
	LibraryPatterns = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "patternd",
			Subsystem: "library",
			Name:      "patterns_total",
			Help:      "Pattern definitions in the master document after the last merge",
		},
	)
)
