package coverage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CoveragePercent reflects the last computed coverage percentage.
	CoveragePercent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "patternd",
			Subsystem: "library",
			Name:      "coverage_percent",
			Help:      "Percentage of known entity types with at least one pattern",
		},
	)

	// HealthStatus indicates current library health (2=healthy, 1=warning, 0=critical).
	HealthStatus = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "patternd",
			Subsystem: "library",
			Name:      "health_status",
			Help:      "Current library health (2=healthy, 1=warning, 0=critical)",
		},
	)

	// UncoveredTypes tracks how many entity types have no patterns.
	UncoveredTypes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "patternd",
			Subsystem: "library",
			Name:      "uncovered_entity_types",
			Help:      "Entity types in the enumeration with zero patterns",
		},
	)

	// ReportsComputed counts coverage report computations.
	ReportsComputed = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "patternd",
			Subsystem: "library",
			Name:      "reports_computed_total",
			Help:      "Total number of coverage reports computed",
		},
	)
)

// updateLibraryMetrics publishes gauges from a freshly computed report.
func updateLibraryMetrics(r *Report) {
	CoveragePercent.Set(r.CoveragePercentage)
	UncoveredTypes.Set(float64(len(r.UncoveredEntityTypes)))
	switch r.Health.Status {
	case StatusHealthy:
		HealthStatus.Set(2)
	case StatusWarning:
		HealthStatus.Set(1)
	default:
		HealthStatus.Set(0)
	}
	ReportsComputed.Inc()
}
