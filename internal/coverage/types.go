package coverage

import "time"

// Health status values, ordered by severity.
const (
	StatusHealthy  = "healthy"
	StatusWarning  = "warning"
	StatusCritical = "critical"
)

// Coverage classification thresholds. A type is high coverage above
// highCoverageMin patterns and low coverage between 1 and lowCoverageMax;
// zero-pattern types are uncovered, never "low".
const (
	highCoverageMin = 10
	lowCoverageMax  = 3
)

// TypeDetail describes one entity type's pattern coverage.
type TypeDetail struct {
	PatternCount  int      `json:"pattern_count"`
	ConfidenceAvg float64  `json:"confidence_avg"`
	ExamplesCount int      `json:"examples_count"`
	Jurisdictions []string `json:"jurisdictions,omitempty"`
}

// Distribution buckets every pattern confidence in the registry into fixed
// half-open bands; the top band is closed so a confidence of exactly 1.0
// lands in very_high. Mean and population standard deviation cover all
// confidences, not per-type.
type Distribution struct {
	VeryLow  int     `json:"very_low"`  // [0.0, 0.5)
	Low      int     `json:"low"`       // [0.5, 0.7)
	Medium   int     `json:"medium"`    // [0.7, 0.8)
	High     int     `json:"high"`      // [0.8, 0.9)
	VeryHigh int     `json:"very_high"` // [0.9, 1.0]
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"`
}

// Health is the library's advisory status with itemized issues. Recomputed
// on every report; never cached beyond the report itself.
type Health struct {
	Status string   `json:"status"`
	Issues []string `json:"issues,omitempty"`
}

// Report is the aggregator's sole output: a derived, read-only view over
// the pattern registry and the authoritative entity-type enumeration.
type Report struct {
	GeneratedAt          time.Time             `json:"generated_at"`
	TotalEntityTypes     int                   `json:"total_entity_types"`
	CoveredEntityTypes   int                   `json:"covered_entity_types"`
	UncoveredEntityTypes []string              `json:"uncovered_entity_types,omitempty"`
	CoveragePercentage   float64               `json:"coverage_percentage"`
	TypeDetails          map[string]TypeDetail `json:"type_details"`
	HighCoverage         []string              `json:"high_coverage,omitempty"`
	LowCoverage          []string              `json:"low_coverage,omitempty"`
	Confidence           Distribution          `json:"confidence_distribution"`
	Health               Health                `json:"library_health"`
}
