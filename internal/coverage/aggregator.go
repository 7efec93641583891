package coverage

import (
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/patternd/internal/library"
)

// Aggregator computes coverage reports. It is a pure computation with no
// side effects beyond metrics; safe to retry, nothing to cancel.
type Aggregator struct {
	logger *zap.Logger
	clock  func() time.Time
}

// NewAggregator creates a coverage aggregator.
func NewAggregator(logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{logger: logger, clock: time.Now}
}

// Analyze builds a report from a pattern registry and the authoritative
// entity-type enumeration. It never fails: an empty enumeration yields a
// degenerate 0%-coverage report with warning health rather than an error.
func (a *Aggregator) Analyze(registry map[string][]library.PatternDefinition, entityTypes []string) *Report {
	report := &Report{
		GeneratedAt:      a.clock().UTC(),
		TotalEntityTypes: len(entityTypes),
		TypeDetails:      make(map[string]TypeDetail, len(entityTypes)),
	}

	var issues []string

	for _, et := range entityTypes {
		patterns := registry[et]
		detail := typeDetail(patterns)
		report.TypeDetails[et] = detail

		switch {
		case detail.PatternCount == 0:
			report.UncoveredEntityTypes = append(report.UncoveredEntityTypes, et)
		case detail.PatternCount > highCoverageMin:
			report.CoveredEntityTypes++
			report.HighCoverage = append(report.HighCoverage, et)
		case detail.PatternCount <= lowCoverageMax:
			report.CoveredEntityTypes++
			report.LowCoverage = append(report.LowCoverage, et)
		default:
			report.CoveredEntityTypes++
		}
	}

	if report.TotalEntityTypes > 0 {
		report.CoveragePercentage = float64(report.CoveredEntityTypes) / float64(report.TotalEntityTypes) * 100
	}

	report.Confidence = distribution(registry)

	issues = append(issues, a.unknownTypeIssues(registry, entityTypes)...)
	duplicates := duplicateIDs(registry)
	conflicts := findConflicts(registry)
	report.Health = health(report, duplicates, conflicts, issues)

	a.logger.Debug("coverage report computed",
		zap.Int("total_entity_types", report.TotalEntityTypes),
		zap.Int("covered", report.CoveredEntityTypes),
		zap.Float64("coverage_pct", report.CoveragePercentage),
		zap.String("health", report.Health.Status),
	)

	updateLibraryMetrics(report)
	return report
}

// typeDetail summarizes one entity type's patterns.
func typeDetail(patterns []library.PatternDefinition) TypeDetail {
	detail := TypeDetail{PatternCount: len(patterns)}
	if len(patterns) == 0 {
		return detail
	}

	sum := 0.0
	seen := make(map[string]struct{})
	for _, p := range patterns {
		sum += p.Confidence
		detail.ExamplesCount += len(p.Examples)
		if p.Jurisdiction != "" {
			if _, ok := seen[p.Jurisdiction]; !ok {
				seen[p.Jurisdiction] = struct{}{}
				detail.Jurisdictions = append(detail.Jurisdictions, p.Jurisdiction)
			}
		}
	}
	detail.ConfidenceAvg = sum / float64(len(patterns))
	return detail
}

// distribution buckets every confidence value in the registry. Iteration
// over the map is order-insensitive because only counts and moments come
// out.
func distribution(registry map[string][]library.PatternDefinition) Distribution {
	var d Distribution
	var values []float64
	for _, patterns := range registry {
		for _, p := range patterns {
			values = append(values, p.Confidence)
			switch {
			case p.Confidence < 0.5:
				d.VeryLow++
			case p.Confidence < 0.7:
				d.Low++
			case p.Confidence < 0.8:
				d.Medium++
			case p.Confidence < 0.9:
				d.High++
			default:
				d.VeryHigh++
			}
		}
	}
	if len(values) == 0 {
		return d
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	d.Mean = sum / float64(len(values))

	variance := 0.0
	for _, v := range values {
		variance += (v - d.Mean) * (v - d.Mean)
	}
	d.StdDev = math.Sqrt(variance / float64(len(values)))
	return d
}

// duplicateIDs finds pattern IDs used more than once, sorted for stable
// issue output.
func duplicateIDs(registry map[string][]library.PatternDefinition) []string {
	counts := make(map[string]int)
	for _, patterns := range registry {
		for _, p := range patterns {
			counts[p.ID]++
		}
	}
	var dups []string
	for id, n := range counts {
		if n > 1 {
			dups = append(dups, id)
		}
	}
	sort.Strings(dups)
	return dups
}

// findConflicts detects two patterns for the same type with an identical
// match expression but different confidence.
func findConflicts(registry map[string][]library.PatternDefinition) []string {
	var conflicts []string
	for et, patterns := range registry {
		byExpr := make(map[string]float64)
		flagged := make(map[string]struct{})
		for _, p := range patterns {
			prev, ok := byExpr[p.MatchExpression]
			if !ok {
				byExpr[p.MatchExpression] = p.Confidence
				continue
			}
			if prev != p.Confidence {
				if _, done := flagged[p.MatchExpression]; !done {
					flagged[p.MatchExpression] = struct{}{}
					conflicts = append(conflicts, fmt.Sprintf("%s: conflicting confidences for expression %q", et, p.MatchExpression))
				}
			}
		}
	}
	sort.Strings(conflicts)
	return conflicts
}

// unknownTypeIssues flags registry entries whose entity type is not in the
// authoritative enumeration. Advisory only.
func (a *Aggregator) unknownTypeIssues(registry map[string][]library.PatternDefinition, entityTypes []string) []string {
	known := make(map[string]struct{}, len(entityTypes))
	for _, et := range entityTypes {
		known[et] = struct{}{}
	}
	var unknown []string
	for et := range registry {
		if _, ok := known[et]; !ok {
			unknown = append(unknown, fmt.Sprintf("patterns reference unknown entity type %s", et))
		}
	}
	sort.Strings(unknown)
	return unknown
}

// health classifies the library. Any uncovered type or duplicate pattern ID
// is critical; conflicts, unknown types, or an empty enumeration downgrade
// to warning; otherwise healthy.
func health(report *Report, duplicates, conflicts, extra []string) Health {
	var issues []string
	for _, et := range report.UncoveredEntityTypes {
		issues = append(issues, fmt.Sprintf("entity type %s has no patterns", et))
	}
	for _, id := range duplicates {
		issues = append(issues, fmt.Sprintf("duplicate pattern id %s", id))
	}
	issues = append(issues, conflicts...)
	issues = append(issues, extra...)

	status := StatusHealthy
	switch {
	case len(report.UncoveredEntityTypes) > 0 || len(duplicates) > 0:
		status = StatusCritical
	case len(conflicts) > 0 || len(extra) > 0:
		status = StatusWarning
	}

	if report.TotalEntityTypes == 0 {
		issues = append(issues, "empty entity type enumeration")
		if status != StatusCritical {
			status = StatusWarning
		}
	}

	return Health{Status: status, Issues: issues}
}
