// Package coverage computes read-only statistics over the pattern library:
// per-entity-type coverage, confidence distribution, and overall library
// health. Reports are derived views; the pattern document stays
// authoritative and the aggregator never fails, pushing data-quality
// judgment to the caller via the health status.
package coverage
