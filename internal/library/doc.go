// Package library defines the master pattern document for legal-document
// entity extraction: named pattern groups, per-pattern confidence and
// jurisdiction tags, and phase-based provenance metadata.
//
// The document is integrated in numbered phases (see internal/merge) and
// analyzed into coverage reports (see internal/coverage).
package library
