package library

import (
	"errors"
	"regexp"
)

// Errors for pattern document operations.
var (
	ErrStructuralMismatch = errors.New("document structure mismatch")
	ErrAlreadyIntegrated  = errors.New("phase already integrated")
	ErrCorruptDocument    = errors.New("document metadata inconsistent")
)

// entityTypePattern validates entity-type identifiers (STATUTE, HOME_STATE).
var entityTypePattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

// ValidEntityType reports whether name is a well-formed entity-type identifier.
func ValidEntityType(name string) bool {
	return entityTypePattern.MatchString(name)
}

// PatternDefinition is a single extraction rule. Definitions are immutable
// once written; phases add new definitions, never edit existing ones.
type PatternDefinition struct {
	ID              string   `yaml:"id" json:"id"`
	EntityType      string   `yaml:"entity_type" json:"entity_type"`
	MatchExpression string   `yaml:"match_expression" json:"match_expression"`
	Confidence      float64  `yaml:"confidence" json:"confidence"`
	Examples        []string `yaml:"examples,omitempty" json:"examples,omitempty"`
	Jurisdiction    string   `yaml:"jurisdiction,omitempty" json:"jurisdiction,omitempty"`
}

// PatternGroup is a named bucket of patterns sharing a thematic category
// (e.g. "jurisdiction_concepts"). Groups are owned by the document and are
// append-only: a phase adds whole new groups, never edits existing ones.
type PatternGroup struct {
	Name              string              `yaml:"-" json:"name"`
	Jurisdiction      string              `yaml:"jurisdiction,omitempty" json:"jurisdiction,omitempty"`
	BluebookCompliant bool                `yaml:"bluebook_compliant,omitempty" json:"bluebook_compliant,omitempty"`
	Patterns          []PatternDefinition `yaml:"patterns" json:"patterns"`
}

// PhaseManifest records one integration event. Appended to the document's
// provenance trail by a merge, never mutated afterward.
type PhaseManifest struct {
	Phase          int     `yaml:"phase" json:"phase"`
	PatternCount   int     `yaml:"pattern_count" json:"pattern_count"`
	NewEntityTypes int     `yaml:"new_entity_types" json:"new_entity_types"`
	Description    string  `yaml:"description,omitempty" json:"description,omitempty"`
	QualityScore   float64 `yaml:"quality_score,omitempty" json:"quality_score,omitempty"`
	IntegratedAt   string  `yaml:"integrated_at" json:"integrated_at"`
}

// Metadata is the document's aggregate block. Counters are structured
// fields only; per-phase summary keys in the serialized form are derived
// from Phases at marshal time and never read back.
type Metadata struct {
	TotalPatterns      int             `yaml:"total_patterns" json:"total_patterns"`
	EntityTypesDefined int             `yaml:"entity_types_defined" json:"entity_types_defined"`
	LastUpdated        string          `yaml:"last_updated" json:"last_updated"`
	Description        string          `yaml:"description,omitempty" json:"description,omitempty"`
	Phases             []PhaseManifest `yaml:"phases,omitempty" json:"phases,omitempty"`
}

// HasPhase reports whether a manifest for the given phase number exists.
func (m *Metadata) HasPhase(phase int) bool {
	for _, p := range m.Phases {
		if p.Phase == phase {
			return true
		}
	}
	return false
}

// PatternDocument is the master registry of extraction patterns. Group
// order is significant and survives YAML round-trips.
type PatternDocument struct {
	Metadata Metadata
	Groups   []PatternGroup
}

// PatternCount returns the number of pattern definitions across all groups.
func (d *PatternDocument) PatternCount() int {
	n := 0
	for _, g := range d.Groups {
		n += len(g.Patterns)
	}
	return n
}

// EntityTypes returns the distinct entity types referenced by any pattern,
// in first-seen order.
func (d *PatternDocument) EntityTypes() []string {
	seen := make(map[string]struct{})
	var types []string
	for _, g := range d.Groups {
		for _, p := range g.Patterns {
			if _, ok := seen[p.EntityType]; !ok {
				seen[p.EntityType] = struct{}{}
				types = append(types, p.EntityType)
			}
		}
	}
	return types
}

// Registry returns a view mapping entity type to its pattern definitions,
// preserving document order within each type. This is the input shape for
// the coverage aggregator.
func (d *PatternDocument) Registry() map[string][]PatternDefinition {
	reg := make(map[string][]PatternDefinition)
	for _, g := range d.Groups {
		for _, p := range g.Patterns {
			reg[p.EntityType] = append(reg[p.EntityType], p)
		}
	}
	return reg
}

// HasGroup reports whether a group with the given name exists.
func (d *PatternDocument) HasGroup(name string) bool {
	for _, g := range d.Groups {
		if g.Name == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy. Merges operate on the copy so a failed
// integration never leaves a partially mutated document behind.
func (d *PatternDocument) Clone() *PatternDocument {
	out := &PatternDocument{Metadata: d.Metadata}
	out.Metadata.Phases = append([]PhaseManifest(nil), d.Metadata.Phases...)
	out.Groups = make([]PatternGroup, len(d.Groups))
	for i, g := range d.Groups {
		cg := g
		cg.Patterns = make([]PatternDefinition, len(g.Patterns))
		for j, p := range g.Patterns {
			cp := p
			cp.Examples = append([]string(nil), p.Examples...)
			cg.Patterns[j] = cp
		}
		out.Groups[i] = cg
	}
	return out
}
