package library

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `metadata:
  total_patterns: 3
  entity_types_defined: 2
  last_updated: "2026-08-12"
  description: Master pattern library for legal entity extraction
pattern_groups:
  jurisdiction_concepts:
    jurisdiction: federal
    bluebook_compliant: true
    patterns:
      - id: statute-usc-cite
        entity_type: STATUTE
        match_expression: '\d+ U\.S\.C\. § \d+'
        confidence: 0.92
        examples:
          - 42 U.S.C. § 1983
        jurisdiction: federal
      - id: statute-state-code
        entity_type: STATUTE
        match_expression: '[A-Z][a-z]+\. Code § \d+'
        confidence: 0.81
        jurisdiction: california
  court_actors:
    patterns:
      - id: judge-honorific
        entity_type: JUDGE
        match_expression: 'Hon\. [A-Z][a-z]+ [A-Z][a-z]+'
        confidence: 0.88
        examples:
          - Hon. Jane Smith
          - Hon. Robert Doe
`

func TestParse(t *testing.T) {
	doc, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)

	assert.Equal(t, 3, doc.Metadata.TotalPatterns)
	assert.Equal(t, 2, doc.Metadata.EntityTypesDefined)
	assert.Equal(t, "2026-08-12", doc.Metadata.LastUpdated)

	require.Len(t, doc.Groups, 2)
	assert.Equal(t, "jurisdiction_concepts", doc.Groups[0].Name)
	assert.Equal(t, "court_actors", doc.Groups[1].Name)
	assert.True(t, doc.Groups[0].BluebookCompliant)
	require.Len(t, doc.Groups[0].Patterns, 2)
	assert.Equal(t, "STATUTE", doc.Groups[0].Patterns[0].EntityType)
	assert.InDelta(t, 0.92, doc.Groups[0].Patterns[0].Confidence, 1e-9)
}

func TestParse_StructuralMismatch(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "empty document", data: ""},
		{name: "not a mapping", data: "- a\n- b\n"},
		{name: "missing metadata", data: "pattern_groups: {}\n"},
		{name: "missing pattern_groups", data: "metadata:\n  total_patterns: 0\n"},
		{name: "groups not a mapping", data: "metadata:\n  total_patterns: 0\npattern_groups:\n  - one\n"},
		{name: "invalid yaml", data: "metadata: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrStructuralMismatch)
		})
	}
}

func TestParse_DuplicateGroup(t *testing.T) {
	data := `metadata:
  total_patterns: 0
pattern_groups:
  dates: {patterns: []}
  dates: {patterns: []}
`
	// yaml.v3 rejects duplicate mapping keys itself; either way the error
	// must surface as a structural mismatch.
	_, err := Parse([]byte(data))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStructuralMismatch)
}

func TestMarshal_RoundTrip(t *testing.T) {
	doc, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)

	data, err := Marshal(doc)
	require.NoError(t, err)

	again, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, doc, again)
}

func TestMarshal_GroupOrderPreserved(t *testing.T) {
	doc, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)

	data, err := Marshal(doc)
	require.NoError(t, err)

	out := string(data)
	assert.Less(t, strings.Index(out, "jurisdiction_concepts:"), strings.Index(out, "court_actors:"))
}

func TestMarshal_PhaseSummaryKeys(t *testing.T) {
	doc, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)
	doc.Metadata.Phases = append(doc.Metadata.Phases, PhaseManifest{
		Phase:          2,
		PatternCount:   43,
		NewEntityTypes: 43,
		Description:    "procedural posture concepts",
		IntegratedAt:   "2026-08-20",
	})

	data, err := Marshal(doc)
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, "phase_2_patterns: 43")
	assert.Contains(t, out, "procedural posture concepts (+43 patterns, 43 new entity types)")

	// Derived keys are presentation only: parsing must recover the
	// structured manifest, not the rendered clause.
	again, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, again.Metadata.Phases, 1)
	assert.Equal(t, 43, again.Metadata.Phases[0].PatternCount)
}

func TestValidate(t *testing.T) {
	doc, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)
	require.NoError(t, Validate(doc))
}

func TestValidate_Errors(t *testing.T) {
	base := func() *PatternDocument {
		doc, err := Parse([]byte(sampleDoc))
		require.NoError(t, err)
		return doc
	}

	tests := []struct {
		name   string
		mutate func(*PatternDocument)
	}{
		{
			name:   "total_patterns off by one",
			mutate: func(d *PatternDocument) { d.Metadata.TotalPatterns = 4 },
		},
		{
			name:   "entity_types_defined off",
			mutate: func(d *PatternDocument) { d.Metadata.EntityTypesDefined = 7 },
		},
		{
			name:   "duplicate pattern id",
			mutate: func(d *PatternDocument) { d.Groups[1].Patterns[0].ID = "statute-usc-cite" },
		},
		{
			name:   "missing id",
			mutate: func(d *PatternDocument) { d.Groups[0].Patterns[0].ID = "" },
		},
		{
			name:   "bad entity type",
			mutate: func(d *PatternDocument) { d.Groups[0].Patterns[0].EntityType = "statute" },
		},
		{
			name:   "empty match expression",
			mutate: func(d *PatternDocument) { d.Groups[0].Patterns[0].MatchExpression = "" },
		},
		{
			name:   "confidence above one",
			mutate: func(d *PatternDocument) { d.Groups[0].Patterns[0].Confidence = 1.2 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := base()
			tt.mutate(doc)
			err := Validate(doc)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrCorruptDocument)
		})
	}
}

func TestRegistry(t *testing.T) {
	doc, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)

	reg := doc.Registry()
	require.Len(t, reg, 2)
	assert.Len(t, reg["STATUTE"], 2)
	assert.Len(t, reg["JUDGE"], 1)

	assert.Equal(t, []string{"STATUTE", "JUDGE"}, doc.EntityTypes())
	assert.Equal(t, 3, doc.PatternCount())
}

func TestClone_Independent(t *testing.T) {
	doc, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)

	clone := doc.Clone()
	require.Equal(t, doc, clone)

	clone.Groups[0].Patterns[0].Confidence = 0.1
	clone.Groups[0].Patterns[0].Examples = append(clone.Groups[0].Patterns[0].Examples, "mutated")
	clone.Metadata.Phases = append(clone.Metadata.Phases, PhaseManifest{Phase: 9})

	assert.InDelta(t, 0.92, doc.Groups[0].Patterns[0].Confidence, 1e-9)
	assert.Len(t, doc.Groups[0].Patterns[0].Examples, 1)
	assert.Empty(t, doc.Metadata.Phases)
}
