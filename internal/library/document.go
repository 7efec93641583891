package library

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Parse decodes a serialized pattern document. The top level must be a
// mapping carrying a metadata block and a pattern_groups mapping; anything
// else fails with ErrStructuralMismatch before any caller-visible mutation
// can happen downstream.
func Parse(data []byte) (*PatternDocument, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStructuralMismatch, err)
	}
	if len(root.Content) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrStructuralMismatch)
	}
	top := root.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level is not a mapping", ErrStructuralMismatch)
	}

	var metaNode, groupsNode *yaml.Node
	for i := 0; i+1 < len(top.Content); i += 2 {
		switch top.Content[i].Value {
		case "metadata":
			metaNode = top.Content[i+1]
		case "pattern_groups":
			groupsNode = top.Content[i+1]
		}
	}
	if metaNode == nil {
		return nil, fmt.Errorf("%w: missing metadata block", ErrStructuralMismatch)
	}
	if groupsNode == nil {
		return nil, fmt.Errorf("%w: missing pattern_groups block", ErrStructuralMismatch)
	}

	doc := &PatternDocument{}
	if err := metaNode.Decode(&doc.Metadata); err != nil {
		return nil, fmt.Errorf("%w: metadata: %v", ErrStructuralMismatch, err)
	}

	groups, err := decodeGroups(groupsNode)
	if err != nil {
		return nil, err
	}
	doc.Groups = groups
	return doc, nil
}

// decodeGroups decodes the ordered pattern_groups mapping. Mapping order is
// preserved; duplicate group names are rejected.
func decodeGroups(node *yaml.Node) ([]PatternGroup, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: pattern_groups is not a mapping", ErrStructuralMismatch)
	}
	seen := make(map[string]struct{})
	groups := make([]PatternGroup, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: duplicate pattern group %q", ErrStructuralMismatch, name)
		}
		seen[name] = struct{}{}

		var g PatternGroup
		if err := node.Content[i+1].Decode(&g); err != nil {
			return nil, fmt.Errorf("%w: group %q: %v", ErrStructuralMismatch, name, err)
		}
		g.Name = name
		groups = append(groups, g)
	}
	return groups, nil
}

// Marshal serializes a pattern document. Group order is preserved and the
// per-phase summary keys (phase_N_patterns, phase_N_additions) are generated
// from the structured phase manifests; they are presentation only and are
// ignored by Parse.
func Marshal(doc *PatternDocument) ([]byte, error) {
	meta := &yaml.Node{Kind: yaml.MappingNode}
	if err := appendEntry(meta, "total_patterns", doc.Metadata.TotalPatterns); err != nil {
		return nil, err
	}
	if err := appendEntry(meta, "entity_types_defined", doc.Metadata.EntityTypesDefined); err != nil {
		return nil, err
	}
	if err := appendEntry(meta, "last_updated", doc.Metadata.LastUpdated); err != nil {
		return nil, err
	}
	if doc.Metadata.Description != "" {
		if err := appendEntry(meta, "description", doc.Metadata.Description); err != nil {
			return nil, err
		}
	}
	for _, p := range doc.Metadata.Phases {
		if err := appendEntry(meta, fmt.Sprintf("phase_%d_patterns", p.Phase), p.PatternCount); err != nil {
			return nil, err
		}
		if err := appendEntry(meta, fmt.Sprintf("phase_%d_additions", p.Phase), phaseSummary(p)); err != nil {
			return nil, err
		}
	}
	if len(doc.Metadata.Phases) > 0 {
		if err := appendEntry(meta, "phases", doc.Metadata.Phases); err != nil {
			return nil, err
		}
	}

	groups := &yaml.Node{Kind: yaml.MappingNode}
	for _, g := range doc.Groups {
		if err := appendEntry(groups, g.Name, g); err != nil {
			return nil, fmt.Errorf("encode group %q: %w", g.Name, err)
		}
	}

	top := &yaml.Node{Kind: yaml.MappingNode}
	top.Content = append(top.Content,
		scalar("metadata"), meta,
		scalar("pattern_groups"), groups,
	)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(top); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return buf.Bytes(), nil
}

func scalar(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: s}
}

func appendEntry(m *yaml.Node, key string, val interface{}) error {
	v := &yaml.Node{}
	if err := v.Encode(val); err != nil {
		return err
	}
	m.Content = append(m.Content, scalar(key), v)
	return nil
}

// phaseSummary renders the human-readable additions clause for a phase.
// Generated from the manifest every time; never hand-edited or parsed back.
func phaseSummary(p PhaseManifest) string {
	desc := p.Description
	if desc == "" {
		desc = "pattern additions"
	}
	return fmt.Sprintf("%s (+%d patterns, %d new entity types)", desc, p.PatternCount, p.NewEntityTypes)
}

// Validate checks the document's internal invariants: aggregate counters
// must reconcile with the group contents, and every definition must carry a
// well-formed entity type and a confidence in [0,1].
func Validate(doc *PatternDocument) error {
	if got, want := doc.Metadata.TotalPatterns, doc.PatternCount(); got != want {
		return fmt.Errorf("%w: total_patterns is %d, groups hold %d", ErrCorruptDocument, got, want)
	}
	if got, want := doc.Metadata.EntityTypesDefined, len(doc.EntityTypes()); got != want {
		return fmt.Errorf("%w: entity_types_defined is %d, groups reference %d", ErrCorruptDocument, got, want)
	}

	ids := make(map[string]string)
	for _, g := range doc.Groups {
		for _, p := range g.Patterns {
			if p.ID == "" {
				return fmt.Errorf("%w: group %q has a pattern without an id", ErrCorruptDocument, g.Name)
			}
			if prev, dup := ids[p.ID]; dup {
				return fmt.Errorf("%w: pattern id %q appears in groups %q and %q", ErrCorruptDocument, p.ID, prev, g.Name)
			}
			ids[p.ID] = g.Name
			if !ValidEntityType(p.EntityType) {
				return fmt.Errorf("%w: pattern %q has invalid entity type %q", ErrCorruptDocument, p.ID, p.EntityType)
			}
			if p.MatchExpression == "" {
				return fmt.Errorf("%w: pattern %q has no match expression", ErrCorruptDocument, p.ID)
			}
			if p.Confidence < 0 || p.Confidence > 1 {
				return fmt.Errorf("%w: pattern %q confidence %v out of range", ErrCorruptDocument, p.ID, p.Confidence)
			}
		}
	}
	return nil
}
