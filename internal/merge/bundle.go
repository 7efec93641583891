package merge

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fyrsmithlabs/patternd/internal/library"
)

// Bundle is one phase's input: the phase header plus the pattern groups to
// append. Pattern and entity-type counts are derived from the groups at
// apply time, never trusted from the file.
type Bundle struct {
	Phase        int
	Description  string
	QualityScore float64
	Groups       []library.PatternGroup
}

// PatternCount returns the number of pattern definitions in the bundle.
func (b *Bundle) PatternCount() int {
	n := 0
	for _, g := range b.Groups {
		n += len(g.Patterns)
	}
	return n
}

// ParseBundle decodes a phase bundle document:
//
//	phase: 2
//	description: procedural posture concepts
//	quality_score: 0.93
//	pattern_groups:
//	  posture_terms:
//	    patterns: [...]
func ParseBundle(data []byte) (*Bundle, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", library.ErrStructuralMismatch, err)
	}
	if len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: phase bundle is not a mapping", library.ErrStructuralMismatch)
	}
	top := root.Content[0]

	var header struct {
		Phase        int     `yaml:"phase"`
		Description  string  `yaml:"description"`
		QualityScore float64 `yaml:"quality_score"`
	}
	if err := top.Decode(&header); err != nil {
		return nil, fmt.Errorf("%w: phase header: %v", library.ErrStructuralMismatch, err)
	}
	if header.Phase <= 0 {
		return nil, fmt.Errorf("%w: phase number must be positive", library.ErrStructuralMismatch)
	}

	var groupsNode *yaml.Node
	for i := 0; i+1 < len(top.Content); i += 2 {
		if top.Content[i].Value == "pattern_groups" {
			groupsNode = top.Content[i+1]
		}
	}
	if groupsNode == nil {
		return nil, fmt.Errorf("%w: phase bundle has no pattern_groups", library.ErrStructuralMismatch)
	}

	groupsDoc, err := library.Parse(wrapGroups(groupsNode))
	if err != nil {
		return nil, err
	}

	b := &Bundle{
		Phase:        header.Phase,
		Description:  header.Description,
		QualityScore: header.QualityScore,
		Groups:       groupsDoc.Groups,
	}
	if b.PatternCount() == 0 {
		return nil, fmt.Errorf("%w: phase bundle adds no patterns", library.ErrStructuralMismatch)
	}
	return b, nil
}

// wrapGroups re-serializes a pattern_groups node into a minimal document so
// the library parser owns group decoding in exactly one place.
func wrapGroups(groups *yaml.Node) []byte {
	top := &yaml.Node{Kind: yaml.MappingNode}
	top.Content = append(top.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: "metadata"},
		&yaml.Node{Kind: yaml.MappingNode},
		&yaml.Node{Kind: yaml.ScalarNode, Value: "pattern_groups"},
		groups,
	)
	data, err := yaml.Marshal(top)
	if err != nil {
		// A node we just built cannot fail to serialize.
		panic(err)
	}
	return data
}

// LoadBundle reads and decodes a phase bundle file.
func LoadBundle(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read phase bundle: %w", err)
	}
	return ParseBundle(data)
}
