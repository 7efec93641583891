package merge

import (
	"errors"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/patternd/internal/library"
)

// ErrLocked indicates another merge holds the document's advisory lock.
var ErrLocked = errors.New("pattern document is locked by another merge")

// Apply integrates a phase bundle into a pattern document and returns the
// merged result. The input document is never mutated.
//
// A phase number that already has a manifest fails with ErrAlreadyIntegrated;
// re-running the same phase must be rejected, not double-counted. A bundle
// group whose name already exists fails with ErrStructuralMismatch since
// existing groups are append-only and never edited in place.
func Apply(doc *library.PatternDocument, bundle *Bundle, now time.Time) (*library.PatternDocument, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", library.ErrStructuralMismatch)
	}
	if bundle == nil {
		return nil, fmt.Errorf("%w: nil phase bundle", library.ErrStructuralMismatch)
	}
	if doc.Metadata.HasPhase(bundle.Phase) {
		return nil, fmt.Errorf("%w: phase %d", library.ErrAlreadyIntegrated, bundle.Phase)
	}
	for _, g := range bundle.Groups {
		if doc.HasGroup(g.Name) {
			return nil, fmt.Errorf("%w: pattern group %q already exists", library.ErrStructuralMismatch, g.Name)
		}
	}

	existing := make(map[string]struct{})
	for _, et := range doc.EntityTypes() {
		existing[et] = struct{}{}
	}

	merged := doc.Clone()
	merged.Groups = append(merged.Groups, bundle.Groups...)

	newTypes := 0
	seen := make(map[string]struct{})
	for _, g := range bundle.Groups {
		for _, p := range g.Patterns {
			if _, known := existing[p.EntityType]; known {
				continue
			}
			if _, counted := seen[p.EntityType]; counted {
				continue
			}
			seen[p.EntityType] = struct{}{}
			newTypes++
		}
	}

	date := now.UTC().Format("2006-01-02")
	merged.Metadata.TotalPatterns += bundle.PatternCount()
	merged.Metadata.EntityTypesDefined = len(merged.EntityTypes())
	merged.Metadata.LastUpdated = date
	merged.Metadata.Phases = append(merged.Metadata.Phases, library.PhaseManifest{
		Phase:          bundle.Phase,
		PatternCount:   bundle.PatternCount(),
		NewEntityTypes: newTypes,
		Description:    bundle.Description,
		QualityScore:   bundle.QualityScore,
		IntegratedAt:   date,
	})

	if err := library.Validate(merged); err != nil {
		return nil, err
	}
	return merged, nil
}
