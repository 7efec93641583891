// Package extract applies the pattern library to legal text and emits
// entity mentions. This is the heuristic tier of the extraction service:
// regex patterns with per-pattern confidence, no model in the loop.
package extract

import (
	"regexp"
	"sort"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/patternd/internal/library"
)

// Mention is one recognized span of text.
type Mention struct {
	EntityType   string  `json:"entity_type"`
	Text         string  `json:"text"`
	Start        int     `json:"start"`
	End          int     `json:"end"`
	PatternID    string  `json:"pattern_id"`
	Confidence   float64 `json:"confidence"`
	Jurisdiction string  `json:"jurisdiction,omitempty"`
}

// Config configures the extractor.
type Config struct {
	// ConfidenceThreshold drops patterns below this confidence at compile
	// time. Zero keeps everything.
	ConfidenceThreshold float64

	// MaxMentionsPerPattern caps matches emitted per pattern per input
	// (default 100). Guards against pathological patterns on long briefs.
	MaxMentionsPerPattern int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{MaxMentionsPerPattern: 100}
}

// compiledPattern holds a pre-compiled extraction rule.
type compiledPattern struct {
	library.PatternDefinition
	regex *regexp.Regexp
}

// Extractor matches a compiled pattern set against input text.
type Extractor struct {
	patterns []compiledPattern
	config   Config
	logger   *zap.Logger
}

// NewExtractor compiles the document's patterns. Patterns whose match
// expression does not compile are skipped with a warning rather than
// failing the whole set; the library carries structural rules some engines
// interpret differently.
func NewExtractor(doc *library.PatternDocument, cfg Config, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxMentionsPerPattern <= 0 {
		cfg.MaxMentionsPerPattern = DefaultConfig().MaxMentionsPerPattern
	}

	e := &Extractor{config: cfg, logger: logger}
	for _, g := range doc.Groups {
		for _, p := range g.Patterns {
			if p.Confidence < cfg.ConfidenceThreshold {
				continue
			}
			re, err := regexp.Compile(p.MatchExpression)
			if err != nil {
				logger.Warn("skipping pattern with uncompilable expression",
					zap.String("pattern_id", p.ID),
					zap.String("group", g.Name),
					zap.Error(err),
				)
				continue
			}
			e.patterns = append(e.patterns, compiledPattern{PatternDefinition: p, regex: re})
		}
	}
	return e
}

// PatternCount returns the number of usable compiled patterns.
func (e *Extractor) PatternCount() int {
	return len(e.patterns)
}

// Extract returns all mentions found in text, ordered by start offset.
// When two patterns for the same entity type produce the same span, only
// the higher-confidence mention survives.
func (e *Extractor) Extract(text string) []Mention {
	var mentions []Mention
	best := make(map[spanKey]int) // index into mentions

	for _, p := range e.patterns {
		locs := p.regex.FindAllStringIndex(text, e.config.MaxMentionsPerPattern)
		for _, loc := range locs {
			m := Mention{
				EntityType:   p.EntityType,
				Text:         text[loc[0]:loc[1]],
				Start:        loc[0],
				End:          loc[1],
				PatternID:    p.ID,
				Confidence:   p.Confidence,
				Jurisdiction: p.Jurisdiction,
			}
			key := spanKey{entityType: p.EntityType, start: loc[0], end: loc[1]}
			if i, seen := best[key]; seen {
				if m.Confidence > mentions[i].Confidence {
					mentions[i] = m
				}
				continue
			}
			best[key] = len(mentions)
			mentions = append(mentions, m)
		}
	}

	sort.Slice(mentions, func(i, j int) bool {
		if mentions[i].Start != mentions[j].Start {
			return mentions[i].Start < mentions[j].Start
		}
		return mentions[i].End < mentions[j].End
	})
	return mentions
}

type spanKey struct {
	entityType string
	start, end int
}
