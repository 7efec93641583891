// Package server provides the read-only HTTP API over the pattern library.
package server

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/patternd/internal/coverage"
	"github.com/fyrsmithlabs/patternd/internal/entitytypes"
	"github.com/fyrsmithlabs/patternd/internal/extract"
	"github.com/fyrsmithlabs/patternd/internal/library"
)

// Source loads the pattern document and serves cached coverage reports.
// The cache lives until Invalidate (typically driven by the document
// watcher); the on-disk document stays authoritative.
type Source struct {
	docPath string
	catalog *entitytypes.Catalog
	agg     *coverage.Aggregator
	logger  *zap.Logger

	mu        sync.RWMutex
	report    *coverage.Report
	meta      *library.Metadata
	extractor *extract.Extractor
}

// NewSource creates a report source for the given document and catalog.
func NewSource(docPath string, catalog *entitytypes.Catalog, logger *zap.Logger) (*Source, error) {
	if docPath == "" {
		return nil, fmt.Errorf("document path is required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("entity type catalog is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{
		docPath: docPath,
		catalog: catalog,
		agg:     coverage.NewAggregator(logger),
		logger:  logger,
	}, nil
}

// Report returns the current coverage report, computing it on first use
// after an invalidation.
func (s *Source) Report() (*coverage.Report, error) {
	s.mu.RLock()
	cached := s.report
	s.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}
	return s.refresh()
}

// Metadata returns the document's metadata block.
func (s *Source) Metadata() (*library.Metadata, error) {
	s.mu.RLock()
	cached := s.meta
	s.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}
	if _, err := s.refresh(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta, nil
}

// Extractor returns the compiled pattern extractor for the current
// document.
func (s *Source) Extractor() (*extract.Extractor, error) {
	s.mu.RLock()
	cached := s.extractor
	s.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}
	if _, err := s.refresh(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.extractor, nil
}

// Invalidate drops the cached report so the next request recomputes it.
func (s *Source) Invalidate() {
	s.mu.Lock()
	s.report = nil
	s.meta = nil
	s.extractor = nil
	s.mu.Unlock()
	s.logger.Debug("report cache invalidated", zap.String("document", s.docPath))
}

// refresh loads the document and recomputes the report.
func (s *Source) refresh() (*coverage.Report, error) {
	data, err := os.ReadFile(s.docPath)
	if err != nil {
		return nil, fmt.Errorf("read pattern document: %w", err)
	}
	doc, err := library.Parse(data)
	if err != nil {
		return nil, err
	}

	report := s.agg.Analyze(doc.Registry(), s.catalog.Names())
	extractor := extract.NewExtractor(doc, extract.DefaultConfig(), s.logger)

	s.mu.Lock()
	s.report = report
	s.meta = &doc.Metadata
	s.extractor = extractor
	s.mu.Unlock()
	return report, nil
}
