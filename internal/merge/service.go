package merge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/patternd/internal/library"
)

const instrumentationName = "github.com/fyrsmithlabs/patternd/internal/merge"

// Config configures the merge service.
type Config struct {
	// DocumentPath is the master pattern document.
	DocumentPath string

	// BackupDir receives pre-merge backups. Defaults to the document's
	// directory.
	BackupDir string
}

// Result summarizes one completed integration.
type Result struct {
	OperationID    string `json:"operation_id"`
	Phase          int    `json:"phase"`
	PatternsAdded  int    `json:"patterns_added"`
	NewEntityTypes int    `json:"new_entity_types"`
	TotalPatterns  int    `json:"total_patterns"`
	BackupPath     string `json:"backup_path"`
}

// Service integrates phase bundles into the on-disk master document.
//
// Integrate walks Unmerged → Validated → BackedUp → Written: any failure
// before the final rename leaves the master byte-for-byte intact, and the
// backup is the sole recovery artifact (it is never auto-deleted).
type Service struct {
	config *Config
	logger *zap.Logger
	clock  func() time.Time

	meter        metric.Meter
	mergeCounter metric.Int64Counter
}

// NewService creates a merge service for the configured document.
func NewService(cfg *Config, logger *zap.Logger) (*Service, error) {
	if cfg == nil || cfg.DocumentPath == "" {
		return nil, errors.New("document path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		config: cfg,
		logger: logger,
		clock:  time.Now,
		meter:  otel.Meter(instrumentationName),
	}

	var err error
	s.mergeCounter, err = s.meter.Int64Counter(
		"patternd.merge.integrations_total",
		metric.WithDescription("Total number of phase integration attempts"),
		metric.WithUnit("{integration}"),
	)
	if err != nil {
		s.logger.Warn("failed to create merge counter", zap.Error(err))
	}

	return s, nil
}

// Integrate applies one phase bundle to the master document.
func (s *Service) Integrate(ctx context.Context, bundle *Bundle) (*Result, error) {
	start := s.clock()
	res, err := s.integrate(ctx, bundle)
	MergeDuration.Observe(s.clock().Sub(start).Seconds())
	s.record(ctx, err)
	return res, err
}

func (s *Service) integrate(ctx context.Context, bundle *Bundle) (*Result, error) {
	if bundle == nil {
		return nil, fmt.Errorf("%w: nil phase bundle", library.ErrStructuralMismatch)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lock, err := acquireLock(s.lockPath())
	if err != nil {
		return nil, err
	}
	defer lock.release(s.logger)

	raw, err := os.ReadFile(s.config.DocumentPath)
	if err != nil {
		return nil, fmt.Errorf("read pattern document: %w", err)
	}

	doc, err := library.Parse(raw)
	if err != nil {
		return nil, err
	}

	merged, err := Apply(doc, bundle, s.clock())
	if err != nil {
		return nil, err
	}

	out, err := library.Marshal(merged)
	if err != nil {
		return nil, err
	}

	// Validated. Back up the pre-merge bytes before touching the master.
	backupPath := s.backupPath(bundle.Phase)
	if err := os.WriteFile(backupPath, raw, 0600); err != nil {
		return nil, fmt.Errorf("write backup: %w", err)
	}

	// Backed up. The rename is the single externally visible mutation.
	tmpPath := s.config.DocumentPath + ".tmp"
	if err := os.WriteFile(tmpPath, out, 0600); err != nil {
		return nil, fmt.Errorf("write document: %w", err)
	}
	if err := os.Rename(tmpPath, s.config.DocumentPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("replace document: %w", err)
	}

	manifest := merged.Metadata.Phases[len(merged.Metadata.Phases)-1]
	result := &Result{
		OperationID:    uuid.NewString(),
		Phase:          manifest.Phase,
		PatternsAdded:  manifest.PatternCount,
		NewEntityTypes: manifest.NewEntityTypes,
		TotalPatterns:  merged.Metadata.TotalPatterns,
		BackupPath:     backupPath,
	}

	PatternsIntegrated.Add(float64(result.PatternsAdded))
	LibraryPatterns.Set(float64(result.TotalPatterns))

	s.logger.Info("phase integrated",
		zap.String("operation_id", result.OperationID),
		zap.Int("phase", result.Phase),
		zap.Int("patterns_added", result.PatternsAdded),
		zap.Int("new_entity_types", result.NewEntityTypes),
		zap.Int("total_patterns", result.TotalPatterns),
		zap.String("backup", backupPath),
	)
	return result, nil
}

// record classifies the outcome for metrics.
func (s *Service) record(ctx context.Context, err error) {
	result := "success"
	switch {
	case err == nil:
	case errors.Is(err, library.ErrAlreadyIntegrated):
		result = "already_integrated"
	case errors.Is(err, library.ErrStructuralMismatch), errors.Is(err, library.ErrCorruptDocument):
		result = "structural_mismatch"
	case errors.Is(err, ErrLocked):
		result = "locked"
	default:
		result = "io_error"
	}

	MergesTotal.WithLabelValues(result).Inc()
	if s.mergeCounter != nil {
		s.mergeCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	}
}

func (s *Service) lockPath() string {
	return s.config.DocumentPath + ".lock"
}

// backupPath names the pre-merge copy, phase-tagged so successive phases
// never clobber each other's recovery point.
func (s *Service) backupPath(phase int) string {
	dir := s.config.BackupDir
	if dir == "" {
		dir = filepath.Dir(s.config.DocumentPath)
	}
	name := fmt.Sprintf("%s.backup_phase%d_pre_integration", filepath.Base(s.config.DocumentPath), phase)
	return filepath.Join(dir, name)
}
