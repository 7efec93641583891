package merge

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fyrsmithlabs/patternd/internal/library"
)

const masterDoc = `metadata:
  total_patterns: 2
  entity_types_defined: 2
  last_updated: "2026-08-01"
  description: test library
pattern_groups:
  citations:
    patterns:
      - id: statute-usc
        entity_type: STATUTE
        match_expression: 'U\.S\.C\.'
        confidence: 0.9
      - id: judge-honorific
        entity_type: JUDGE
        match_expression: 'Hon\.'
        confidence: 0.85
`

const phaseBundle = `phase: 2
description: state concepts
quality_score: 0.9
pattern_groups:
  state_concepts:
    patterns:
      - id: home-state
        entity_type: HOME_STATE
        match_expression: 'State of [A-Z][a-z]+'
        confidence: 0.8
`

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	docPath := filepath.Join(dir, "patterns.yaml")
	require.NoError(t, os.WriteFile(docPath, []byte(masterDoc), 0600))

	svc, err := NewService(&Config{DocumentPath: docPath}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return svc, docPath
}

func TestServiceIntegrate(t *testing.T) {
	svc, docPath := newTestService(t)

	bundle, err := ParseBundle([]byte(phaseBundle))
	require.NoError(t, err)

	res, err := svc.Integrate(context.Background(), bundle)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Phase)
	assert.Equal(t, 1, res.PatternsAdded)
	assert.Equal(t, 1, res.NewEntityTypes)
	assert.Equal(t, 3, res.TotalPatterns)
	assert.NotEmpty(t, res.OperationID)

	data, err := os.ReadFile(docPath)
	require.NoError(t, err)
	doc, err := library.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, 3, doc.Metadata.TotalPatterns)
	assert.True(t, doc.Metadata.HasPhase(2))
	require.NoError(t, library.Validate(doc))

	// No stray lock or tmp file left behind.
	_, err = os.Stat(docPath + ".lock")
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(docPath + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestServiceIntegrate_BackupMatchesPreMergeBytes(t *testing.T) {
	svc, docPath := newTestService(t)

	bundle, err := ParseBundle([]byte(phaseBundle))
	require.NoError(t, err)

	res, err := svc.Integrate(context.Background(), bundle)
	require.NoError(t, err)

	assert.Equal(t, docPath+".backup_phase2_pre_integration", res.BackupPath)
	backup, err := os.ReadFile(res.BackupPath)
	require.NoError(t, err)
	assert.Equal(t, masterDoc, string(backup))
}

func TestServiceIntegrate_SecondAttemptRejectedAndUntouched(t *testing.T) {
	svc, docPath := newTestService(t)

	bundle, err := ParseBundle([]byte(phaseBundle))
	require.NoError(t, err)

	_, err = svc.Integrate(context.Background(), bundle)
	require.NoError(t, err)

	before, err := os.ReadFile(docPath)
	require.NoError(t, err)

	_, err = svc.Integrate(context.Background(), bundle)
	require.Error(t, err)
	assert.ErrorIs(t, err, library.ErrAlreadyIntegrated)

	after, err := os.ReadFile(docPath)
	require.NoError(t, err)
	assert.Equal(t, before, after, "rejected merge must leave the document byte-for-byte unchanged")
}

func TestServiceIntegrate_StructuralMismatchNoWrite(t *testing.T) {
	dir := t.TempDir()
	docPath := filepath.Join(dir, "patterns.yaml")
	broken := "patterns:\n  - no metadata here\n"
	require.NoError(t, os.WriteFile(docPath, []byte(broken), 0600))

	svc, err := NewService(&Config{DocumentPath: docPath}, zaptest.NewLogger(t))
	require.NoError(t, err)

	bundle, err := ParseBundle([]byte(phaseBundle))
	require.NoError(t, err)

	_, err = svc.Integrate(context.Background(), bundle)
	require.Error(t, err)
	assert.ErrorIs(t, err, library.ErrStructuralMismatch)

	// Document untouched, no backup created.
	data, err := os.ReadFile(docPath)
	require.NoError(t, err)
	assert.Equal(t, broken, string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestServiceIntegrate_Locked(t *testing.T) {
	svc, docPath := newTestService(t)

	require.NoError(t, os.WriteFile(docPath+".lock", []byte("pid 1\n"), 0600))

	bundle, err := ParseBundle([]byte(phaseBundle))
	require.NoError(t, err)

	_, err = svc.Integrate(context.Background(), bundle)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLocked)
}

func TestServiceIntegrate_MissingDocument(t *testing.T) {
	svc, err := NewService(&Config{DocumentPath: filepath.Join(t.TempDir(), "absent.yaml")}, zaptest.NewLogger(t))
	require.NoError(t, err)

	bundle, err := ParseBundle([]byte(phaseBundle))
	require.NoError(t, err)

	_, err = svc.Integrate(context.Background(), bundle)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestServiceIntegrate_BackupDir(t *testing.T) {
	dir := t.TempDir()
	backupDir := filepath.Join(dir, "backups")
	require.NoError(t, os.Mkdir(backupDir, 0700))

	docPath := filepath.Join(dir, "patterns.yaml")
	require.NoError(t, os.WriteFile(docPath, []byte(masterDoc), 0600))

	svc, err := NewService(&Config{DocumentPath: docPath, BackupDir: backupDir}, zaptest.NewLogger(t))
	require.NoError(t, err)

	bundle, err := ParseBundle([]byte(phaseBundle))
	require.NoError(t, err)

	res, err := svc.Integrate(context.Background(), bundle)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(backupDir, "patterns.yaml.backup_phase2_pre_integration"), res.BackupPath)
}

func TestNewService_RequiresDocumentPath(t *testing.T) {
	_, err := NewService(nil, nil)
	require.Error(t, err)
	_, err = NewService(&Config{}, nil)
	require.Error(t, err)
}
