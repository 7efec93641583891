package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "patterns.yaml", cfg.Library.DocumentPath)
	assert.Equal(t, "entity_types.yaml", cfg.Library.EntityTypesPath)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 9280, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.True(t, cfg.Server.Watch)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `library:
  document_path: /var/lib/patternd/patterns.yaml
  entity_types_path: /var/lib/patternd/entity_types.yaml
  backup_dir: /var/lib/patternd/backups
server:
  port: 9281
  shutdown_timeout: 5s
logging:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/patternd/patterns.yaml", cfg.Library.DocumentPath)
	assert.Equal(t, "/var/lib/patternd/backups", cfg.Library.BackupDir)
	assert.Equal(t, 9281, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	// File did not touch host; default survives.
	assert.Equal(t, "localhost", cfg.Server.Host)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9281\n"), 0600))

	t.Setenv("PATTERND_SERVER_PORT", "9299")
	t.Setenv("PATTERND_LIBRARY_DOCUMENT_PATH", "/tmp/master.yaml")
	t.Setenv("PATTERND_LOGGING_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9299, cfg.Server.Port)
	assert.Equal(t, "/tmp/master.yaml", cfg.Library.DocumentPath)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "port out of range", content: "server:\n  port: 70000\n"},
		{name: "empty document path", content: "library:\n  document_path: \"\"\n"},
		{name: "bad log level", content: "logging:\n  level: chatty\n"},
		{name: "zero shutdown timeout", content: "server:\n  shutdown_timeout: 0s\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0600))

			_, err := Load(path)
			require.Error(t, err)
		})
	}
}

func TestTransformEnv(t *testing.T) {
	assert.Equal(t, "library.document_path", transformEnv("PATTERND_LIBRARY_DOCUMENT_PATH"))
	assert.Equal(t, "server.port", transformEnv("PATTERND_SERVER_PORT"))
	assert.Equal(t, "logging.level", transformEnv("PATTERND_LOGGING_LEVEL"))
}
