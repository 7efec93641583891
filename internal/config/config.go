// Package config provides configuration loading for patternd.
//
// Configuration is loaded from a YAML file with environment-variable
// overrides. See Load for precedence and variable naming.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/patternd/internal/logging"
)

// Config holds the complete patternd configuration.
type Config struct {
	Library LibraryConfig  `koanf:"library"`
	Server  ServerConfig   `koanf:"server"`
	Logging logging.Config `koanf:"logging"`
}

// LibraryConfig locates the pattern document and its collaborators.
type LibraryConfig struct {
	// DocumentPath is the master pattern document.
	DocumentPath string `koanf:"document_path"`

	// EntityTypesPath is the authoritative entity-type catalog.
	EntityTypesPath string `koanf:"entity_types_path"`

	// BackupDir receives pre-merge backups. Empty means alongside the
	// document.
	BackupDir string `koanf:"backup_dir"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// Watch enables fsnotify-based report cache invalidation when the
	// pattern document changes on disk.
	Watch bool `koanf:"watch"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Library: LibraryConfig{
			DocumentPath:    "patterns.yaml",
			EntityTypesPath: "entity_types.yaml",
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            9280,
			ShutdownTimeout: 10 * time.Second,
			Watch:           true,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Validate checks the configuration for usable values.
func (c *Config) Validate() error {
	if c.Library.DocumentPath == "" {
		return errors.New("library.document_path is required")
	}
	if c.Library.EntityTypesPath == "" {
		return errors.New("library.entity_types_path is required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("server.shutdown_timeout must be positive")
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	return nil
}
