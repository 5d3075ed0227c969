// Package config loads dbschema configuration from defaults, dbschema.yaml,
// environment variables and command-line flags.
package config

import (
	"time"

	"github.com/leapstack-labs/dbschema/internal/metadata"
)

// Config holds all CLI configuration options.
type Config struct {
	Metadata             metadata.Config `koanf:"metadata"`
	Module               string          `koanf:"module"`
	Tables               []string        `koanf:"tables"`
	SimplifyTypes        bool            `koanf:"simplify_types"`
	IgnoreStaging        bool            `koanf:"ignore_staging"`
	IgnoreSelfReferences bool            `koanf:"ignore_self_references"`
	Render               RenderConfig    `koanf:"render"`
	Server               ServerConfig    `koanf:"server"`
	OutputFormat         string          `koanf:"output"`
	Verbose              bool            `koanf:"verbose"`
	LogLevel             string          `koanf:"log_level"`

	// ProjectRoot is the directory relative paths were resolved against.
	ProjectRoot string `koanf:"-"`
}

// RenderConfig holds document rendering defaults.
type RenderConfig struct {
	Format                 string `koanf:"format"`
	IncludeAllFields       bool   `koanf:"include_all_fields"`
	IncludeExtensionFields bool   `koanf:"include_extension_fields"`
	MarkMandatory          bool   `koanf:"mark_mandatory"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Default configuration values.
const (
	DefaultIndexFile       = ".dbschema/index.db"
	DefaultFormat          = "dbml"
	DefaultPort            = 8088
	DefaultShutdownTimeout = "5s"
	DefaultOutput          = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultLogLevel        = "warn"
)

// Config file names, searched in this order.
var configFileNames = []string{"dbschema.yaml", "dbschema.yml"}
