package config

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/leapstack-labs/dbschema/internal/metadata"
	"github.com/leapstack-labs/dbschema/internal/render"
)

var outputModes = []string{"auto", "text", "markdown", "json"}

// Validate checks the configuration before any metadata is opened.
func (c *Config) Validate() error {
	if err := c.Metadata.Validate(); err != nil {
		if c.Metadata.Type == metadata.TypeYAML && c.Metadata.Directory == "" {
			return fmt.Errorf("%w\nHint: pass --metadata, set metadata.directory in dbschema.yaml or export D365FO_METADATA_DIRECTORY", err)
		}
		return err
	}
	if c.Render.Format != "" && !slices.Contains(render.Formats(), c.Render.Format) {
		return fmt.Errorf("unknown render format %q (valid: %v)", c.Render.Format, render.Formats())
	}
	if c.OutputFormat != "" && !slices.Contains(outputModes, c.OutputFormat) {
		return fmt.Errorf("unknown output mode %q (valid: %v)", c.OutputFormat, outputModes)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLogLevel converts a level name to a slog level. Empty means warn.
func ParseLogLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelWarn, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", s, err)
	}
	return level, nil
}
