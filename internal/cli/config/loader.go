package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store logger in context.
type loggerKey struct{}

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// Environment variables.
const (
	EnvPrefix = "DBSCHEMA_"
	// LegacyMetadataEnv is honoured for metadata.directory when nothing else sets it.
	LegacyMetadataEnv = "D365FO_METADATA_DIRECTORY"
)

// flagKeys maps flag names to config keys. Flags not listed are not
// configuration (selection criteria, output paths, ...).
var flagKeys = map[string]string{
	"metadata":               "metadata.directory",
	"source":                 "metadata.type",
	"index":                  "metadata.index",
	"dsn":                    "metadata.dsn",
	"schema":                 "metadata.schema",
	"model":                  "module",
	"table":                  "tables",
	"simplify-types":         "simplify_types",
	"ignore-staging":         "ignore_staging",
	"ignore-self-references": "ignore_self_references",
	"format":                 "render.format",
	"include-non-keyfields":  "render.include_all_fields",
	"include-extensions":     "render.include_extension_fields",
	"mark-mandatory":         "render.mark_mandatory",
	"port":                   "server.port",
	"output":                 "output",
	"verbose":                "verbose",
	"log-level":              "log_level",
}

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config
)

// configFileIn returns the config file in dir, if any.
func configFileIn(dir string) string {
	for _, name := range configFileNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// findConfigFileUpward searches upward from startDir for a dbschema config file.
func findConfigFileUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if found := configFileIn(dir); found != "" {
			return found
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) || path == ":memory:" {
		return path
	}
	return filepath.Join(baseDir, path)
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k = koanf.New(".")

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"metadata.type":           "yaml",
		"metadata.index":          DefaultIndexFile,
		"render.format":           DefaultFormat,
		"server.port":             DefaultPort,
		"server.shutdown_timeout": DefaultShutdownTimeout,
		"output":                  DefaultOutput,
		"log_level":               DefaultLogLevel,
		"verbose":                 false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file: explicit, else searched upward from the working directory
	if cfgFile == "" {
		cfgFile = findConfigFileUpward(cwd)
	}
	configFileUsed = cfgFile
	projectRoot := cwd
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
		if abs, err := filepath.Abs(configFileUsed); err == nil {
			projectRoot = filepath.Dir(abs)
		}
	}

	// 3. Environment. The legacy variable only fills metadata.directory when
	// neither the file nor DBSCHEMA_METADATA__DIRECTORY set it.
	if !k.Exists("metadata.directory") {
		if err := k.Load(env.Provider("D365FO_", ".", func(s string) string {
			if s == LegacyMetadataEnv {
				return "metadata.directory"
			}
			return ""
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load env vars: %w", err)
		}
	}
	// Transform: DBSCHEMA_METADATA__DIRECTORY -> metadata.directory
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags (highest priority). Paths given on the command line are
	// relative to the working directory, not the project root.
	flagPaths := map[string]string{}
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			val := posflag.FlagVal(flags, f)
			if key == "metadata.directory" || key == "metadata.index" {
				if s, ok := val.(string); ok && s != "" {
					abs, err := filepath.Abs(s)
					if err == nil {
						flagPaths[key] = abs
					}
				}
			}
			return key, val
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			Result:           &cfg,
			WeaklyTypedInput: true,
		},
	}); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// 6. Resolve paths
	cfg.ProjectRoot = projectRoot
	if p, ok := flagPaths["metadata.directory"]; ok {
		cfg.Metadata.Directory = p
	} else {
		cfg.Metadata.Directory = resolvePathRelativeTo(cfg.Metadata.Directory, projectRoot)
	}
	if p, ok := flagPaths["metadata.index"]; ok {
		cfg.Metadata.Index = p
	} else {
		cfg.Metadata.Index = resolvePathRelativeTo(cfg.Metadata.Index, projectRoot)
	}
	cfg.Tables = trimAll(cfg.Tables)

	currentConfig = &cfg
	return &cfg, nil
}

func trimAll(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the configuration of the last LoadConfig call.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
// The commands package reads the logger through it without importing cli.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}
