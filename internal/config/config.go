// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads cmdrelay configuration.
//
// Values come from, in increasing precedence: built-in defaults, flag
// defaults, the YAML config file, and flags set on the command line. The
// file is validated against the generated JSON Schema before it is read.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/holomush/cmdrelay/internal/logging"
	"github.com/holomush/cmdrelay/internal/module/lua"
	"github.com/holomush/cmdrelay/internal/resolver"
)

// CodeInvalidConfig is returned for unreadable or invalid configuration.
const CodeInvalidConfig = "INVALID_CONFIG"

// Config is the cmdrelay configuration.
type Config struct {
	SearchPathEnv string            `koanf:"search_path_env" yaml:"search_path_env" jsonschema:"description=Environment variable holding the module search path"`
	ModulesDir    string            `koanf:"modules_dir" yaml:"modules_dir" jsonschema:"description=Directory searched after the search path"`
	Extension     string            `koanf:"extension" yaml:"extension" jsonschema:"description=Primary module file extension,pattern=^\\."`
	ModuleSuffix  string            `koanf:"module_suffix" yaml:"module_suffix" jsonschema:"description=Module-type suffix inserted before the extension"`
	APIConstraint string            `koanf:"api_constraint" yaml:"api_constraint" jsonschema:"description=Semver constraint on a module's api_version"`
	UndoLimit     int               `koanf:"undo_limit" yaml:"undo_limit" jsonschema:"minimum=1,description=Maximum undo depth"`
	LogFormat     string            `koanf:"log_format" yaml:"log_format" jsonschema:"enum=json,enum=text"`
	LogLevel      string            `koanf:"log_level" yaml:"log_level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	MetricsAddr   string            `koanf:"metrics_addr" yaml:"metrics_addr" jsonschema:"description=Metrics and health HTTP address; empty disables"`
	Diagnostics   DiagnosticsConfig `koanf:"diagnostics" yaml:"diagnostics"`
}

// DiagnosticsConfig controls method-entry tracing.
type DiagnosticsConfig struct {
	Trace   bool     `koanf:"trace" yaml:"trace" jsonschema:"description=Print a trace line on every relay and container entry point"`
	Filters []string `koanf:"filters" yaml:"filters" jsonschema:"description=Glob patterns selecting traced entry points"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		SearchPathEnv: resolver.DefaultEnvVar,
		Extension:     resolver.DefaultExtension,
		ModuleSuffix:  resolver.DefaultSuffix,
		APIConstraint: lua.DefaultAPIConstraint,
		UndoLimit:     100,
		LogFormat:     logging.FormatText,
		LogLevel:      "info",
	}
}

// flagKeys maps flag names to config keys. Flags not listed are not
// configuration.
var flagKeys = map[string]string{
	"search-path-env": "search_path_env",
	"modules-dir":     "modules_dir",
	"extension":       "extension",
	"module-suffix":   "module_suffix",
	"api-constraint":  "api_constraint",
	"undo-limit":      "undo_limit",
	"log-format":      "log_format",
	"log-level":       "log_level",
	"metrics-addr":    "metrics_addr",
	"trace":           "diagnostics.trace",
	"trace-filter":    "diagnostics.filters",
}

// Source names the config file to read. A missing file is an error only
// when Explicit is set.
type Source struct {
	Path     string
	Explicit bool
}

// Load reads configuration from src and flags. flags may be nil.
func Load(src Source, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if src.Path != "" {
		data, err := os.ReadFile(src.Path)
		switch {
		case errors.Is(err, fs.ErrNotExist) && !src.Explicit:
		case err != nil:
			return nil, oops.In("config").
				Code(CodeInvalidConfig).
				With("path", src.Path).
				Wrapf(err, "read config")
		default:
			if err := ValidateSchema(data); err != nil {
				return nil, oops.In("config").
					Code(CodeInvalidConfig).
					With("path", src.Path).
					Wrap(err)
			}
			if err := k.Load(file.Provider(src.Path), yaml.Parser()); err != nil {
				return nil, oops.In("config").
					Code(CodeInvalidConfig).
					With("path", src.Path).
					Wrapf(err, "parse config")
			}
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.In("config").Code(CodeInvalidConfig).Wrapf(err, "load flags")
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.In("config").Code(CodeInvalidConfig).Wrapf(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values the schema cannot express.
func (c *Config) Validate() error {
	invalid := func(key string, value any, format string, a ...any) error {
		return oops.In("config").
			Code(CodeInvalidConfig).
			With("key", key).
			With("value", value).
			Errorf(format, a...)
	}

	if c.SearchPathEnv == "" {
		return invalid("search_path_env", c.SearchPathEnv, "search_path_env is required")
	}
	if !strings.HasPrefix(c.Extension, ".") {
		return invalid("extension", c.Extension, "extension must start with '.', got %q", c.Extension)
	}
	if c.UndoLimit < 1 {
		return invalid("undo_limit", c.UndoLimit, "undo_limit must be at least 1, got %d", c.UndoLimit)
	}
	if !logging.ValidFormat(c.LogFormat) {
		return invalid("log_format", c.LogFormat, "log_format must be 'json' or 'text', got %q", c.LogFormat)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return oops.In("config").Code(CodeInvalidConfig).With("key", "log_level").Wrap(err)
	}
	if _, err := semver.NewConstraint(c.APIConstraint); err != nil {
		return oops.In("config").
			Code(CodeInvalidConfig).
			With("key", "api_constraint").
			With("value", c.APIConstraint).
			Wrapf(err, "api_constraint")
	}
	for i, f := range c.Diagnostics.Filters {
		if strings.TrimSpace(f) == "" {
			return invalid("diagnostics.filters", f, "diagnostics.filters[%d] is empty", i)
		}
	}
	return nil
}

// YAML renders the configuration as a config file.
func (c *Config) YAML() ([]byte, error) {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return nil, oops.In("config").Wrapf(err, "encode config")
	}
	return data, nil
}
