// Package config loads pdxscript tool settings from TOML or YAML files.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	pdx "github.com/chismar/ParadoxDevelopmentStudioScriptingLanguageParser"
)

// FileNames are looked up, in order, by Find.
var FileNames = []string{".pdxscript.toml", ".pdxscript.yaml", ".pdxscript.yml"}

// Config holds settings shared by every pdxscript command.
type Config struct {
	Format FormatConfig `toml:"format" yaml:"format"`
	Parse  ParseConfig  `toml:"parse" yaml:"parse"`
	Check  CheckConfig  `toml:"check" yaml:"check"`
	Log    LogConfig    `toml:"log" yaml:"log"`
}

// FormatConfig controls the printer.
type FormatConfig struct {
	Indent        string `toml:"indent" yaml:"indent"`
	PercentSuffix string `toml:"percent_suffix" yaml:"percent_suffix"`
}

// ParseConfig controls the parser.
type ParseConfig struct {
	MaxDepth  int  `toml:"max_depth" yaml:"max_depth"`
	ListFirst bool `toml:"list_first" yaml:"list_first"`
}

// CheckConfig controls the check command.
type CheckConfig struct {
	Workers int `toml:"workers" yaml:"workers"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level string `toml:"level" yaml:"level"`
}

// Default returns the settings used when no file is present.
func Default() *Config {
	return &Config{
		Format: FormatConfig{Indent: " ", PercentSuffix: "%%"},
		Check:  CheckConfig{Workers: 4},
		Log:    LogConfig{Level: "info"},
	}
}

// Load reads a config file, choosing the decoder from its extension.
// Keys missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(content), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(content, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Find returns the first config file present in dir.
func Find(dir string) (string, bool) {
	for _, name := range FileNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

// Validate checks that the settings can be applied.
func (c *Config) Validate() error {
	if strings.Trim(c.Format.Indent, " \t") != "" {
		return fmt.Errorf("format.indent must contain only spaces and tabs")
	}
	if c.Format.PercentSuffix == "" || strings.Trim(c.Format.PercentSuffix, "%") != "" {
		return fmt.Errorf("format.percent_suffix must be one or more '%%'")
	}
	if c.Parse.MaxDepth < 0 {
		return fmt.Errorf("parse.max_depth must not be negative")
	}
	if c.Check.Workers < 1 {
		return fmt.Errorf("check.workers must be at least 1")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel converts Log.Level to a slog.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// Parser builds a parser from the parse settings.
func (c *Config) Parser(logger *slog.Logger) *pdx.Parser {
	return pdx.NewParser().
		WithLogger(logger).
		WithMaxDepth(c.Parse.MaxDepth).
		WithTableFirst(!c.Parse.ListFirst)
}

// Printer builds a printer from the format settings.
func (c *Config) Printer() *pdx.Printer {
	return pdx.NewPrinter().
		WithIndent(c.Format.Indent).
		WithPercentSuffix(c.Format.PercentSuffix)
}
