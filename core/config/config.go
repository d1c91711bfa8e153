// Package config loads syntaxalyser settings from TOML or YAML files.
//
// A file is decoded twice: once into a generic map that is checked
// against the embedded JSON schema, then into Config. Missing values get
// defaults, so an empty file is a valid configuration.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// SchemaMajor is the only configuration major version understood
const SchemaMajor = "v1"

// EnvVar names the environment variable LoadFromEnv reads
const EnvVar = "SYNTAXALYSER_CONFIG"

// Format represents the configuration file format
type Format int

const (
	// FormatAuto detects the format from the file extension
	FormatAuto Format = iota

	// FormatTOML represents TOML format (default)
	FormatTOML

	// FormatYAML represents YAML format
	FormatYAML
)

// String returns the string representation of the format
func (f Format) String() string {
	switch f {
	case FormatTOML:
		return "toml"
	case FormatYAML:
		return "yaml"
	case FormatAuto:
		return "auto"
	default:
		return "unknown"
	}
}

// Config holds the complete configuration
type Config struct {
	SchemaVersion string       `toml:"schema_version" yaml:"schema_version"`
	Trace         TraceConfig  `toml:"trace" yaml:"trace"`
	Log           LogConfig    `toml:"log" yaml:"log"`
	Parser        ParserConfig `toml:"parser" yaml:"parser"`

	// Path is the file the configuration came from, empty for defaults
	Path string `toml:"-" yaml:"-"`
}

// TraceConfig controls how parse traces are rendered
type TraceConfig struct {
	Format string `toml:"format" yaml:"format"` // text, json, pretty or cbor
	Prefix string `toml:"prefix" yaml:"prefix"` // put in front of each text line
	Color  string `toml:"color" yaml:"color"`   // auto, always or never
	Digest bool   `toml:"digest" yaml:"digest"`
}

// LogConfig controls diagnostic logging
type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// ParserConfig controls the parser
type ParserConfig struct {
	Hints     *bool  `toml:"hints" yaml:"hints"`
	StartRule string `toml:"start_rule" yaml:"start_rule"`
}

// HintsEnabled reports whether keyword hints are on. They are unless
// the file turns them off.
func (p ParserConfig) HintsEnabled() bool {
	return p.Hints == nil || *p.Hints
}

// Default returns the configuration used when no file is given
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from a file, picking the format from its
// extension
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg, err := LoadFromBytes(content, detectFormat(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// LoadFromString loads configuration from a string in the given format
func LoadFromString(content string, format Format) (*Config, error) {
	return LoadFromBytes([]byte(content), format)
}

// LoadFromBytes decodes, validates and completes a configuration
func LoadFromBytes(content []byte, format Format) (*Config, error) {
	if format == FormatAuto {
		format = FormatTOML
	}

	data, err := parseContent(content, format)
	if err != nil {
		return nil, err
	}
	if err := validate(data); err != nil {
		return nil, err
	}

	var cfg Config
	if err := decodeContent(content, format, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := checkSchemaVersion(cfg.SchemaVersion); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromEnv loads the file named by SYNTAXALYSER_CONFIG, or the first
// file found in the default locations. With neither it returns Default.
func LoadFromEnv() (*Config, error) {
	if path := os.Getenv(EnvVar); path != "" {
		return Load(path)
	}

	for _, p := range defaultPaths() {
		if _, err := os.Stat(p); err == nil {
			return Load(p)
		}
	}
	return Default(), nil
}

func defaultPaths() []string {
	paths := []string{
		"./syntaxalyser.toml",
		"./syntaxalyser.yaml",
		"./syntaxalyser.yml",
	}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths,
			filepath.Join(dir, "syntaxalyser", "config.toml"),
			filepath.Join(dir, "syntaxalyser", "config.yaml"),
		)
	}
	return paths
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	if c.SchemaVersion == "" {
		c.SchemaVersion = "v1.0.0"
	}

	// Trace
	if c.Trace.Format == "" {
		c.Trace.Format = "text"
	}
	if c.Trace.Color == "" {
		c.Trace.Color = "auto"
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = "warn"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	// Parser
	if c.Parser.StartRule == "" {
		c.Parser.StartRule = "statement part"
	}
}

// detectFormat determines the configuration format from file extension
func detectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

// parseContent decodes content into a generic map for schema validation
func parseContent(content []byte, format Format) (map[string]interface{}, error) {
	data := map[string]interface{}{}

	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(content, &data); err != nil {
			return nil, fmt.Errorf("TOML parse error: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(content, &data); err != nil {
			return nil, fmt.Errorf("YAML parse error: %w", err)
		}
		if data == nil {
			// Empty document
			data = map[string]interface{}{}
		}
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	return data, nil
}

// decodeContent decodes already validated content into cfg
func decodeContent(content []byte, format Format, cfg *Config) error {
	switch format {
	case FormatTOML:
		if _, err := toml.NewDecoder(bytes.NewReader(content)).Decode(cfg); err != nil {
			return fmt.Errorf("TOML decode error: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(content, cfg); err != nil {
			return fmt.Errorf("YAML decode error: %w", err)
		}
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
	return nil
}
