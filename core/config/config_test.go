package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "v1.0.0", cfg.SchemaVersion)
	assert.Equal(t, "text", cfg.Trace.Format)
	assert.Equal(t, "auto", cfg.Trace.Color)
	assert.Equal(t, "", cfg.Trace.Prefix)
	assert.False(t, cfg.Trace.Digest)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.True(t, cfg.Parser.HintsEnabled())
	assert.Equal(t, "statement part", cfg.Parser.StartRule)
	assert.Empty(t, cfg.Path)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "config.toml", `
schema_version = "1.2.0"

[trace]
format = "json"
prefix = "rgg"
digest = true

[log]
level = "debug"

[parser]
hints = false
start_rule = "<procedure statement>"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, "1.2.0", cfg.SchemaVersion)
	assert.Equal(t, "json", cfg.Trace.Format)
	assert.Equal(t, "rgg", cfg.Trace.Prefix)
	assert.True(t, cfg.Trace.Digest)
	assert.Equal(t, "auto", cfg.Trace.Color, "unset values get defaults")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.False(t, cfg.Parser.HintsEnabled())
	assert.Equal(t, "<procedure statement>", cfg.Parser.StartRule)
}

func TestLoadYAML(t *testing.T) {
	for _, name := range []string{"config.yaml", "config.yml"} {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, name, `
schema_version: v1
trace:
  format: pretty
  color: never
log:
  format: json
`)
			cfg, err := Load(path)
			require.NoError(t, err)

			assert.Equal(t, "pretty", cfg.Trace.Format)
			assert.Equal(t, "never", cfg.Trace.Color)
			assert.Equal(t, "json", cfg.Log.Format)
			assert.True(t, cfg.Parser.HintsEnabled())
		})
	}
}

func TestLoadEmptyFiles(t *testing.T) {
	for _, name := range []string{"empty.toml", "empty.yaml"} {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, name, ""))
			require.NoError(t, err)
			assert.Equal(t, Default().Trace, cfg.Trace)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.ErrorContains(t, err, "config file not found")
}

func TestLoadExpandsEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.toml"), []byte(`[trace]
format = "cbor"`), 0o644))
	t.Setenv("SYNTAXALYSER_TEST_DIR", dir)

	cfg, err := Load("$SYNTAXALYSER_TEST_DIR/c.toml")
	require.NoError(t, err)
	assert.Equal(t, "cbor", cfg.Trace.Format)
}

func TestSchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		content string
		format  Format
	}{
		{"unknown top-level key", `colour = "red"`, FormatTOML},
		{"unknown trace key", "[trace]\nwidth = 3", FormatTOML},
		{"bad trace format", `[trace]
format = "xml"`, FormatTOML},
		{"bad color", "trace:\n  color: sometimes\n", FormatYAML},
		{"long prefix", `[trace]
prefix = "0123456789abcdefg"`, FormatTOML},
		{"bad log level", "log:\n  level: loud\n", FormatYAML},
		{"hints not boolean", "parser:\n  hints: maybe\n", FormatYAML},
		{"empty start rule", `[parser]
start_rule = ""`, FormatTOML},
		{"version not semver", `schema_version = "one"`, FormatTOML},
		{"version not a string", "schema_version: 1.0\n", FormatYAML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromString(tt.content, tt.format)
			require.Error(t, err)
			assert.ErrorContains(t, err, "invalid config")

			var ve *jsonschema.ValidationError
			assert.True(t, errors.As(err, &ve), "expected a schema validation error, got %v", err)
		})
	}
}

func TestSchemaVersionMajor(t *testing.T) {
	for _, v := range []string{"1", "v1", "1.0.0", "v1.9.3", "1.0.0-rc.1"} {
		_, err := LoadFromString(`schema_version = "`+v+`"`, FormatTOML)
		assert.NoError(t, err, v)
	}

	_, err := LoadFromString(`schema_version = "2.0.0"`, FormatTOML)
	assert.ErrorContains(t, err, "unsupported schema_version")
}

func TestParseErrors(t *testing.T) {
	_, err := LoadFromString("[trace", FormatTOML)
	assert.ErrorContains(t, err, "TOML parse error")

	_, err = LoadFromString("trace: [unclosed", FormatYAML)
	assert.ErrorContains(t, err, "YAML parse error")

	_, err = LoadFromString("", Format(42))
	assert.ErrorContains(t, err, "unsupported format")
}

func TestLoadErrorNamesFile(t *testing.T) {
	path := writeFile(t, "bad.toml", `[trace]
format = "xml"`)
	_, err := Load(path)
	assert.ErrorContains(t, err, path)
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatYAML, detectFormat("a.yaml"))
	assert.Equal(t, FormatYAML, detectFormat("A.YML"))
	assert.Equal(t, FormatTOML, detectFormat("a.toml"))
	assert.Equal(t, FormatTOML, detectFormat("config"))
}

func TestFormatString(t *testing.T) {
	assert.Equal(t, "toml", FormatTOML.String())
	assert.Equal(t, "yaml", FormatYAML.String())
	assert.Equal(t, "auto", FormatAuto.String())
	assert.Equal(t, "unknown", Format(9).String())
}

func TestLoadFromEnv(t *testing.T) {
	path := writeFile(t, "env.yaml", "trace:\n  format: json\n")
	t.Setenv(EnvVar, path)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Trace.Format)
	assert.Equal(t, path, cfg.Path)
}

func TestLoadFromEnvMissingFile(t *testing.T) {
	t.Setenv(EnvVar, filepath.Join(t.TempDir(), "missing.toml"))
	_, err := LoadFromEnv()
	assert.Error(t, err)
}

func TestLoadFromEnvFallsBackToDefaults(t *testing.T) {
	t.Setenv(EnvVar, "")
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFromEnvFindsLocalFile(t *testing.T) {
	t.Setenv(EnvVar, "")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "syntaxalyser.toml"), []byte(`[log]
level = "error"`), 0o644))
	t.Chdir(dir)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, "./syntaxalyser.toml", cfg.Path)
}
