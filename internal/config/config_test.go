package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefault verifies the built-in configuration is complete and valid:
// a run with no config file must be fully described by the defaults.
func TestDefault(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())

	assert.Equal(t, "v2.50.0", cfg.SDK.Ref)
	assert.Equal(t, "v3.12.0", cfg.Serialization.Ref)
	assert.Equal(t, "main", cfg.Companion.Branch)
	assert.Equal(t, 5, cfg.MinKernel.Major)
	assert.Equal(t, 10, cfg.MinKernel.Minor)
	assert.Zero(t, cfg.Jobs, "jobs should default to auto")
	assert.NotEmpty(t, cfg.Packages.Build)
	assert.True(t, filepath.IsAbs(cfg.SDK.SourceDir))
}

// TestLoad_NoFile verifies that a missing config file yields the defaults
// rather than an error.
func TestLoad_NoFile(t *testing.T) {
	// Run from an empty directory so the working-directory probe finds nothing.
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().SDK.Ref, cfg.SDK.Ref)
}

// TestLoad_ExplicitMissingFile verifies that an explicitly named file
// must exist.
func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

// TestLoad_YAMLOverrides verifies that a partial YAML file overrides only
// the fields it names, leaving the rest at their defaults.
func TestLoad_YAMLOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rsprov.yaml")
	content := `
sdk:
  repo: https://github.com/IntelRealSense/librealsense
  ref: v2.54.2
  sourceDir: /home/pi/librealsense
  udevScript: scripts/setup_udev_rules.sh
jobs: 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "v2.54.2", cfg.SDK.Ref)
	assert.Equal(t, "/home/pi/librealsense", cfg.SDK.SourceDir)
	assert.Equal(t, 2, cfg.Jobs)
	// Untouched sections keep their defaults.
	assert.Equal(t, "v3.12.0", cfg.Serialization.Ref)
	assert.Equal(t, "main", cfg.Companion.Branch)
}

// TestLoad_JSONCWithComments verifies the comment-tolerant config variant:
// comments and trailing commas must be stripped before parsing.
func TestLoad_JSONCWithComments(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rsprov.jsonc")
	content := `{
  // pin the SDK one release back
  "sdk": {
    "ref": "v2.49.0",
  },
  "jobs": 1,
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "v2.49.0", cfg.SDK.Ref)
	assert.Equal(t, 1, cfg.Jobs)
}

// TestLoad_InvalidConfigRejected verifies that a parseable file with
// invalid values is still refused.
func TestLoad_InvalidConfigRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rsprov.yaml")
	// Relative checkout path: removed/rewritten during a run, so refused.
	content := `
sdk:
  sourceDir: librealsense
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

// TestValidate_FieldChecks exercises the individual field validators.
func TestValidate_FieldChecks(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"empty sdk repo", func(c *Config) { c.SDK.Repo = "" }, "sdk.repo"},
		{"bad repo scheme", func(c *Config) { c.SDK.Repo = "ftp://example.com/x" }, "sdk.repo"},
		{"empty ref", func(c *Config) { c.Serialization.Ref = " " }, "serialization.ref"},
		{"relative dest", func(c *Config) { c.Companion.Dest = "rs_py" }, "companion.dest"},
		{"absolute udev script", func(c *Config) { c.SDK.UdevScript = "/etc/udev/setup.sh" }, "sdk.udevScript"},
		{"escaping udev script", func(c *Config) { c.SDK.UdevScript = "../outside.sh" }, "sdk.udevScript"},
		{"zero kernel major", func(c *Config) { c.MinKernel.Major = 0 }, "minKernel.major"},
		{"negative jobs", func(c *Config) { c.Jobs = -1 }, "jobs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}
