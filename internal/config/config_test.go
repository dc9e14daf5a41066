package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "apprun.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
probe_interval_seconds = 10
global_probe_targets = ["/srv/apps"]
launcher_command = "/usr/bin/apprun launch"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.ProbeIntervalSeconds)
	assert.Equal(t, []string{"/srv/apps"}, cfg.GlobalProbeTargets)
	assert.Equal(t, "/usr/bin/apprun launch", cfg.LauncherCommand)

	// Untouched keys keep their defaults.
	def := Default()
	assert.Equal(t, def.BaseDirectory, cfg.BaseDirectory)
	assert.Equal(t, def.RegistryDir, cfg.RegistryDir)
	assert.Equal(t, def.SystemApplicationsDir, cfg.SystemApplicationsDir)
	assert.Equal(t, def.MakeDirectoryIfPossible, cfg.MakeDirectoryIfPossible)
}

func TestLoadExplicitFalseOverridesDefaultTrue(t *testing.T) {
	path := writeConfig(t, "make_directory_if_possible = false\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.MakeDirectoryIfPossible)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestLoadTrimsWhitespace(t *testing.T) {
	path := writeConfig(t, `cache_dir = "  /var/cache/apprun  "` + "\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/cache/apprun", cfg.CacheDir)
}
