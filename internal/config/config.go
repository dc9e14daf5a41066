// Package config loads launcher and drop-in service settings from a
// TOML file, overlaying defaults so absent keys keep their documented
// values.
package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config carries the settings shared by the launcher and the desktop
// drop-in service. Updating the file requires a service restart.
type Config struct {
	// CacheDir overrides the per-user box cache root when set.
	CacheDir string

	// ProbeIntervalSeconds is the drop-in service polling interval.
	ProbeIntervalSeconds int

	// GlobalProbeTargets are system-wide directories scanned for
	// bundles whose launcher entries go to SystemApplicationsDir.
	GlobalProbeTargets []string

	// BaseDirectory is the parent of per-user home directories.
	BaseDirectory string

	// ApplicationsDirectory is the per-user bundle directory name
	// under each home.
	ApplicationsDirectory string

	// MakeDirectoryIfPossible creates missing per-user application
	// directories (with matching ownership) during scans.
	MakeDirectoryIfPossible bool

	// SystemApplicationsDir receives .desktop entries for bundles
	// found in the global probe targets.
	SystemApplicationsDir string

	// RegistryDir and RegistryFile locate the persisted record of
	// bundle → desktop-link associations.
	RegistryDir  string
	RegistryFile string

	// LauncherCommand is the command written into generated Exec=
	// lines, invoked with the bundle path appended.
	LauncherCommand string
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		ProbeIntervalSeconds: 3,
		GlobalProbeTargets: []string{
			"/applications",
			"/opt/applications",
			"/opt/aisp/sys/applications",
			"/opt/aisp/applications",
		},
		BaseDirectory:           "/home",
		ApplicationsDirectory:   "Applications",
		MakeDirectoryIfPossible: true,
		SystemApplicationsDir:   "/usr/share/applications",
		RegistryDir:             "/var/lib/apprun",
		RegistryFile:            "desktop-links.json",
		LauncherCommand:         "/usr/local/bin/apprun launch",
	}
}

// fileConfig maps config.toml keys onto runtime settings.
type fileConfig struct {
	CacheDir                string   `toml:"cache_dir"`
	ProbeIntervalSeconds    int      `toml:"probe_interval_seconds"`
	GlobalProbeTargets      []string `toml:"global_probe_targets"`
	BaseDirectory           string   `toml:"base_directory"`
	ApplicationsDirectory   string   `toml:"applications_directory"`
	MakeDirectoryIfPossible bool     `toml:"make_directory_if_possible"`
	SystemApplicationsDir   string   `toml:"system_applications_dir"`
	RegistryDir             string   `toml:"registry_dir"`
	RegistryFile            string   `toml:"registry_file"`
	LauncherCommand         string   `toml:"launcher_command"`
}

// Load reads a TOML config file over the defaults. Only keys present
// in the file override their default values.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load apprun config: %w", err)
	}

	if meta.IsDefined("cache_dir") {
		cfg.CacheDir = strings.TrimSpace(raw.CacheDir)
	}
	if meta.IsDefined("probe_interval_seconds") {
		cfg.ProbeIntervalSeconds = raw.ProbeIntervalSeconds
	}
	if meta.IsDefined("global_probe_targets") {
		cfg.GlobalProbeTargets = raw.GlobalProbeTargets
	}
	if meta.IsDefined("base_directory") {
		cfg.BaseDirectory = strings.TrimSpace(raw.BaseDirectory)
	}
	if meta.IsDefined("applications_directory") {
		cfg.ApplicationsDirectory = strings.TrimSpace(raw.ApplicationsDirectory)
	}
	if meta.IsDefined("make_directory_if_possible") {
		cfg.MakeDirectoryIfPossible = raw.MakeDirectoryIfPossible
	}
	if meta.IsDefined("system_applications_dir") {
		cfg.SystemApplicationsDir = strings.TrimSpace(raw.SystemApplicationsDir)
	}
	if meta.IsDefined("registry_dir") {
		cfg.RegistryDir = strings.TrimSpace(raw.RegistryDir)
	}
	if meta.IsDefined("registry_file") {
		cfg.RegistryFile = strings.TrimSpace(raw.RegistryFile)
	}
	if meta.IsDefined("launcher_command") {
		cfg.LauncherCommand = strings.TrimSpace(raw.LauncherCommand)
	}

	return cfg, nil
}
