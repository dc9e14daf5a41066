package desktop

import (
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"github.com/acadia-aisp/apprun/internal/bundle"
)

// Integrator writes .desktop launcher entries for bundles into a
// launcher directory. It satisfies the provisioner's desktop-install
// hook and is reused by the drop-in service.
type Integrator struct {
	// AppsDir is the directory launcher entries are written to.
	AppsDir string

	// Launcher is the command the Exec line invokes, e.g.
	// "/usr/local/bin/apprun launch".
	Launcher string

	Logger hclog.Logger
}

// EntryPath returns where the launcher entry for appID lives.
func (g *Integrator) EntryPath(appID string) string {
	return filepath.Join(g.AppsDir, appID+".desktop")
}

// Install renders and writes the launcher entry for a bundle. Bundles
// that do not declare a DesktopLink/Name are skipped: there is nothing
// meaningful to show in a menu. The write is atomic and skipped when
// the rendered content matches what is already installed.
func (g *Integrator) Install(b *bundle.Bundle, appID string) error {
	props := b.Props()
	if props["Name"] == "" {
		g.Logger.Debug("No desktop name declared, skipping entry", "bundle", b.Path)
		return nil
	}

	if err := os.MkdirAll(g.AppsDir, 0o755); err != nil {
		return err
	}

	content := Render(g.Launcher, props)
	path := g.EntryPath(appID)
	if err := writeFileIfChanged(path, []byte(content), 0o644); err != nil {
		return err
	}
	g.Logger.Debug("🔗 Desktop entry up to date", "path", path)
	return nil
}

// Remove deletes the launcher entry for appID if present.
func (g *Integrator) Remove(appID string) error {
	return removeFileQuietly(g.EntryPath(appID))
}

// NewUserIntegrator builds an Integrator targeting the invoking
// user's own launcher directory. Used when a launch provisions a
// bundle outside the drop-in service's reach.
func NewUserIntegrator(launcher string, logger hclog.Logger) (*Integrator, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &Integrator{
		AppsDir:  filepath.Join(home, userAppsRel),
		Launcher: launcher,
		Logger:   logger,
	}, nil
}
