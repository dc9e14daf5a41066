package desktop

import (
	"context"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/acadia-aisp/apprun/internal/appid"
	"github.com/acadia-aisp/apprun/internal/bundle"
	"github.com/acadia-aisp/apprun/internal/config"
)

// userAppsRel is where per-user launcher entries live, relative to a
// home directory.
const userAppsRel = ".local/share/applications"

// Service is the drop-in probe loop. Each pass scans the configured
// system-wide bundle directories and every user's application
// directory, installs launcher entries for valid bundles, and removes
// entries whose bundle has disappeared or become invalid.
type Service struct {
	cfg    config.Config
	logger hclog.Logger
	store  *Store
	reg    Registry
}

// NewService builds a Service from a loaded configuration.
func NewService(cfg config.Config, logger hclog.Logger) *Service {
	return &Service{
		cfg:    cfg,
		logger: logger,
		store:  NewStore(filepath.Join(cfg.RegistryDir, cfg.RegistryFile), logger),
	}
}

// Run executes probe passes until the context is cancelled. The first
// pass happens immediately so entries appear without waiting out the
// interval.
func (s *Service) Run(ctx context.Context) error {
	interval := time.Duration(s.cfg.ProbeIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Duration(config.Default().ProbeIntervalSeconds) * time.Second
	}
	s.logger.Info("🛰️ Drop-in service started", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		s.RunOnce()
		select {
		case <-ctx.Done():
			s.logger.Info("🛑 Drop-in service stopping")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce performs a single probe pass.
func (s *Service) RunOnce() {
	if s.reg == nil {
		s.reg = s.store.Load()
	}

	observed := Registry{}
	for _, target := range s.cfg.GlobalProbeTargets {
		s.scanDir(target, s.cfg.SystemApplicationsDir, observed)
	}
	s.scanUserDirs(observed)

	s.removeStale(observed)
	s.reg = observed

	if err := s.store.Save(s.reg); err != nil {
		s.logger.Warn("⚠️ Could not persist desktop-link registry", "error", err)
	}
}

// scanDir installs launcher entries into appsDir for every valid
// bundle directly under bundlesDir, recording what was installed.
func (s *Service) scanDir(bundlesDir, appsDir string, observed Registry) {
	entries, err := os.ReadDir(bundlesDir)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Debug("Probe target unreadable", "dir", bundlesDir, "error", err)
		}
		return
	}

	g := &Integrator{AppsDir: appsDir, Launcher: s.cfg.LauncherCommand, Logger: s.logger}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(bundlesDir, entry.Name())

		b := bundle.New(path)
		if b.Probe() == bundle.EntryInvalid {
			continue
		}
		if b.Props()["Name"] == "" {
			continue
		}

		id, err := appid.Resolve(path)
		if err != nil {
			continue
		}
		if err := g.Install(b, id); err != nil {
			s.logger.Warn("⚠️ Could not install desktop entry", "bundle", path, "error", err)
			continue
		}

		rec := observed[path]
		if rec == nil {
			rec = &RegistryEntry{}
			observed[path] = rec
		}
		rec.DesktopFiles = append(rec.DesktopFiles, g.EntryPath(id))
	}
}

// scanUserDirs probes each home under BaseDirectory for an
// applications directory, creating missing ones when configured to,
// and installs entries into that user's launcher directory.
func (s *Service) scanUserDirs(observed Registry) {
	homes, err := os.ReadDir(s.cfg.BaseDirectory)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Debug("Base directory unreadable", "dir", s.cfg.BaseDirectory, "error", err)
		}
		return
	}

	for _, home := range homes {
		if !home.IsDir() {
			continue
		}
		homeDir := filepath.Join(s.cfg.BaseDirectory, home.Name())
		bundlesDir := filepath.Join(homeDir, s.cfg.ApplicationsDirectory)

		if _, err := os.Stat(bundlesDir); os.IsNotExist(err) {
			if !s.cfg.MakeDirectoryIfPossible {
				continue
			}
			if err := s.makeOwnedDir(bundlesDir, homeDir); err != nil {
				s.logger.Debug("Could not create applications dir", "dir", bundlesDir, "error", err)
				continue
			}
		}

		appsDir := filepath.Join(homeDir, userAppsRel)
		if err := s.makeOwnedDir(appsDir, homeDir); err != nil {
			s.logger.Debug("Could not prepare launcher dir", "dir", appsDir, "error", err)
			continue
		}

		s.scanDir(bundlesDir, appsDir, observed)
	}
}

// makeOwnedDir creates dir and matches its ownership to ownerRef.
// Ownership transfer is best effort: it only works when the service
// runs as root, and failing it leaves a usable root-owned directory.
func (s *Service) makeOwnedDir(dir, ownerRef string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	info, err := os.Stat(ownerRef)
	if err != nil {
		return nil
	}
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		if err := os.Chown(dir, int(st.Uid), int(st.Gid)); err != nil {
			s.logger.Debug("Could not chown directory", "dir", dir, "error", err)
		}
	}
	return nil
}

// removeStale deletes desktop files recorded in the previous pass that
// no current bundle accounts for.
func (s *Service) removeStale(observed Registry) {
	for bundlePath, prev := range s.reg {
		cur := observed[bundlePath]
		for _, file := range prev.DesktopFiles {
			if cur != nil && containsString(cur.DesktopFiles, file) {
				continue
			}
			if err := removeFileQuietly(file); err != nil {
				s.logger.Warn("⚠️ Could not remove stale desktop entry", "path", file, "error", err)
				continue
			}
			s.logger.Info("🧹 Removed stale desktop entry", "path", file, "bundle", bundlePath)
		}
	}
}

func containsString(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}
