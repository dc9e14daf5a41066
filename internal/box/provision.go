package box

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/acadia-aisp/apprun/internal/appid"
	"github.com/acadia-aisp/apprun/internal/bundle"
	"github.com/acadia-aisp/apprun/internal/notify"
)

var (
	// ErrDependencyInstall is returned when creating the interpreter
	// environment or installing packages fails. The partial
	// environment is left in place; no checksum is recorded, so the
	// next Prepare retries from scratch.
	ErrDependencyInstall = errors.New("dependency installation failed")

	// ErrLockAcquisition is returned when the provisioning lock cannot
	// be taken before the configured timeout.
	ErrLockAcquisition = errors.New("failed to acquire provisioning lock")
)

const defaultLockWait = 120 * time.Second

// Runner executes external commands during provisioning. Indirection
// exists so tests can count and fake installation subprocesses.
type Runner interface {
	Run(name string, args ...string) error
}

type execRunner struct {
	logger hclog.Logger
}

func (r execRunner) Run(name string, args ...string) error {
	r.logger.Debug("🏃 Running command", "command", name, "args", args)
	output, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		r.logger.Error("❌ Command failed", "command", name, "output", string(output))
		return fmt.Errorf("%s failed: %w", name, err)
	}
	return nil
}

// DesktopInstaller installs or refreshes the host launcher entry for a
// bundle. Failures are warnings, never Prepare errors.
type DesktopInstaller interface {
	Install(b *bundle.Bundle, appID string) error
}

// Provisioner brings a bundle's box up to date: box root, interpreter
// environment, dependency set, and desktop launcher entry.
type Provisioner struct {
	CacheRoot string
	Runner    Runner
	Notify    notify.Notifier
	Desktop   DesktopInstaller
	Logger    hclog.Logger
	LockWait  time.Duration
}

// NewProvisioner creates a Provisioner with the real command runner.
func NewProvisioner(cacheRoot string, notifier notify.Notifier, logger hclog.Logger) *Provisioner {
	return &Provisioner{
		CacheRoot: cacheRoot,
		Runner:    execRunner{logger: logger},
		Notify:    notifier,
		Logger:    logger,
		LockWait:  defaultLockWait,
	}
}

// Prepare ensures the bundle's box exists and its dependency set is
// current relative to the cached manifest checksum. Calling it twice
// with an unchanged bundle and manifest performs no installation work.
func (p *Provisioner) Prepare(b *bundle.Bundle) (*Box, error) {
	kind := b.Probe()
	if kind == bundle.EntryInvalid {
		return nil, fmt.Errorf("%w: %s", bundle.ErrNoEntryPoint, b.Path)
	}

	id, err := appid.Resolve(b.Path)
	if err != nil {
		return nil, err
	}
	paths := NewPaths(p.CacheRoot, id)

	// mkdir is idempotent and atomic, safe to race across processes
	if err := os.MkdirAll(paths.Root(), dirPerms); err != nil {
		return nil, fmt.Errorf("failed to create box root: %w", err)
	}
	p.Logger.Debug("📁 Box root", "id", id, "path", paths.Root())

	if kind == bundle.EntryPython {
		if manifest, ok := b.Manifest(); ok {
			if err := p.syncDependencies(b, paths, manifest); err != nil {
				return nil, err
			}
		}
	}

	if name, ok := b.Prop("DesktopLink.Name"); ok && name != "" && p.Desktop != nil {
		if err := p.Desktop.Install(b, id); err != nil {
			p.Logger.Warn("⚠️ Failed to install desktop entry", "id", id, "error", err)
		}
	}

	box := &Box{ID: id, Root: paths.Root()}
	if paths.VenvExists() {
		box.Venv = paths.Venv()
	}
	return box, nil
}

// syncDependencies compares the manifest checksum to the box's
// persisted record and installs only when they differ. The whole step
// runs under the box's advisory lock so concurrent launches of the
// same bundle cannot race two installs.
func (p *Provisioner) syncDependencies(b *bundle.Bundle, paths *Paths, manifest string) error {
	current, err := ManifestChecksum(manifest)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDependencyInstall, err)
	}

	lock := NewLock(paths.LockFile(), p.Logger)
	if err := lock.Acquire(p.lockWait()); err != nil {
		return fmt.Errorf("%w: %v", ErrLockAcquisition, err)
	}
	defer lock.Release()

	// Re-read under the lock: another process may have just installed.
	stored := paths.ReadChecksum()
	name := p.displayName(b)

	switch {
	case stored == current:
		// Common fast path: nothing to install, nothing to touch.
		p.Logger.Debug("✅ Dependencies up to date", "checksum", current)
		return nil

	case stored == "":
		p.Logger.Info("📦 First-time setup", "manifest", manifest)
		p.Notify.Progress(name, "Setting up, this may take a while...")
		if err := p.installEnv(paths, manifest); err != nil {
			return err
		}
		if err := paths.WriteChecksum(current); err != nil {
			return fmt.Errorf("%w: %v", ErrDependencyInstall, err)
		}
		p.Notify.Progress(name, "Dependencies installed, starting up.")

	default:
		p.Logger.Info("🔄 Dependency manifest changed, reinstalling",
			"cached", stored, "current", current)
		p.Notify.Progress(name, "Updating dependencies...")
		if err := p.installEnv(paths, manifest); err != nil {
			return err
		}
		if err := paths.WriteChecksum(current); err != nil {
			return fmt.Errorf("%w: %v", ErrDependencyInstall, err)
		}
		p.Notify.Progress(name, "Dependencies updated, starting up.")
	}

	return nil
}

// installEnv destroys any existing interpreter environment and builds
// a fresh one: venv, base tooling upgrade, then the manifest install.
// A leftover partial environment from a failed install is removed here
// rather than cleaned up eagerly.
func (p *Provisioner) installEnv(paths *Paths, manifest string) error {
	if paths.VenvExists() {
		p.Logger.Debug("🧹 Removing previous interpreter environment", "path", paths.Venv())
		if err := os.RemoveAll(paths.Venv()); err != nil {
			return fmt.Errorf("%w: %v", ErrDependencyInstall, err)
		}
	}

	if err := p.Runner.Run("python3", "-m", "venv", paths.Venv()); err != nil {
		return fmt.Errorf("%w: %v", ErrDependencyInstall, err)
	}

	python := paths.VenvPython()
	if err := p.Runner.Run(python, "-m", "pip", "install", "--upgrade", "pip", "setuptools", "wheel"); err != nil {
		return fmt.Errorf("%w: %v", ErrDependencyInstall, err)
	}
	if err := p.Runner.Run(python, "-m", "pip", "install", "-r", manifest); err != nil {
		return fmt.Errorf("%w: %v", ErrDependencyInstall, err)
	}

	p.Logger.Info("✅ Interpreter environment ready", "path", paths.Venv())
	return nil
}

func (p *Provisioner) lockWait() time.Duration {
	if p.LockWait > 0 {
		return p.LockWait
	}
	return defaultLockWait
}

func (p *Provisioner) displayName(b *bundle.Bundle) string {
	if name, ok := b.Prop("DesktopLink.Name"); ok && name != "" {
		return name
	}
	return b.Path
}
