// Package box owns the per-application isolated runtime directories:
// lazily created under the per-user cache root, keyed by AppID, reused
// across invocations, and never automatically destroyed. The directory
// tree itself is the source of truth; there is no separate index.
package box

import (
	"os"
	"path/filepath"
	"runtime"
)

// On-disk names inside the cache root and each box.
const (
	boxesDir      = "boxes"
	pycacheDir    = "pycache"
	venvDir       = "venv"
	checksumFile  = "requirements.checksum"
	lockFile      = "provision.lock"
	dirPerms      = 0o755
	checksumPerms = 0o644
)

// Box is the resolved per-AppID runtime. Venv is empty when no
// isolated interpreter environment exists for the bundle.
type Box struct {
	ID   string
	Root string
	Venv string
}

// Paths computes every path belonging to one box. It performs no I/O.
type Paths struct {
	cacheRoot string
	appID     string
}

// NewPaths creates Paths for an AppID under the given cache root.
func NewPaths(cacheRoot, appID string) *Paths {
	return &Paths{cacheRoot: cacheRoot, appID: appID}
}

// Root returns the box root directory.
func (p *Paths) Root() string {
	return filepath.Join(p.cacheRoot, boxesDir, p.appID)
}

// Venv returns the isolated interpreter environment directory.
func (p *Paths) Venv() string {
	return filepath.Join(p.Root(), venvDir)
}

// VenvPython returns the interpreter binary inside the environment.
func (p *Paths) VenvPython() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(p.Venv(), "Scripts", "python.exe")
	}
	return filepath.Join(p.Venv(), "bin", "python")
}

// ChecksumFile returns the persisted dependency-manifest digest path.
func (p *Paths) ChecksumFile() string {
	return filepath.Join(p.Root(), checksumFile)
}

// LockFile returns the provisioning lock file path.
func (p *Paths) LockFile() string {
	return filepath.Join(p.Root(), lockFile)
}

// PycachePrefix returns the bytecode-cache directory exported to
// interpreted bundles. Shared across all boxes, not per-AppID.
func (p *Paths) PycachePrefix() string {
	return filepath.Join(p.cacheRoot, pycacheDir)
}

// VenvExists reports whether the interpreter environment is present.
func (p *Paths) VenvExists() bool {
	info, err := os.Stat(p.Venv())
	return err == nil && info.IsDir()
}

// CacheRoot returns the per-user cache root for boxes.
func CacheRoot() string {
	if dir := os.Getenv("APPRUN_CACHE_DIR"); dir != "" {
		return dir
	}
	if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
		return filepath.Join(xdgCache, "apprun")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "apprun")
	}
	return filepath.Join(os.TempDir(), "apprun")
}
