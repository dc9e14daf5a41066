// Package bundle models application bundles: directories carrying a
// recognized entry file plus optional metadata under AppRunMeta/.
package bundle

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrNoEntryPoint is returned when a directory exposes none of the
// recognized entry files.
var ErrNoEntryPoint = errors.New("bundle has no recognized entry point")

// Well-known file names inside a bundle.
const (
	EntryFilePython = "main.py"
	EntryFileJar    = "main.jar"
	EntryFileScript = "main.sh"
	EntryFileNative = "main"

	MetaDir          = "AppRunMeta"
	RequirementsFile = "requirements.txt"
)

// EntryKind classifies how a bundle is invoked. It is resolved once by
// Probe and consumed by both provisioning and launch so the two phases
// can never disagree on the invocation strategy.
type EntryKind int

const (
	EntryInvalid EntryKind = iota
	EntryPython            // managed interpreter, dependency-install capable
	EntryJar               // managed-runtime archive
	EntryScript            // shell script
	EntryNative            // executable binary
)

// String returns the kind name for logs.
func (k EntryKind) String() string {
	switch k {
	case EntryPython:
		return "python"
	case EntryJar:
		return "jar"
	case EntryScript:
		return "script"
	case EntryNative:
		return "native"
	default:
		return "invalid"
	}
}

// Bundle is a caller-owned application directory. It is never mutated.
type Bundle struct {
	Path string
}

// New returns a Bundle for the given directory path.
func New(path string) *Bundle {
	return &Bundle{Path: path}
}

// Probe classifies the bundle's entry kind by checking for known entry
// files in fixed priority order: interpreter entry, runtime archive,
// shell script, then an executable named "main".
func (b *Bundle) Probe() EntryKind {
	if fileExists(filepath.Join(b.Path, EntryFilePython)) {
		return EntryPython
	}
	if fileExists(filepath.Join(b.Path, EntryFileJar)) {
		return EntryJar
	}
	if fileExists(filepath.Join(b.Path, EntryFileScript)) {
		return EntryScript
	}
	if isExecutable(filepath.Join(b.Path, EntryFileNative)) {
		return EntryNative
	}
	return EntryInvalid
}

// EntryFile returns the absolute path of the entry file for a kind.
func (b *Bundle) EntryFile(kind EntryKind) string {
	switch kind {
	case EntryPython:
		return filepath.Join(b.Path, EntryFilePython)
	case EntryJar:
		return filepath.Join(b.Path, EntryFileJar)
	case EntryScript:
		return filepath.Join(b.Path, EntryFileScript)
	case EntryNative:
		return filepath.Join(b.Path, EntryFileNative)
	default:
		return ""
	}
}

// Manifest returns the dependency manifest path and whether it exists.
func (b *Bundle) Manifest() (string, bool) {
	path := filepath.Join(b.Path, RequirementsFile)
	return path, fileExists(path)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0
}
