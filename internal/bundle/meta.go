package bundle

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Marker and property file names under AppRunMeta/.
const (
	markerRunAsRoot   = "RunAsRoot"
	markerPreserveEnv = "RunAsRootPreserveEnv"

	// Library-path declaration, primary location first.
	libPathPrimary  = "PythonPath"
	libPathFallback = "Runtime/PythonPath"

	// Property distinguishing desktop applications from other bundles.
	PropDesktopType = "DesktopLink.Type"
	TypeApplication = "Application"
)

// Prop reads a bundle property addressed by a dotted path, e.g.
// "DesktopLink.Type" resolves to AppRunMeta/DesktopLink/Type. Dots
// descend into subdirectories only while one exists, so file names
// with an extension stay addressable: "DesktopLink.Icon.png" resolves
// to AppRunMeta/DesktopLink/Icon.png. Text values are trimmed; binary
// property files resolve to their own path so they can be referenced
// (icons). The second return reports whether the property exists.
func (b *Bundle) Prop(dotted string) (string, bool) {
	path := filepath.Join(b.Path, MetaDir)
	parts := strings.Split(dotted, ".")
	for len(parts) > 1 {
		next := filepath.Join(path, parts[0])
		info, err := os.Stat(next)
		if err != nil || !info.IsDir() {
			break
		}
		path = next
		parts = parts[1:]
	}
	return readPropFile(filepath.Join(path, strings.Join(parts, ".")))
}

// readPropFile loads a single property file.
func readPropFile(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	if !utf8.Valid(data) {
		return path, true
	}
	return strings.TrimSpace(string(data)), true
}

// HasMarker reports whether a marker file exists under AppRunMeta/.
func (b *Bundle) HasMarker(name string) bool {
	_, err := os.Stat(filepath.Join(b.Path, MetaDir, name))
	return err == nil
}

// LaunchContext is the privilege/environment context a bundle asks
// for, computed once from metadata and passed explicitly to the spawn
// call rather than threaded through ambient state.
type LaunchContext struct {
	Elevate    bool
	InheritEnv bool
}

// Context computes the launch context from the bundle's marker files.
// InheritEnv only takes effect together with Elevate.
func (b *Bundle) Context() LaunchContext {
	elevate := b.HasMarker(markerRunAsRoot)
	return LaunchContext{
		Elevate:    elevate,
		InheritEnv: elevate && b.HasMarker(markerPreserveEnv),
	}
}

// IsApplication reports whether the bundle declares itself as a
// desktop application, which opts it into the crash heuristic.
func (b *Bundle) IsApplication() bool {
	v, ok := b.Prop(PropDesktopType)
	return ok && v == TypeApplication
}

// LibraryPath returns the declared extra module search path, checking
// the primary metadata location first and the fallback second. The
// raw value may contain ${Token} references; callers expand it with
// Expand before use.
func (b *Bundle) LibraryPath() (string, bool) {
	if v, ok := b.Prop(strings.ReplaceAll(libPathPrimary, "/", ".")); ok && v != "" {
		return v, true
	}
	if v, ok := b.Prop(strings.ReplaceAll(libPathFallback, "/", ".")); ok && v != "" {
		return v, true
	}
	return "", false
}

// Props collects every property file under AppRunMeta/DesktopLink into
// a dictionary, keyed by file name. Used by the desktop integrator to
// render launcher entries.
func (b *Bundle) Props() map[string]string {
	props := map[string]string{"BundlePath": b.Path}

	linkDir := filepath.Join(b.Path, MetaDir, "DesktopLink")
	entries, err := os.ReadDir(linkDir)
	if err != nil {
		return props
	}

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		// Read by file path, not through the dotted accessor: names
		// like Icon.png contain dots of their own.
		if v, ok := readPropFile(filepath.Join(linkDir, entry.Name())); ok {
			props[entry.Name()] = v
		}
	}
	return props
}

// Expand substitutes ${Key} tokens in a metadata value from the given
// dictionary. Unknown tokens are left in place so a bad reference is
// visible in the resulting path instead of silently vanishing.
func Expand(value string, dict map[string]string) string {
	for key, val := range dict {
		value = strings.ReplaceAll(value, "${"+key+"}", val)
	}
	return value
}
