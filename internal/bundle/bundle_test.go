package bundle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestProbePriority(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, dir string)
		want  EntryKind
	}{
		{
			name: "python wins over native",
			setup: func(t *testing.T, dir string) {
				writeFile(t, dir, "main.py", "print('hi')\n")
				writeFile(t, dir, "main", "#!/bin/sh\n")
				require.NoError(t, os.Chmod(filepath.Join(dir, "main"), 0o755))
			},
			want: EntryPython,
		},
		{
			name: "jar wins over script",
			setup: func(t *testing.T, dir string) {
				writeFile(t, dir, "main.jar", "PK")
				writeFile(t, dir, "main.sh", "#!/bin/sh\n")
			},
			want: EntryJar,
		},
		{
			name: "script wins over native",
			setup: func(t *testing.T, dir string) {
				writeFile(t, dir, "main.sh", "#!/bin/sh\n")
				writeFile(t, dir, "main", "")
				require.NoError(t, os.Chmod(filepath.Join(dir, "main"), 0o755))
			},
			want: EntryScript,
		},
		{
			name: "native requires executable bit",
			setup: func(t *testing.T, dir string) {
				writeFile(t, dir, "main", "binary")
			},
			want: EntryInvalid,
		},
		{
			name: "native with executable bit",
			setup: func(t *testing.T, dir string) {
				writeFile(t, dir, "main", "binary")
				require.NoError(t, os.Chmod(filepath.Join(dir, "main"), 0o755))
			},
			want: EntryNative,
		},
		{
			name:  "empty directory",
			setup: func(t *testing.T, dir string) {},
			want:  EntryInvalid,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			tc.setup(t, dir)
			assert.Equal(t, tc.want, New(dir).Probe())
		})
	}
}

func TestPropDottedPath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "AppRunMeta/DesktopLink/Type", "Application\n")
	writeFile(t, dir, "AppRunMeta/DesktopLink/Name", "  Calculator  ")

	b := New(dir)

	v, ok := b.Prop("DesktopLink.Type")
	require.True(t, ok)
	assert.Equal(t, "Application", v)

	v, ok = b.Prop("DesktopLink.Name")
	require.True(t, ok)
	assert.Equal(t, "Calculator", v)

	_, ok = b.Prop("DesktopLink.Missing")
	assert.False(t, ok)

	assert.True(t, b.IsApplication())
}

func TestPropBinaryResolvesToPath(t *testing.T) {
	dir := t.TempDir()
	iconPath := filepath.Join(dir, "AppRunMeta", "DesktopLink", "Icon.png")
	require.NoError(t, os.MkdirAll(filepath.Dir(iconPath), 0o755))
	require.NoError(t, os.WriteFile(iconPath, []byte{0x89, 0x50, 0x4e, 0x47, 0xff, 0xfe}, 0o644))

	v, ok := New(dir).Prop("DesktopLink.Icon.png")
	require.True(t, ok)
	assert.Equal(t, iconPath, v)
}

func TestPropsIncludesDottedFileNames(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "AppRunMeta/DesktopLink/Name", "Calc")
	iconPath := filepath.Join(dir, "AppRunMeta", "DesktopLink", "Icon.png")
	require.NoError(t, os.WriteFile(iconPath, []byte{0x89, 0x50, 0x4e, 0x47, 0xff, 0xfe}, 0o644))

	props := New(dir).Props()
	assert.Equal(t, "Calc", props["Name"])
	assert.Equal(t, iconPath, props["Icon.png"])
}

func TestContextMarkers(t *testing.T) {
	dir := t.TempDir()
	b := New(dir)
	assert.Equal(t, LaunchContext{}, b.Context())

	writeFile(t, dir, "AppRunMeta/RunAsRoot", "")
	assert.Equal(t, LaunchContext{Elevate: true}, b.Context())

	writeFile(t, dir, "AppRunMeta/RunAsRootPreserveEnv", "")
	assert.Equal(t, LaunchContext{Elevate: true, InheritEnv: true}, b.Context())
}

func TestPreserveEnvAloneDoesNotElevate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "AppRunMeta/RunAsRootPreserveEnv", "")
	assert.Equal(t, LaunchContext{}, New(dir).Context())
}

func TestLibraryPathPriority(t *testing.T) {
	dir := t.TempDir()
	b := New(dir)

	_, ok := b.LibraryPath()
	assert.False(t, ok)

	writeFile(t, dir, "AppRunMeta/Runtime/PythonPath", "${BundlePath}/lib")
	v, ok := b.LibraryPath()
	require.True(t, ok)
	assert.Equal(t, "${BundlePath}/lib", v)

	// Primary location wins when both are present.
	writeFile(t, dir, "AppRunMeta/PythonPath", "${BundlePath}/vendor")
	v, ok = b.LibraryPath()
	require.True(t, ok)
	assert.Equal(t, "${BundlePath}/vendor", v)
}

func TestExpand(t *testing.T) {
	dict := map[string]string{
		"BundlePath": "/opt/applications/calc",
		"Box":        "/home/dev/.cache/apprun/boxes/calc-3b9fca21",
	}

	got := Expand("${BundlePath}/lib:${Box}/venv/lib", dict)
	assert.Equal(t, "/opt/applications/calc/lib:/home/dev/.cache/apprun/boxes/calc-3b9fca21/venv/lib", got)

	// Unknown tokens survive so misconfiguration stays visible.
	assert.Equal(t, "${Nope}/lib", Expand("${Nope}/lib", dict))
}

func TestPropsDictionary(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "AppRunMeta/DesktopLink/Name", "Calc")
	writeFile(t, dir, "AppRunMeta/DesktopLink/Type", "Application")

	props := New(dir).Props()
	assert.Equal(t, dir, props["BundlePath"])
	assert.Equal(t, "Calc", props["Name"])
	assert.Equal(t, "Application", props["Type"])
}

func TestManifest(t *testing.T) {
	dir := t.TempDir()
	b := New(dir)

	_, ok := b.Manifest()
	assert.False(t, ok)

	writeFile(t, dir, "requirements.txt", "requests==2.31.0\n")
	path, ok := b.Manifest()
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "requirements.txt"), path)
}
