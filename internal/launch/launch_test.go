package launch

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadia-aisp/apprun/internal/box"
)

type recordingNotifier struct {
	progress []string
	alerts   []string
}

func (n *recordingNotifier) Progress(summary, body string) {
	n.progress = append(n.progress, summary+": "+body)
}

func (n *recordingNotifier) Alert(summary, body string) {
	n.alerts = append(n.alerts, summary+": "+body)
}

// noInstallRunner fails the test if provisioning ever shells out;
// these scenarios use bundles that need no dependency install.
type noInstallRunner struct{ t *testing.T }

func (r noInstallRunner) Run(name string, args ...string) error {
	r.t.Fatalf("unexpected provisioning subprocess: %s %v", name, args)
	return nil
}

func newTestOrchestrator(t *testing.T, exitCode int, spawnErr error) (*Orchestrator, *recordingNotifier, *[]*exec.Cmd) {
	t.Helper()
	notifier := &recordingNotifier{}
	spawned := &[]*exec.Cmd{}

	o := New(t.TempDir(), notifier, hclog.NewNullLogger())
	o.Boxes.Runner = noInstallRunner{t: t}
	o.run = func(cmd *exec.Cmd) (int, error) {
		*spawned = append(*spawned, cmd)
		return exitCode, spawnErr
	}
	return o, notifier, spawned
}

func appBundle(t *testing.T, extra map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"main.sh":                     "#!/bin/sh\n",
		"AppRunMeta/DesktopLink/Type": "Application\n",
	}
	for k, v := range extra {
		files[k] = v
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestLaunchForwardsExitCode(t *testing.T) {
	o, notifier, spawned := newTestOrchestrator(t, 3, nil)
	dir := appBundle(t, nil)

	code := o.Launch(dir, nil)

	assert.Equal(t, 3, code, "child exit code forwarded verbatim")
	require.Len(t, *spawned, 1)
	require.Len(t, notifier.alerts, 1)
	assert.Contains(t, notifier.alerts[0], "code 3")
}

func TestLaunchCleanExitStillFastIsSuspect(t *testing.T) {
	// The fake spawn returns immediately, so the measured duration is
	// far below the short-run threshold.
	o, notifier, _ := newTestOrchestrator(t, 0, nil)
	dir := appBundle(t, nil)

	code := o.Launch(dir, nil)

	assert.Equal(t, 0, code, "exit code forwarded even when crash suspected")
	require.Len(t, notifier.alerts, 1)
	assert.Contains(t, notifier.alerts[0], "may have crashed")
}

func TestLaunchOptOutSuppressesNotification(t *testing.T) {
	o, notifier, spawned := newTestOrchestrator(t, 0, nil)
	dir := appBundle(t, nil)

	code := o.Launch(dir, []string{NoCrashCheckFlag})

	assert.Equal(t, 0, code)
	assert.Empty(t, notifier.alerts)

	// The flag is passed through to the child unaffected.
	require.Len(t, *spawned, 1)
	assert.Contains(t, (*spawned)[0].Args, NoCrashCheckFlag)
}

func TestLaunchNonApplicationSkipsHeuristic(t *testing.T) {
	o, notifier, _ := newTestOrchestrator(t, 5, nil)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.sh"), []byte("#!/bin/sh\n"), 0o644))

	code := o.Launch(dir, nil)

	assert.Equal(t, 5, code)
	assert.Empty(t, notifier.alerts, "crash heuristic only applies to Application bundles")
}

func TestLaunchNoEntryPoint(t *testing.T) {
	o, notifier, spawned := newTestOrchestrator(t, 0, nil)

	code := o.Launch(t.TempDir(), nil)

	assert.Equal(t, ExitNoEntryPoint, code)
	assert.Empty(t, *spawned, "no child process is spawned on validation failure")
	require.Len(t, notifier.alerts, 1)
	assert.Contains(t, notifier.alerts[0], "entry point")
}

func TestLaunchDependencyFailure(t *testing.T) {
	notifier := &recordingNotifier{}
	o := New(t.TempDir(), notifier, hclog.NewNullLogger())

	installErr := errors.New("pip blew up")
	o.Boxes.Runner = failingRunner{err: installErr}
	spawned := 0
	o.run = func(cmd *exec.Cmd) (int, error) {
		spawned++
		return 0, nil
	}

	dir := appBundle(t, map[string]string{
		"main.py":          "print('hi')\n",
		"requirements.txt": "requests\n",
	})
	// Remove the script entry so the python entry is authoritative.
	require.NoError(t, os.Remove(filepath.Join(dir, "main.sh")))

	code := o.Launch(dir, nil)

	assert.Equal(t, ExitDependencyError, code)
	assert.Zero(t, spawned, "fail fast: nothing is executed after an install failure")
	require.NotEmpty(t, notifier.alerts)
	assert.True(t, strings.Contains(notifier.alerts[0], "Cannot launch"))
}

type failingRunner struct{ err error }

func (r failingRunner) Run(name string, args ...string) error { return r.err }

func TestLaunchSpawnFailure(t *testing.T) {
	o, _, _ := newTestOrchestrator(t, 0, errors.New("exec format error"))
	dir := appBundle(t, nil)

	code := o.Launch(dir, nil)
	assert.Equal(t, ExitNoCommand, code)
}

func TestLaunchInvalidPath(t *testing.T) {
	o, _, _ := newTestOrchestrator(t, 0, nil)
	// "/" probes as no entry point before AppID resolution can fail,
	// so use a path that has entries but cannot yield an identifier.
	code := o.Launch("", nil)
	assert.Equal(t, ExitNoEntryPoint, code)
}

var _ box.Runner = noInstallRunner{}
