// Package launch implements the bundle launch orchestrator: it
// provisions the bundle's box, selects an invocation strategy for the
// probed entry kind, applies the privilege context, executes the entry
// point synchronously, and classifies the outcome from the exit code
// and wall-clock duration alone.
package launch

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/acadia-aisp/apprun/internal/appid"
	"github.com/acadia-aisp/apprun/internal/box"
	"github.com/acadia-aisp/apprun/internal/bundle"
	"github.com/acadia-aisp/apprun/internal/notify"
)

// Orchestrator is the top-level launch entry point.
type Orchestrator struct {
	Boxes  *box.Provisioner
	Notify notify.Notifier
	Logger hclog.Logger

	// run spawns the command and blocks until it exits, returning the
	// child's exit code. Injectable for tests.
	run func(cmd *exec.Cmd) (int, error)
}

// New creates an Orchestrator over the given cache root.
func New(cacheRoot string, notifier notify.Notifier, logger hclog.Logger) *Orchestrator {
	return &Orchestrator{
		Boxes:  box.NewProvisioner(cacheRoot, notifier, logger),
		Notify: notifier,
		Logger: logger,
		run:    spawn,
	}
}

// Launch provisions and executes the bundle at bundlePath with the
// caller's arguments appended unchanged, and returns the process exit
// code for the whole invocation. The crash heuristic affects only
// notification, never the returned code.
func (o *Orchestrator) Launch(bundlePath string, args []string) int {
	b := bundle.New(bundlePath)

	bx, err := o.Boxes.Prepare(b)
	if err != nil {
		return o.reportPrepareFailure(b, err)
	}

	// Re-probe: the bundle may have changed since provisioning. Both
	// phases share the same classification, so a disagreement here
	// means the bundle itself mutated underneath us.
	kind := b.Probe()
	if kind == bundle.EntryInvalid {
		o.Logger.Error("❌ No runnable entry point after provisioning", "bundle", b.Path)
		return ExitNoCommand
	}

	paths := box.NewPaths(o.Boxes.CacheRoot, bx.ID)
	inv, err := buildInvocation(b, bx, paths, kind, args)
	if err != nil {
		o.Logger.Error("❌ Could not build launch command", "bundle", b.Path, "error", err)
		return ExitNoCommand
	}

	cmd := exec.Command(inv.argv[0], inv.argv[1:]...)
	cmd.Args = inv.argv
	cmd.Env = inv.env
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	o.Logger.Info("🚀 Launching bundle", "bundle", b.Path, "kind", kind.String(), "box", bx.ID)
	o.Logger.Debug("🎯 Command", "argv", inv.argv)

	start := time.Now()
	exitCode, err := o.run(cmd)
	duration := time.Since(start)
	if err != nil {
		o.Logger.Error("❌ Failed to execute entry point", "bundle", b.Path, "error", err)
		return ExitNoCommand
	}

	result := Result{ExitCode: exitCode, Duration: duration}
	o.Logger.Info("⏹️ Bundle exited", "code", result.ExitCode, "duration", result.Duration.Round(time.Millisecond))

	o.maybeNotifyCrash(b, args, &result)

	return result.ExitCode
}

// maybeNotifyCrash runs the crash heuristic and surfaces the result.
// It only applies to bundles declaring themselves as desktop
// applications, and the opt-out flag suppresses notification entirely.
func (o *Orchestrator) maybeNotifyCrash(b *bundle.Bundle, args []string, result *Result) {
	if !b.IsApplication() {
		return
	}
	if hasOptOut(args) {
		o.Logger.Debug("crash detection opted out", "flag", NoCrashCheckFlag)
		return
	}

	crashed, message := classify(result.ExitCode, result.Duration)
	result.CrashSuspected = crashed
	if !crashed {
		return
	}

	o.Notify.Alert(fmt.Sprintf("%s may have crashed", o.displayName(b)), message)
}

// reportPrepareFailure maps provisioning errors to the launcher's own
// exit codes, failing fast without spawning anything.
func (o *Orchestrator) reportPrepareFailure(b *bundle.Bundle, err error) int {
	switch {
	case errors.Is(err, bundle.ErrNoEntryPoint):
		o.Logger.Error("❌ Bundle has no entry point", "bundle", b.Path)
		o.Notify.Alert(fmt.Sprintf("Cannot launch %s", o.displayName(b)),
			"The bundle has no recognized entry point.")
		return ExitNoEntryPoint
	case errors.Is(err, appid.ErrInvalidPath):
		o.Logger.Error("❌ Bundle path is unusable", "bundle", b.Path, "error", err)
		return ExitUsage
	default:
		o.Logger.Error("❌ Provisioning failed", "bundle", b.Path, "error", err)
		o.Notify.Alert(fmt.Sprintf("Cannot launch %s", o.displayName(b)), err.Error())
		return ExitDependencyError
	}
}

func (o *Orchestrator) displayName(b *bundle.Bundle) string {
	if name, ok := b.Prop("DesktopLink.Name"); ok && name != "" {
		return name
	}
	return b.Path
}

// spawn executes the command synchronously, forwarding the child's
// exit code. Only start failures are errors; a non-zero exit is data.
func spawn(cmd *exec.Cmd) (int, error) {
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start process: %w", err)
	}

	err := cmd.Wait()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return 0, fmt.Errorf("process error: %w", err)
	}
	return 0, nil
}
