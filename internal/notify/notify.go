// Package notify surfaces human-readable launch messages through
// desktop channels, degrading to the textual log when no desktop tool
// is available. The log line is always the fallback of record; a
// missing notification tool is never an error.
package notify

import (
	"os/exec"

	"github.com/hashicorp/go-hclog"

	"github.com/acadia-aisp/apprun/pkg/logging"
)

// Notifier surfaces progress and failure messages to the user.
type Notifier interface {
	// Progress reports a non-error status such as first-time setup.
	Progress(summary, body string)
	// Alert reports a failure, attempting a desktop error dialog.
	Alert(summary, body string)
}

// Dialog tools probed for Alert, in fixed priority.
var dialogTools = []struct {
	name string
	args func(summary, body string) []string
}{
	{
		name: "zenity",
		args: func(summary, body string) []string {
			return []string{"--error", "--title", summary, "--text", body}
		},
	},
	{
		name: "kdialog",
		args: func(summary, body string) []string {
			return []string{"--title", summary, "--error", body}
		},
	},
}

// Desktop is the default Notifier: notify-send for progress, an error
// dialog for alerts, with the logger carrying every message regardless.
type Desktop struct {
	logger   hclog.Logger
	lookPath func(string) (string, error)
	run      func(name string, args ...string) error
}

// NewDesktop creates a Desktop notifier.
func NewDesktop(logger hclog.Logger) *Desktop {
	return &Desktop{
		logger:   logger,
		lookPath: exec.LookPath,
		run: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
	}
}

// Progress logs the message and attempts a notify-send popup.
func (d *Desktop) Progress(summary, body string) {
	d.logger.Info("🔔 "+summary, "detail", body)

	if logging.EnvTrue("APPRUN_NO_NOTIFY") {
		return
	}
	if _, err := d.lookPath("notify-send"); err != nil {
		d.logger.Debug("notify-send not available")
		return
	}
	if err := d.run("notify-send", summary, body); err != nil {
		d.logger.Debug("⚠️ notify-send failed", "error", err)
	}
}

// Alert logs the failure and attempts a desktop error dialog, probing
// the known dialog tools in priority order. When none is present the
// log line is the only signal.
func (d *Desktop) Alert(summary, body string) {
	d.logger.Error("🚨 "+summary, "detail", body)

	if logging.EnvTrue("APPRUN_NO_NOTIFY") {
		return
	}
	for _, tool := range dialogTools {
		if _, err := d.lookPath(tool.name); err != nil {
			continue
		}
		if err := d.run(tool.name, tool.args(summary, body)...); err != nil {
			d.logger.Debug("⚠️ dialog tool failed", "tool", tool.name, "error", err)
		}
		return
	}
	d.logger.Debug("no dialog tool available, log line is the only signal")
}
