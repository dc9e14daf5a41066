// Package desktop installs and maintains .desktop launcher entries
// for application bundles: one-shot installation during provisioning
// and the periodic drop-in service that keeps the host shell's
// launcher directory in sync with the bundles on disk.
package desktop

import (
	"strings"

	"github.com/acadia-aisp/apprun/pkg/shellparse"
)

const entryTemplate = `[Desktop Entry]
Version=$Version$
Name=$Name$
Comment=$Comment$
Exec=$Exec$
Icon=$Icon.png$
Terminal=$Terminal$
Type=$Type$
Categories=$Categories$;
`

// Fallback values for properties a bundle does not declare, so no
// literal $Key$ placeholder ever leaks into an installed entry.
var entryFallbacks = map[string]string{
	"Version":    "1.0",
	"Comment":    "",
	"Args":       "",
	"Icon.png":   "/usr/local/share/apprun/unknown-app-icon.png",
	"Terminal":   "false",
	"Type":       "Application",
	"Categories": "Utility",
}

// Render produces the .desktop entry content for a bundle's property
// dictionary. The Exec line invokes the configured launcher command
// with the quoted bundle path and any declared extra arguments.
func Render(launcherCommand string, props map[string]string) string {
	content := entryTemplate

	execLine := launcherCommand + " " + shellparse.Join([]string{props["BundlePath"]})
	if args := strings.TrimSpace(props["Args"]); args != "" {
		execLine += " " + args
	}
	content = strings.ReplaceAll(content, "$Exec$", execLine)

	for key, value := range props {
		content = strings.ReplaceAll(content, "$"+key+"$", value)
	}
	for key, fallback := range entryFallbacks {
		content = strings.ReplaceAll(content, "$"+key+"$", fallback)
	}
	return content
}
