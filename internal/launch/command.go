package launch

import (
	"fmt"
	"os"

	"github.com/acadia-aisp/apprun/internal/box"
	"github.com/acadia-aisp/apprun/internal/bundle"
	"github.com/acadia-aisp/apprun/pkg/shellparse"
)

// Environment variables set around interpreted launches.
const (
	envPycachePrefix = "PYTHONPYCACHEPREFIX"
	envModulePath    = "PYTHONPATH"
)

// invocation is a fully resolved command: argv with any elevation
// prefix and caller arguments already applied, plus the environment
// the child receives.
type invocation struct {
	argv []string
	env  []string
}

// buildInvocation selects the invocation strategy for the probed entry
// kind and assembles argv and environment. Caller args are appended
// unchanged; the privilege context is applied as an explicit prefix.
func buildInvocation(b *bundle.Bundle, bx *box.Box, paths *box.Paths, kind bundle.EntryKind, args []string) (*invocation, error) {
	var argv []string

	switch kind {
	case bundle.EntryPython:
		interp := "python3"
		if bx.Venv != "" {
			interp = paths.VenvPython()
		}
		argv = []string{interp, b.EntryFile(kind)}
	case bundle.EntryJar:
		argv = []string{"java", "-jar", b.EntryFile(kind)}
	case bundle.EntryScript:
		argv = []string{"sh", b.EntryFile(kind)}
	case bundle.EntryNative:
		argv = []string{b.EntryFile(kind)}
	default:
		return nil, fmt.Errorf("no invocation strategy for entry kind %s", kind)
	}

	ctx := b.Context()
	prefix, err := elevationPrefix(ctx)
	if err != nil {
		return nil, err
	}
	argv = append(prefix, argv...)
	argv = append(argv, args...)

	env := buildEnv(b, bx, paths, kind)

	return &invocation{argv: argv, env: env}, nil
}

// buildEnv layers the child environment: the caller's environment,
// the shared bytecode-cache prefix for interpreted bundles, and the
// bundle's declared extra module search path.
func buildEnv(b *bundle.Bundle, bx *box.Box, paths *box.Paths, kind bundle.EntryKind) []string {
	env := os.Environ()
	if kind != bundle.EntryPython {
		return env
	}

	env = append(env, envPycachePrefix+"="+paths.PycachePrefix())

	if raw, ok := b.LibraryPath(); ok {
		expanded := bundle.Expand(raw, expansionDict(b, bx))
		modulePath := expanded
		if existing := os.Getenv(envModulePath); existing != "" {
			modulePath = expanded + string(os.PathListSeparator) + existing
		}
		env = append(env, envModulePath+"="+modulePath)
	}

	return env
}

// expansionDict builds the property dictionary used to expand
// ${Token} references in metadata values.
func expansionDict(b *bundle.Bundle, bx *box.Box) map[string]string {
	home, _ := os.UserHomeDir()
	dict := map[string]string{
		"BundlePath": b.Path,
		"Home":       home,
	}
	if bx != nil {
		dict["Box"] = bx.Root
		dict["AppID"] = bx.ID
	}
	return dict
}

// elevationPrefix returns the command prefix for the bundle's
// privilege context. The default elevation tool is sudo, with -E when
// the bundle asks for the caller's environment to be preserved; an
// operator can override the whole prefix with APPRUN_ELEVATE_COMMAND.
func elevationPrefix(ctx bundle.LaunchContext) ([]string, error) {
	if !ctx.Elevate {
		return nil, nil
	}
	if override := os.Getenv("APPRUN_ELEVATE_COMMAND"); override != "" {
		prefix, err := shellparse.Split(override)
		if err != nil {
			return nil, fmt.Errorf("invalid APPRUN_ELEVATE_COMMAND: %w", err)
		}
		return prefix, nil
	}
	if ctx.InheritEnv {
		return []string{"sudo", "-E"}, nil
	}
	return []string{"sudo"}, nil
}
