package launch

// Exit codes for launcher-owned outcomes. Child exit codes are
// forwarded verbatim and are not listed here.
const (
	ExitOK              = 0
	ExitUsage           = 1   // missing or unusable bundle path
	ExitNoCommand       = 9   // no runnable command after provisioning
	ExitNoEntryPoint    = 10  // validation found no entry file
	ExitDependencyError = 11  // dependency install failed
	ExitPanic           = 101
)

// NoCrashCheckFlag is the literal in-band argument that suppresses
// short-run crash detection for intentionally short-lived launches. It
// is passed through to the child unaffected.
const NoCrashCheckFlag = "--apprun-no-crash-check"
