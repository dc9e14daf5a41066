package launch

import (
	"fmt"
	"time"
)

// shortRunThreshold is the wall-clock duration below which a clean
// exit is treated as a probable launch failure rather than success.
const shortRunThreshold = time.Second

// Result is the observable outcome of one launch: the child's exit
// code, the wall-clock duration of the child process only, and the
// derived crash suspicion. Consumed immediately, never persisted.
type Result struct {
	ExitCode       int
	Duration       time.Duration
	CrashSuspected bool
}

// classify applies the crash heuristic to a launch outcome. A non-zero
// exit code always reads as a crash and its message cites the code; a
// clean exit faster than the threshold reads as a suspected crash. The
// returned message is empty when the run looks healthy.
func classify(exitCode int, duration time.Duration) (bool, string) {
	if exitCode != 0 {
		return true, fmt.Sprintf("Application exited with code %d after %.1fs.", exitCode, duration.Seconds())
	}
	if duration < shortRunThreshold {
		return true, fmt.Sprintf("Application exited after only %.1fs; it may have failed to start.", duration.Seconds())
	}
	return false, ""
}

// hasOptOut scans the caller's arguments for the literal opt-out flag.
func hasOptOut(args []string) bool {
	for _, arg := range args {
		if arg == NoCrashCheckFlag {
			return true
		}
	}
	return false
}
