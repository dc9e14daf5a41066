package box

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Lock is a per-box advisory lock: a file created with O_EXCL carrying
// the holder's PID. Locks left behind by dead processes are reaped on
// the next acquisition attempt.
type Lock struct {
	path   string
	logger hclog.Logger
}

// NewLock creates a lock for the given file path.
func NewLock(path string, logger hclog.Logger) *Lock {
	return &Lock{path: path, logger: logger}
}

// isProcessRunning checks if a process with the given PID exists.
func isProcessRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// Signal(0) checks existence without sending anything
	err = process.Signal(syscall.Signal(0))
	return err == nil
}

// TryAcquire attempts to take the lock without blocking. Returns true
// if acquired, false if another live process holds it.
func (l *Lock) TryAcquire() (bool, error) {
	pid := os.Getpid()

	// Reap stale locks from dead processes first
	if _, err := os.Stat(l.path); err == nil {
		if data, err := os.ReadFile(l.path); err == nil {
			contents := strings.TrimSpace(string(data))
			if oldPid, err := strconv.Atoi(contents); err == nil {
				if !isProcessRunning(oldPid) {
					l.logger.Info("🧹 Removing stale lock from dead process", "pid", oldPid)
					os.Remove(l.path)
				} else {
					l.logger.Debug("🔒 Lock held by active process", "pid", oldPid)
					return false, nil
				}
			} else {
				l.logger.Info("🧹 Removing invalid lock file (couldn't parse PID)")
				os.Remove(l.path)
			}
		} else {
			l.logger.Info("🧹 Removing unreadable lock file")
			os.Remove(l.path)
		}
	}

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			l.logger.Debug("🔒 Lock file exists, another process is provisioning")
			return false, nil
		}
		return false, err
	}
	defer file.Close()

	if _, err := fmt.Fprintf(file, "%d\n", pid); err != nil {
		os.Remove(l.path)
		return false, err
	}

	l.logger.Debug("🔒 Acquired provisioning lock", "pid", pid)
	return true, nil
}

// Acquire blocks until the lock is taken or the timeout expires,
// polling every 100ms while another process holds it.
func (l *Lock) Acquire(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		acquired, err := l.TryAcquire()
		if err != nil {
			return err
		}
		if acquired {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timeout waiting for provisioning lock %s", l.path)
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// Release removes the lock file.
func (l *Lock) Release() {
	if err := os.Remove(l.path); err != nil {
		l.logger.Debug("⚠️ Failed to remove lock file", "error", err)
	} else {
		l.logger.Debug("🔓 Released provisioning lock")
	}
}
