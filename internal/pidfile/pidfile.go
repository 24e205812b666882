// Package pidfile records the running dev server so a new one can replace it.
package pidfile

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
)

var (
	stopTimeout  = 5 * time.Second
	pollInterval = 50 * time.Millisecond
)

// Write stores the current process ID at path.
func Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "create pid file directory").WithContext("path", path).Build()
	}
	data := []byte(strconv.Itoa(os.Getpid()) + "\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "write pid file").WithContext("path", path).Build()
	}
	return nil
}

// Read returns the process ID stored at path.
func Read(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, errors.ValidationError("pid file does not contain a process id").
			WithContext("path", path).
			Build()
	}
	return pid, nil
}

// Remove deletes the pid file if it still names this process.
func Remove(path string) error {
	pid, err := Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return os.Remove(path)
	}
	if pid != os.Getpid() {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// KillPrevious stops the process named in the pid file, waiting for it to
// exit. Missing, unreadable and stale files are ignored. It returns the pid
// that was signaled, or 0.
func KillPrevious(path string) (int, error) {
	pid, err := Read(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Ignoring unreadable pid file", logfields.Path(path), logfields.Error(err))
		}
		return 0, nil
	}
	if pid == os.Getpid() || !alive(pid) {
		return 0, nil
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return 0, nil
	}
	slog.Info("Stopping previous server", slog.Int("pid", pid), logfields.Path(path))
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return 0, errors.WrapError(err, errors.CategoryRuntime, "signal previous server").
			WithContext("pid", pid).
			Build()
	}
	deadline := time.Now().Add(stopTimeout)
	for alive(pid) {
		if time.Now().After(deadline) {
			return pid, errors.RuntimeError("previous server did not exit").
				WithContext("pid", pid).
				Build()
		}
		time.Sleep(pollInterval)
	}
	return pid, nil
}

func alive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
