// Package lockfile guards a TriagePipe state directory so that only one server
// or import writes the local catalog at a time.
//
// The lock is an flock on a file inside the directory; the kernel drops it when
// the process exits, so a crash never leaves the directory locked.
package lockfile

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// FileName is the lock file created inside the state directory.
const FileName = "triagepipe.lock"

// Lock is a held state directory lock.
type Lock struct {
	file *os.File
	path string
}

// Acquire takes the lock for dir, creating dir if needed. purpose is recorded in
// the lock file ("serve", "import") and reported to a competing process.
func Acquire(dir, purpose string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, FileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file %s: %w", path, err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		holder := describeHolder(path)
		slog.Error("lockfile.Acquire: state directory busy", "lock_path", path, "holder", holder, "error", err)
		return nil, &HeldError{Path: path, Holder: holder, Cause: err}
	}

	// Truncate only once the lock is ours, so a loser never wipes the holder's info.
	if err := f.Truncate(0); err == nil {
		_, err = fmt.Fprintf(f, "pid=%d\npurpose=%s\n", os.Getpid(), purpose)
		if err != nil {
			slog.Warn("lockfile.Acquire: failed to record holder", "lock_path", path, "error", err)
		}
	}

	slog.Info("lockfile.Acquire: state directory locked", "lock_path", path, "purpose", purpose, "pid", os.Getpid())
	return &Lock{file: f, path: path}, nil
}

// Release drops the lock and removes the lock file. Calling it twice is a no-op.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	var errs []error
	if err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN); err != nil {
		errs = append(errs, fmt.Errorf("failed to unlock: %w", err))
	}
	if err := l.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close lock file: %w", err))
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("lockfile.Release: failed to remove lock file", "lock_path", l.path, "error", err)
	}
	l.file = nil
	slog.Debug("lockfile.Release: state directory unlocked", "lock_path", l.path)
	return errors.Join(errs...)
}

// HeldError reports that another process owns the lock.
type HeldError struct {
	Path   string
	Holder string
	Cause  error
}

func (e *HeldError) Error() string {
	msg := fmt.Sprintf("another TriagePipe process is using this state directory (lock file %s)", e.Path)
	if e.Holder != "" {
		msg += ": " + e.Holder
	}
	return msg
}

func (e *HeldError) Unwrap() error {
	return e.Cause
}

// holder is what a lock file says about the process that wrote it.
type holder struct {
	pid     int
	purpose string
}

func parseHolder(content string) holder {
	var h holder
	for _, line := range strings.Split(content, "\n") {
		k, v, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		switch k {
		case "pid":
			if pid, err := strconv.Atoi(v); err == nil && pid > 0 {
				h.pid = pid
			}
		case "purpose":
			h.purpose = v
		}
	}
	return h
}

func describeHolder(path string) string {
	data, err := os.ReadFile(path)
	if err != nil || len(data) == 0 {
		return ""
	}
	h := parseHolder(string(data))
	if h.pid == 0 {
		return ""
	}
	state := "running"
	if !processAlive(h.pid) {
		state = "not running"
	}
	if h.purpose == "" {
		return fmt.Sprintf("pid %d (%s)", h.pid, state)
	}
	return fmt.Sprintf("%s, pid %d (%s)", h.purpose, h.pid, state)
}

// processAlive sends signal 0, which checks existence without delivering anything.
func processAlive(pid int) bool {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return p.Signal(syscall.Signal(0)) == nil
}
