// Package lock keeps two processes from opening the same profile.
package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// FileName is the lock file created inside a profile directory.
const FileName = "LOCK"

// Owner identifies the process holding a lock.
type Owner struct {
	PID    int
	Binary string
	Since  time.Time
}

func currentOwner() Owner {
	return Owner{PID: os.Getpid(), Binary: filepath.Base(os.Args[0]), Since: time.Now().UTC()}
}

func (o Owner) encode() string {
	return fmt.Sprintf("pid=%d\ntime=%s\nbin=%s\n", o.PID, o.Since.Format(time.RFC3339), o.Binary)
}

// parseOwner reads what it can and leaves the rest zero.
func parseOwner(content string) Owner {
	var o Owner
	for _, line := range strings.Split(content, "\n") {
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch key {
		case "pid":
			o.PID, _ = strconv.Atoi(val)
		case "bin":
			o.Binary = val
		case "time":
			o.Since, _ = time.Parse(time.RFC3339, val)
		}
	}
	return o
}

// HeldError is returned when another process holds the profile lock.
type HeldError struct {
	Profile string
	Path    string
	Owner   Owner
}

func (e *HeldError) Error() string {
	if e.Owner.Binary != "" {
		return fmt.Sprintf("profile %s is in use by %s (PID %d, %s)", e.Profile, e.Owner.Binary, e.Owner.PID, e.Path)
	}
	return fmt.Sprintf("profile %s is in use by PID %d (%s)", e.Profile, e.Owner.PID, e.Path)
}

// Lock is an acquired profile lock. The zero and nil values are released.
type Lock struct {
	file *os.File
	path string
}

// Acquire creates dir if needed and takes an exclusive, non-blocking flock
// on its lock file. A busy lock yields *HeldError.
func Acquire(dir string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create profile dir: %w", err)
	}
	path := filepath.Join(dir, FileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = f.Close()
		data, _ := os.ReadFile(path)
		return nil, &HeldError{Profile: filepath.Base(dir), Path: path, Owner: parseOwner(string(data))}
	}

	if err := writeOwner(f, currentOwner()); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write lock owner: %w", err)
	}
	return &Lock{file: f, path: path}, nil
}

func writeOwner(f *os.File, o Owner) error {
	if err := f.Truncate(0); err != nil {
		return err
	}
	_, err := f.WriteAt([]byte(o.encode()), 0)
	return err
}

// Path returns the lock file path, or "" once released.
func (l *Lock) Path() string {
	if l == nil || l.file == nil {
		return ""
	}
	return l.path
}

// Release removes the lock file and drops the flock. Calling it again
// is a no-op.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	// Unlink while still holding the flock so a waiting process never
	// reads a half-removed owner.
	_ = os.Remove(l.path)
	err := l.file.Close()
	l.file = nil
	return err
}
